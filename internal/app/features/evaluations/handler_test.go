package evaluations_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/evalhub/internal/app/features/evaluations"
	answerstore "github.com/dalemusser/evalhub/internal/app/store/answers"
	assignstore "github.com/dalemusser/evalhub/internal/app/store/assignments"
	evaluationstore "github.com/dalemusser/evalhub/internal/app/store/evaluations"
	responsestore "github.com/dalemusser/evalhub/internal/app/store/responses"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/dalemusser/evalhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	start = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	now   = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
)

type world struct {
	db      *mongo.Database
	h       http.Handler
	ev      models.Evaluation
	group   models.Group
	student primitive.ObjectID
	scaled  models.TemplateItem
	essay   models.TemplateItem
}

// newWorld seeds an active evaluation assigned to one group with two
// students, a three-option scaled item and an essay item.
func newWorld(t *testing.T, withSettings bool) *world {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	w := &world{db: db, student: primitive.NewObjectID()}
	w.ev = fx.CreateEvaluation(ctx, "Intro <i>Biology</i>", start)
	w.group = fx.CreateGroup(ctx, "Section 1")
	fx.CreateMembership(ctx, w.group.ID, w.student, models.MemberRoleStudent)
	fx.CreateMembership(ctx, w.group.ID, primitive.NewObjectID(), models.MemberRoleStudent)
	if _, err := assignstore.New(db).AssignGroup(ctx, w.ev.ID, w.group.ID, models.AssignRoleEvaluator); err != nil {
		t.Fatalf("AssignGroup: %v", err)
	}

	sc := fx.CreateScale(ctx, "Agreement", "Agree", "Neutral", "Disagree")
	w.scaled = fx.CreateTemplateItem(ctx, w.ev.TemplateID, models.ClassScaled, &sc.ID, 1)
	w.essay = fx.CreateTemplateItem(ctx, w.ev.TemplateID, models.ClassText, nil, 2)
	if withSettings {
		fx.CreateSettings(ctx, 1, false)
	}

	h := evaluations.NewHandler(db, zap.NewNop())
	h.Now = func() time.Time { return now }
	w.h = evaluations.Routes(h)
	return w
}

func (w *world) respond(t *testing.T, choice int, essay string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	resp, err := responsestore.New(w.db).Start(ctx, w.ev.ID, w.group.ID, w.student)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	answers := []models.Answer{
		{TemplateItemID: w.scaled.ID, NumericIndex: &choice},
		{TemplateItemID: w.essay.ID, Text: &essay},
	}
	if err := answerstore.New(w.db).Save(ctx, resp.ID, w.ev.ID, answers); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := responsestore.New(w.db).Complete(ctx, resp.ID, now.Add(-time.Hour), nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func (w *world) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	w.h.ServeHTTP(rec, req)
	return rec
}

func TestServeState_ComputesFromDates(t *testing.T) {
	w := newWorld(t, true)

	rec := w.do(testutil.NewRequest("GET", "/"+w.ev.ID.Hex()+"/state"))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		State    string `json:"state"`
		Stale    bool   `json:"stale"`
		Warnings []struct {
			Code string `json:"code"`
		} `json:"warnings"`
	}
	rec.DecodeJSON(t, &body)
	if body.State != "active" {
		t.Errorf("state: got %q, want %q", body.State, "active")
	}
	if !body.Stale {
		t.Error("expected empty memo to be reported stale")
	}
	if len(body.Warnings) != 0 {
		t.Errorf("warnings: got %d, want 0", len(body.Warnings))
	}
}

func TestServeState_BadIDAndNotFound(t *testing.T) {
	w := newWorld(t, true)

	rec := w.do(testutil.NewRequest("GET", "/not-an-id/state"))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = w.do(testutil.NewRequest("GET", "/"+primitive.NewObjectID().Hex()+"/state"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "not found")
}

func TestServeFixState_Idempotent(t *testing.T) {
	w := newWorld(t, true)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var body struct {
		State   string `json:"state"`
		Changed bool   `json:"changed"`
	}

	rec := w.do(testutil.NewRequest("POST", "/"+w.ev.ID.Hex()+"/state/fix"))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &body)
	if body.State != "active" || !body.Changed {
		t.Errorf("first fix: got %+v, want active/changed", body)
	}

	stored, err := evaluationstore.New(w.db).GetByID(ctx, w.ev.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.State != "active" {
		t.Errorf("stored state: got %q, want %q", stored.State, "active")
	}

	rec = w.do(testutil.NewRequest("POST", "/"+w.ev.ID.Hex()+"/state/fix"))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &body)
	if body.Changed {
		t.Error("second fix should not change anything")
	}
}

func TestServeVisibility_WithheldUntilThreshold(t *testing.T) {
	w := newWorld(t, true)

	var d struct {
		Visible bool   `json:"visible"`
		Reason  string `json:"reason"`
		Needed  int    `json:"responses_needed"`
		Role    string `json:"role"`
	}

	rec := w.do(testutil.NewViewerRequest("GET", "/"+w.ev.ID.Hex()+"/visibility", "Student"))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &d)
	if d.Visible || d.Needed != 1 || d.Role != "student" {
		t.Errorf("before responses: got %+v, want hidden, 1 needed, role student", d)
	}

	w.respond(t, 0, "fine")

	rec = w.do(testutil.NewViewerRequest("GET", "/"+w.ev.ID.Hex()+"/visibility", "student"))
	rec.DecodeJSON(t, &d)
	if !d.Visible || d.Reason != "response_threshold" {
		t.Errorf("after response: got %+v, want visible by threshold", d)
	}
}

func TestServeVisibility_DirectCall(t *testing.T) {
	w := newWorld(t, true)

	h := evaluations.NewHandler(w.db, zap.NewNop())
	h.Now = func() time.Time { return now }
	req := testutil.NewViewerRequest("GET", "/", "janitor")
	req = testutil.WithChiURLParam(req, "id", w.ev.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeVisibility(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"reason":"unknown_role"`)
	rec.AssertContains(t, `"visible":false`)
}

func TestServeReport_WithheldIsForbidden(t *testing.T) {
	w := newWorld(t, true)

	rec := w.do(testutil.NewViewerRequest("GET", "/"+w.ev.ID.Hex()+"/report", "student"))
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, `"reason":"withheld"`)
}

func TestServeReport_SanitizedHistogram(t *testing.T) {
	w := newWorld(t, true)
	w.respond(t, 2, "<b>Great</b> pace & labs")

	rec := w.do(testutil.NewViewerRequest("GET", "/"+w.ev.ID.Hex()+"/report", "owner"))
	rec.AssertStatus(t, http.StatusOK)

	var rep struct {
		Title      string `json:"title"`
		Completed  int    `json:"completed"`
		Enrollment int    `json:"enrollment"`
		Categories []struct {
			Name  string `json:"name"`
			Items []struct {
				Classification string `json:"classification"`
				Scaled         *struct {
					Histogram []int `json:"histogram"`
				} `json:"scaled"`
				Essay []struct {
					Number int    `json:"number"`
					Text   string `json:"text"`
				} `json:"essay"`
			} `json:"items"`
		} `json:"categories"`
	}
	rec.DecodeJSON(t, &rep)

	if rep.Title != "Intro Biology" {
		t.Errorf("title: got %q, want %q", rep.Title, "Intro Biology")
	}
	if rep.Completed != 1 || rep.Enrollment != 2 {
		t.Errorf("counts: got completed=%d enrollment=%d, want 1 and 2", rep.Completed, rep.Enrollment)
	}
	if len(rep.Categories) != 2 || rep.Categories[0].Name != models.CategoryCourse {
		t.Fatalf("categories: got %+v", rep.Categories)
	}
	items := rep.Categories[0].Items
	if len(items) != 2 {
		t.Fatalf("course items: got %d, want 2", len(items))
	}
	if items[0].Scaled == nil {
		t.Fatal("expected scaled result on first item")
	}
	if got := items[0].Scaled.Histogram; len(got) != 3 || got[0] != 0 || got[1] != 0 || got[2] != 1 {
		t.Errorf("histogram: got %v, want [0 0 1]", got)
	}
	if len(items[1].Essay) != 1 || items[1].Essay[0].Text != "Great pace & labs" {
		t.Errorf("essay: got %+v, want one stripped answer", items[1].Essay)
	}
}

func TestServeReport_BadGroupAndMissingSettings(t *testing.T) {
	w := newWorld(t, false)

	rec := w.do(testutil.NewViewerRequest("GET", "/"+w.ev.ID.Hex()+"/report?group=zzz", "owner"))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = w.do(testutil.NewViewerRequest("GET", "/"+w.ev.ID.Hex()+"/report", "owner"))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, `"kind":"configuration"`)
}
