package resultpolicy

import (
	"testing"
	"time"

	"github.com/dalemusser/evalhub/internal/app/system/evalsettings"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeCounts struct {
	evals      map[primitive.ObjectID]models.Evaluation
	completed  int
	enrollment int
}

func (f *fakeCounts) Evaluation(id primitive.ObjectID) (models.Evaluation, bool) {
	ev, ok := f.evals[id]
	return ev, ok
}

func (f *fakeCounts) CountCompletedResponses(primitive.ObjectID, *primitive.ObjectID) int {
	return f.completed
}

func (f *fakeCounts) CountEnrollment(primitive.ObjectID, *primitive.ObjectID) int {
	return f.enrollment
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func newGate(ev models.Evaluation, completed, enrollment int, settings evalsettings.Settings, now time.Time) (*Gate, *fakeCounts) {
	f := &fakeCounts{
		evals:      map[primitive.ObjectID]models.Evaluation{ev.ID: ev},
		completed:  completed,
		enrollment: enrollment,
	}
	g := NewGate(f, f, f, settings)
	g.Now = func() time.Time { return now }
	return g, f
}

func baseEval() models.Evaluation {
	return models.Evaluation{ID: primitive.NewObjectID(), StartDate: day(1), DueDate: day(8)}
}

func TestGate_ScenarioB(t *testing.T) {
	ev := baseEval()
	g, _ := newGate(ev, 3, 10, evalsettings.Settings{ResponsesRequiredToViewResults: 5}, day(10))

	d := g.Decide(ev, RoleStudent, day(10))
	if d.State != models.StateClosed.String() {
		t.Errorf("state: got %q, want %q", d.State, models.StateClosed.String())
	}
	if g.IsResultsVisible(ev, RoleStudent, day(10)) {
		t.Error("expected results hidden with 3 of 5 required responses")
	}
	if got := g.ResponsesNeededToView(ev.ID); got != 2 {
		t.Errorf("ResponsesNeededToView: got %d, want 2", got)
	}
}

func TestGate_ScenarioC(t *testing.T) {
	ev := baseEval()
	ev.ViewDate = ptr(day(20))
	g, _ := newGate(ev, 5, 10, evalsettings.Settings{ResponsesRequiredToViewResults: 5}, day(10))

	for _, role := range []string{RoleStudent, RoleInstructor, RoleOwner} {
		if !g.IsResultsVisible(ev, role, day(10)) {
			t.Errorf("%s: expected results visible once threshold is met", role)
		}
	}
	if got := g.ResponsesNeededToView(ev.ID); got != 0 {
		t.Errorf("ResponsesNeededToView: got %d, want 0", got)
	}
}

func TestGate_FullResponseAndZeroEnrollment(t *testing.T) {
	ev := baseEval()
	settings := evalsettings.Settings{ResponsesRequiredToViewResults: 10}

	g, _ := newGate(ev, 4, 4, settings, day(10))
	d := g.Decide(ev, RoleStudent, day(10))
	if !d.Visible || d.Reason != ReasonFullResponse {
		t.Errorf("full response: got %+v", d)
	}
	if got := g.ResponsesNeededToView(ev.ID); got != 0 {
		t.Errorf("ResponsesNeededToView after full response: got %d, want 0", got)
	}

	g, _ = newGate(ev, 0, 0, settings, day(10))
	d = g.Decide(ev, RoleStudent, day(10))
	if d.Visible {
		t.Errorf("zero enrollment must not count as full response: got %+v", d)
	}
	if got := g.ResponsesNeededToView(ev.ID); got != 10 {
		t.Errorf("ResponsesNeededToView with zero enrollment: got %d, want 10", got)
	}
}

func TestGate_ViewDateReleases(t *testing.T) {
	ev := baseEval()
	ev.ViewDate = ptr(day(12))
	g, _ := newGate(ev, 1, 10, evalsettings.Settings{ResponsesRequiredToViewResults: 5}, day(12))

	if g.IsResultsVisible(ev, RoleStudent, day(11)) {
		t.Error("expected hidden before view date")
	}
	d := g.Decide(ev, RoleStudent, day(12))
	if !d.Visible || d.Reason != ReasonViewDate {
		t.Errorf("at view date: got %+v", d)
	}
	if got := g.ResponsesNeededToView(ev.ID); got != 0 {
		t.Errorf("ResponsesNeededToView at view date: got %d, want 0", got)
	}
}

func TestGate_MonotonicInCompleted(t *testing.T) {
	ev := baseEval()
	settings := evalsettings.Settings{ResponsesRequiredToViewResults: 5}
	g, f := newGate(ev, 0, 8, settings, day(10))

	for _, role := range []string{RoleOwner, RoleStudent, RoleInstructor} {
		seen := false
		for n := 0; n <= 12; n++ {
			f.completed = n
			v := g.IsResultsVisible(ev, role, day(10))
			if seen && !v {
				t.Fatalf("%s: visibility went from true to false at completed=%d", role, n)
			}
			seen = seen || v
		}
		if !seen {
			t.Errorf("%s: never became visible", role)
		}
	}
}

func TestGate_RoleViewDates(t *testing.T) {
	ev := baseEval()
	ev.StudentViewDate = ptr(day(15))
	ev.InstructorViewDate = ptr(day(9))
	settings := evalsettings.Settings{
		ResponsesRequiredToViewResults: 5,
		StudentViewDateEnabled:         true,
		InstructorViewDateEnabled:      true,
	}
	g, _ := newGate(ev, 6, 10, settings, day(10))

	tests := []struct {
		role string
		now  time.Time
		want bool
	}{
		{RoleStudent, day(10), false},
		{RoleStudent, day(15), true},
		{RoleInstructor, day(8), false},
		{RoleInstructor, day(10), true},
		{RoleAssistant, day(10), true},
		{RoleOwner, day(2), true},
		{RoleAdmin, day(2), true},
	}
	for _, tt := range tests {
		if got := g.IsResultsVisible(ev, tt.role, tt.now); got != tt.want {
			t.Errorf("%s at %s: got %v, want %v", tt.role, tt.now.Format("2006-01-02"), got, tt.want)
		}
	}

	// Disabled overrides are ignored.
	g.Settings.StudentViewDateEnabled = false
	if !g.IsResultsVisible(ev, RoleStudent, day(10)) {
		t.Error("expected student view date ignored when disabled")
	}
}

func TestGate_RoleViewDateNeverWidens(t *testing.T) {
	ev := baseEval()
	ev.StudentViewDate = ptr(day(2))
	settings := evalsettings.Settings{ResponsesRequiredToViewResults: 5, StudentViewDateEnabled: true}
	g, _ := newGate(ev, 1, 10, settings, day(5))

	if g.IsResultsVisible(ev, RoleStudent, day(5)) {
		t.Error("role view date must not release results the base rule withholds")
	}
}

func TestGate_ResultsPrivate(t *testing.T) {
	ev := baseEval()
	ev.ResultsPrivate = true
	ev.InstructorViewDate = ptr(day(12))
	settings := evalsettings.Settings{ResponsesRequiredToViewResults: 5, InstructorViewDateEnabled: true}
	g, _ := newGate(ev, 9, 10, settings, day(10))

	if !g.IsResultsVisible(ev, RoleOwner, day(10)) {
		t.Error("owner should see private results")
	}
	d := g.Decide(ev, RoleStudent, day(20))
	if d.Visible || d.Reason != ReasonPrivate {
		t.Errorf("student without view date: got %+v", d)
	}
	if g.IsResultsVisible(ev, RoleInstructor, day(11)) {
		t.Error("instructor should wait for the instructor view date")
	}
	if !g.IsResultsVisible(ev, RoleInstructor, day(12)) {
		t.Error("instructor should see private results after the instructor view date")
	}
}

func TestGate_UnknownRole(t *testing.T) {
	ev := baseEval()
	g, _ := newGate(ev, 9, 10, evalsettings.Settings{ResponsesRequiredToViewResults: 5}, day(10))

	d := g.Decide(ev, "visitor", day(10))
	if d.Visible || d.Reason != ReasonUnknownRole {
		t.Errorf("got %+v", d)
	}
	if !g.IsResultsVisible(ev, "  Admin ", day(10)) {
		t.Error("role names should be normalized")
	}
}

func TestGate_MissingEvaluation(t *testing.T) {
	g, _ := newGate(baseEval(), 2, 10, evalsettings.Settings{ResponsesRequiredToViewResults: 5}, day(10))
	if got := g.ResponsesNeededToView(primitive.NewObjectID()); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}
