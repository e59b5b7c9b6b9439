package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateEvaluation creates an evaluation that starts at start and is due a
// week later. A fresh template ID is assigned.
func (f *Fixtures) CreateEvaluation(ctx context.Context, title string, start time.Time) models.Evaluation {
	f.t.Helper()

	ev := models.Evaluation{
		ID:         primitive.NewObjectID(),
		Title:      title,
		OwnerID:    primitive.NewObjectID(),
		TemplateID: primitive.NewObjectID(),
		StartDate:  start.UTC(),
		DueDate:    start.UTC().AddDate(0, 0, 7),
		CreatedAt:  time.Now().UTC(),
	}
	f.insert(ctx, "evaluations", ev)
	return ev
}

// CreateGroup creates an active test group with the given name.
func (f *Fixtures) CreateGroup(ctx context.Context, name string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "groups", g)
	return g
}

// CreateMembership adds userID to groupID with role.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, userID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "group_memberships", m)
	return m
}

// CreateScale creates a scale with the given option labels.
func (f *Fixtures) CreateScale(ctx context.Context, title string, options ...string) models.Scale {
	f.t.Helper()

	sc := models.Scale{ID: primitive.NewObjectID(), Title: title, Options: options}
	f.insert(ctx, "scales", sc)
	return sc
}

// CreateTemplateItem creates a course-category item on templateID.
func (f *Fixtures) CreateTemplateItem(ctx context.Context, templateID primitive.ObjectID, class string, scaleID *primitive.ObjectID, order int) models.TemplateItem {
	f.t.Helper()

	it := models.TemplateItem{
		ID:             primitive.NewObjectID(),
		TemplateID:     templateID,
		Text:           class + " question",
		Classification: class,
		ScaleID:        scaleID,
		Category:       models.CategoryCourse,
		DisplayOrder:   order,
	}
	f.insert(ctx, "template_items", it)
	return it
}

// CreateSettings saves a complete settings document.
func (f *Fixtures) CreateSettings(ctx context.Context, required int, blankAllowed bool) models.EvalSettings {
	f.t.Helper()

	s := models.EvalSettings{
		ID:                             primitive.NewObjectID(),
		ResponsesRequiredToViewResults: &required,
		BlankResponsesAllowed:          &blankAllowed,
	}
	f.insert(ctx, "eval_settings", s)
	return s
}
