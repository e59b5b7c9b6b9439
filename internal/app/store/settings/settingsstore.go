// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the eval_settings collection.
// The collection holds a single document with the global settings.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("eval_settings")}
}

// the one and only settings document
var singleton = bson.M{}

// Get returns the settings document. If none has been saved, it returns a
// zero document whose required fields are nil; evalsettings.Resolve turns
// that into a configuration error.
func (s *Store) Get(ctx context.Context) (models.EvalSettings, error) {
	var settings models.EvalSettings
	err := s.c.FindOne(ctx, singleton).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return models.EvalSettings{}, nil
	}
	if err != nil {
		return models.EvalSettings{}, err
	}
	return settings, nil
}

// Save updates the settings. Uses upsert so it works whether settings
// exist or not.
func (s *Store) Save(ctx context.Context, settings models.EvalSettings) error {
	now := time.Now().UTC()
	settings.UpdatedAt = &now

	update := bson.M{
		"$set": bson.M{
			"responses_required_to_view_results": settings.ResponsesRequiredToViewResults,
			"blank_responses_allowed":            settings.BlankResponsesAllowed,
			"student_view_date_enabled":          settings.StudentViewDateEnabled,
			"instructor_view_date_enabled":       settings.InstructorViewDateEnabled,
			"updated_at":                         settings.UpdatedAt,
			"updated_by_id":                      settings.UpdatedByID,
			"updated_by_name":                    settings.UpdatedByName,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, singleton, update, opts)
	return err
}

// Seed writes defaults only when no settings document exists yet. It
// reports whether a document was inserted.
func (s *Store) Seed(ctx context.Context, defaults models.EvalSettings) (bool, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":                                primitive.NewObjectID(),
			"responses_required_to_view_results": defaults.ResponsesRequiredToViewResults,
			"blank_responses_allowed":            defaults.BlankResponsesAllowed,
			"student_view_date_enabled":          defaults.StudentViewDateEnabled,
			"instructor_view_date_enabled":       defaults.InstructorViewDateEnabled,
			"updated_at":                         now,
			"updated_by_name":                    "startup",
		},
	}
	opts := options.Update().SetUpsert(true)
	res, err := s.c.UpdateOne(ctx, singleton, update, opts)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// Exists checks if settings have been saved.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	count, err := s.c.CountDocuments(ctx, singleton)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
