// internal/app/store/evaluations/evaluationstore.go
package evaluationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound     = errors.New("evaluation not found")
	ErrInvalidState = errors.New("invalid evaluation state")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("evaluations")}
}

// Create inserts a new evaluation. If ID is zero, a new ObjectID is
// assigned. The state memo is left empty; it is filled by SetState.
func (s *Store) Create(ctx context.Context, ev models.Evaluation) (models.Evaluation, error) {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.Evaluation{}, err
	}
	return ev, nil
}

// GetByID returns ErrNotFound when no evaluation has the given ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Evaluation, error) {
	var ev models.Evaluation
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev)
	if err == mongo.ErrNoDocuments {
		return models.Evaluation{}, ErrNotFound
	}
	if err != nil {
		return models.Evaluation{}, err
	}
	return ev, nil
}

// UpdateDates replaces the schedule of an evaluation.
func (s *Store) UpdateDates(ctx context.Context, id primitive.ObjectID, ev models.Evaluation) error {
	set := bson.M{
		"start_date":           ev.StartDate,
		"due_date":             ev.DueDate,
		"stop_date":            ev.StopDate,
		"view_date":            ev.ViewDate,
		"student_view_date":    ev.StudentViewDate,
		"instructor_view_date": ev.InstructorViewDate,
		"updated_at":           time.Now().UTC(),
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetState writes the state memo. The write is unconditional: concurrent
// writers compute the same value from the same dates, so last write wins.
// A state outside the defined set is rejected with ErrInvalidState.
func (s *Store) SetState(ctx context.Context, id primitive.ObjectID, state models.EvalState) error {
	if !state.Valid() {
		return ErrInvalidState
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": state.String()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStartedBy returns every evaluation that has started by t, whatever its
// memo says, ordered by start date. A closed memo can still need to advance
// to viewable, and any memo goes stale when its dates are edited.
func (s *Store) ListStartedBy(ctx context.Context, t time.Time) ([]models.Evaluation, error) {
	filter := bson.M{"start_date": bson.M{"$lte": t}}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Evaluation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an evaluation by ID. Returns the number of documents
// deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
