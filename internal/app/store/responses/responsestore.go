// internal/app/store/responses/responsestore.go
package responsestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/evalhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("responses")}
}

var (
	// ErrDuplicateResponse is returned when the owner already has a
	// response for the evaluation in that group.
	ErrDuplicateResponse = errors.New("a response already exists for this evaluation and group")
	ErrNotFound          = errors.New("response not found")
	ErrAlreadyCompleted  = errors.New("response is already completed")
)

// Start records a new in-progress response.
func (s *Store) Start(ctx context.Context, evalID, groupID, ownerID primitive.ObjectID) (models.Response, error) {
	r := models.Response{
		ID:           primitive.NewObjectID(),
		EvaluationID: evalID,
		GroupID:      groupID,
		OwnerID:      ownerID,
		StartTime:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Response{}, ErrDuplicateResponse
		}
		return models.Response{}, err
	}
	return r, nil
}

// Complete stamps the end time. Completing twice returns
// ErrAlreadyCompleted; selections are stored alongside.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID, end time.Time, selections map[string][]primitive.ObjectID) error {
	set := bson.M{"end_time": end.UTC()}
	if len(selections) > 0 {
		set["selections"] = selections
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "end_time": bson.M{"$exists": false}},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrAlreadyCompleted
	}
	return nil
}

// ListByEvaluation returns every response of an evaluation, completed
// ones ordered by end time first.
func (s *Store) ListByEvaluation(ctx context.Context, evalID primitive.ObjectID) ([]models.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "end_time", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"evaluation_id": evalID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Response
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountCompleted returns the number of completed responses of an
// evaluation, optionally restricted to one group.
func (s *Store) CountCompleted(ctx context.Context, evalID primitive.ObjectID, groupID *primitive.ObjectID) (int64, error) {
	filter := bson.M{"evaluation_id": evalID, "end_time": bson.M{"$exists": true}}
	if groupID != nil {
		filter["group_id"] = *groupID
	}
	return s.c.CountDocuments(ctx, filter)
}

// DeleteByEvaluation removes all responses of an evaluation.
func (s *Store) DeleteByEvaluation(ctx context.Context, evalID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"evaluation_id": evalID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
