// internal/app/store/answers/answerstore.go
package answerstore

import (
	"context"
	"errors"

	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("answers")}
}

var errBothValues = errors.New("answer must not carry both a numeric index and text")

// Save inserts the answers of one response. Answers with a zero ID get a
// new one.
func (s *Store) Save(ctx context.Context, responseID, evalID primitive.ObjectID, answers []models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(answers))
	for _, a := range answers {
		if a.NumericIndex != nil && a.Text != nil {
			return errBothValues
		}
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		a.ResponseID = responseID
		a.EvaluationID = evalID
		docs = append(docs, a)
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// ListByEvaluation returns every answer of an evaluation ordered by
// response and item.
func (s *Store) ListByEvaluation(ctx context.Context, evalID primitive.ObjectID) ([]models.Answer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "response_id", Value: 1}, {Key: "template_item_id", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"evaluation_id": evalID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Answer
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByResponse removes the answers of one response, used when a
// respondent edits a submission that allows modification.
func (s *Store) DeleteByResponse(ctx context.Context, responseID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"response_id": responseID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
