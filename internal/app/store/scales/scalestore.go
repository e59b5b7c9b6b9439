// internal/app/store/scales/scalestore.go
package scalestore

import (
	"context"
	"errors"

	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("scales")}
}

var errNoOptions = errors.New("scale needs at least one option")

func (s *Store) Create(ctx context.Context, sc models.Scale) (models.Scale, error) {
	if len(sc.Options) == 0 {
		return models.Scale{}, errNoOptions
	}
	if sc.ID.IsZero() {
		sc.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, sc); err != nil {
		return models.Scale{}, err
	}
	return sc, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Scale, error) {
	var sc models.Scale
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sc); err != nil {
		return models.Scale{}, err
	}
	return sc, nil
}

// ByIDs returns the scales with the given IDs. Missing IDs are simply
// absent from the result.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Scale, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Scale
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
