// internal/app/store/templateitems/templateitemstore.go
package templateitemstore

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
	return &Store{c: db.Collection("template_items")}
}

var errScaleRequired = errors.New("scaled and block parent items require a scale")

// Create inserts a template item. If ID is zero a new ObjectID is assigned.
func (s *Store) Create(ctx context.Context, it models.TemplateItem) (models.TemplateItem, error) {
	switch it.Classification {
	case models.ClassScaled, models.ClassBlockParent:
		if it.ScaleID == nil {
			return models.TemplateItem{}, errScaleRequired
		}
	}
	if it.ID.IsZero() {
		it.ID = primitive.NewObjectID()
	}
	if it.Category == "" {
		it.Category = models.CategoryCourse
	}
	if _, err := s.c.InsertOne(ctx, it); err != nil {
		return models.TemplateItem{}, err
	}
	return it, nil
}

// ListByTemplate returns the items of a template in display order.
func (s *Store) ListByTemplate(ctx context.Context, templateID primitive.ObjectID) ([]models.TemplateItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"template_id": templateID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.TemplateItem
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByTemplate removes all items of a template.
func (s *Store) DeleteByTemplate(ctx context.Context, templateID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"template_id": templateID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
