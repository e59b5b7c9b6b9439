// internal/app/store/hierarchy/hierarchystore.go
package hierarchystore

import (
	"context"

	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the hierarchy_nodes collection, a mirror of the
// external institution tree. Each node points at its parent.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("hierarchy_nodes")}
}

// Upsert inserts or replaces a node. Sync jobs call it for every node they
// receive from the directory.
func (s *Store) Upsert(ctx context.Context, n models.HierarchyNode) error {
	if n.GroupIDs == nil {
		n.GroupIDs = []primitive.ObjectID{}
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": n.ID}, n, opts)
	return err
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.HierarchyNode, error) {
	var n models.HierarchyNode
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return models.HierarchyNode{}, err
	}
	return n, nil
}

// Subtrees returns the given roots together with all of their descendants.
// Each node appears once even when subtrees overlap.
func (s *Store) Subtrees(ctx context.Context, rootIDs []primitive.ObjectID) ([]models.HierarchyNode, error) {
	if len(rootIDs) == 0 {
		return nil, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$in": rootIDs}}}},
		{{Key: "$graphLookup", Value: bson.M{
			"from":             s.c.Name(),
			"startWith":        "$_id",
			"connectFromField": "_id",
			"connectToField":   "parent_id",
			"as":               "descendants",
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		models.HierarchyNode `bson:",inline"`
		Descendants          []models.HierarchyNode `bson:"descendants"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]bool)
	var out []models.HierarchyNode
	add := func(n models.HierarchyNode) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	for _, r := range rows {
		add(r.HierarchyNode)
		for _, d := range r.Descendants {
			add(d)
		}
	}
	return out, nil
}

// Delete removes a node. Children keep their parent pointer and become
// unreachable from the removed node's ancestors.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
