// internal/app/store/assignments/assignstore.go
package assignstore

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

// Store provides access to the evaluation assignment collections:
// eval_assign_groups (direct and materialized group rows) and
// eval_assign_nodes (hierarchy node bindings).
type Store struct {
	groups *mongo.Collection
	nodes  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		groups: db.Collection("eval_assign_groups"),
		nodes:  db.Collection("eval_assign_nodes"),
	}
}

var (
	ErrDuplicateAssignment = errors.New("group or node is already assigned to this evaluation")
	errBadRole             = errors.New(`role must be "evaluatee", "assistant" or "evaluator"`)
)

// stored order: insertion order, with _id as tie-breaker.
var byCreated = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

// AssignGroup binds a group directly to an evaluation. An empty role means
// evaluator.
func (s *Store) AssignGroup(ctx context.Context, evalID, groupID primitive.ObjectID, role string) (models.AssignGroup, error) {
	if role == "" {
		role = models.AssignRoleEvaluator
	}
	switch role {
	case models.AssignRoleEvaluatee, models.AssignRoleAssistant, models.AssignRoleEvaluator:
	default:
		return models.AssignGroup{}, errBadRole
	}

	ag := models.AssignGroup{
		ID:           primitive.NewObjectID(),
		EvaluationID: evalID,
		GroupID:      groupID,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.groups.InsertOne(ctx, ag); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AssignGroup{}, ErrDuplicateAssignment
		}
		return models.AssignGroup{}, err
	}
	return ag, nil
}

// AssignNode binds a hierarchy node to an evaluation.
func (s *Store) AssignNode(ctx context.Context, evalID, nodeID primitive.ObjectID) (models.AssignHierarchyNode, error) {
	an := models.AssignHierarchyNode{
		ID:           primitive.NewObjectID(),
		EvaluationID: evalID,
		NodeID:       nodeID,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.nodes.InsertOne(ctx, an); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AssignHierarchyNode{}, ErrDuplicateAssignment
		}
		return models.AssignHierarchyNode{}, err
	}
	return an, nil
}

// ListGroups returns the group rows of an evaluation in stored order,
// including rows materialized from hierarchy nodes.
func (s *Store) ListGroups(ctx context.Context, evalID primitive.ObjectID) ([]models.AssignGroup, error) {
	cur, err := s.groups.Find(ctx, bson.M{"evaluation_id": evalID}, byCreated)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.AssignGroup
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListNodes returns the hierarchy node bindings of an evaluation in stored
// order.
func (s *Store) ListNodes(ctx context.Context, evalID primitive.ObjectID) ([]models.AssignHierarchyNode, error) {
	cur, err := s.nodes.Find(ctx, bson.M{"evaluation_id": evalID}, byCreated)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.AssignHierarchyNode
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnassignGroup removes the direct binding of groupID. Materialized rows
// are untouched.
func (s *Store) UnassignGroup(ctx context.Context, evalID, groupID primitive.ObjectID) error {
	_, err := s.groups.DeleteOne(ctx, bson.M{
		"evaluation_id": evalID,
		"group_id":      groupID,
		"node_id":       bson.M{"$exists": false},
	})
	return err
}

// UnassignNode removes a node binding together with any group rows that
// were materialized from it.
func (s *Store) UnassignNode(ctx context.Context, evalID, nodeID primitive.ObjectID) error {
	if _, err := s.nodes.DeleteOne(ctx, bson.M{"evaluation_id": evalID, "node_id": nodeID}); err != nil {
		return err
	}
	_, err := s.groups.DeleteMany(ctx, bson.M{"evaluation_id": evalID, "node_id": nodeID})
	return err
}

// DeleteByEvaluation removes every assignment of an evaluation.
// Returns the number of documents deleted across both collections.
func (s *Store) DeleteByEvaluation(ctx context.Context, evalID primitive.ObjectID) (int64, error) {
	g, err := s.groups.DeleteMany(ctx, bson.M{"evaluation_id": evalID})
	if err != nil {
		return 0, err
	}
	n, err := s.nodes.DeleteMany(ctx, bson.M{"evaluation_id": evalID})
	if err != nil {
		return g.DeletedCount, err
	}
	return g.DeletedCount + n.DeletedCount, nil
}
