// internal/domain/models/assignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment roles describe which participants of a bound group take part.
const (
	AssignRoleEvaluatee = "evaluatee"
	AssignRoleAssistant = "assistant"
	AssignRoleEvaluator = "evaluator"
)

// AssignGroup binds an evaluation to a group.
//
// NodeID is nil for a direct assignment. Rows with a NodeID were
// materialized from a hierarchy node and are superseded by live expansion
// of the node.
type AssignGroup struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	EvaluationID primitive.ObjectID  `bson:"evaluation_id" json:"evaluation_id"`
	GroupID      primitive.ObjectID  `bson:"group_id" json:"group_id"`
	NodeID       *primitive.ObjectID `bson:"node_id,omitempty" json:"node_id,omitempty"`
	Role         string              `bson:"role" json:"role"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}

// AssignHierarchyNode binds an evaluation to a node of the external
// hierarchy; every group under the node inherits the binding.
type AssignHierarchyNode struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EvaluationID primitive.ObjectID `bson:"evaluation_id" json:"evaluation_id"`
	NodeID       primitive.ObjectID `bson:"node_id" json:"node_id"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
