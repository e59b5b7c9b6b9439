package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// HierarchyNode is one node of the externally synchronized hierarchy tree
// (institution > department > course ...). GroupIDs are the groups attached
// directly to this node.
type HierarchyNode struct {
	ID       primitive.ObjectID   `bson:"_id" json:"id"`
	ParentID *primitive.ObjectID  `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Title    string               `bson:"title" json:"title"`
	GroupIDs []primitive.ObjectID `bson:"group_ids" json:"group_ids"`
}
