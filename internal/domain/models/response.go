// internal/domain/models/response.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Response is one participant's submission for an evaluation in one group.
// EndTime is nil while the response is in progress.
type Response struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EvaluationID primitive.ObjectID `bson:"evaluation_id" json:"evaluation_id"`
	GroupID      primitive.ObjectID `bson:"group_id" json:"group_id"`
	OwnerID      primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	StartTime time.Time  `bson:"start_time" json:"start_time"`
	EndTime   *time.Time `bson:"end_time,omitempty" json:"end_time,omitempty"`

	// Selections holds the evaluatees a respondent picked, keyed by
	// membership role ("instructor", "assistant"). Only used when the
	// evaluation selection option is one/many.
	Selections map[string][]primitive.ObjectID `bson:"selections,omitempty" json:"selections,omitempty"`
}

// Completed reports whether the response has been submitted.
func (r Response) Completed() bool {
	return r.EndTime != nil
}

// Answer is one item's recorded value inside a response.
//
// Scaled items carry NumericIndex, essay items carry Text. AssociatedID is
// the evaluatee an instructor-category answer is about.
type Answer struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ResponseID     primitive.ObjectID  `bson:"response_id" json:"response_id"`
	EvaluationID   primitive.ObjectID  `bson:"evaluation_id" json:"evaluation_id"`
	TemplateItemID primitive.ObjectID  `bson:"template_item_id" json:"template_item_id"`
	NumericIndex   *int                `bson:"numeric_index,omitempty" json:"numeric_index,omitempty"`
	Text           *string             `bson:"text,omitempty" json:"text,omitempty"`
	AssociatedID   *primitive.ObjectID `bson:"associated_id,omitempty" json:"associated_id,omitempty"`
	NA             bool                `bson:"na" json:"na"`
}
