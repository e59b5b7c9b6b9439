// internal/domain/models/evaluation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Selection options control which instructors/assistants inside an assigned
// group are treated as evaluatees.
const (
	SelectionAll  = "all"  // every instructor/assistant in the group
	SelectionOne  = "one"  // respondents pick exactly one
	SelectionMany = "many" // respondents pick one or more
)

// Evaluation is a scheduled survey instance bound to a template and to one
// or more groups.
//
// NOTE:
//   - State is a memo of the last computed lifecycle state. It is never
//     authoritative; the state is always re-derived from the dates.
//   - A zero ID means the evaluation is still being authored.
type Evaluation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string             `bson:"title" json:"title"`
	OwnerID    primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	TemplateID primitive.ObjectID `bson:"template_id" json:"template_id"`

	StartDate time.Time  `bson:"start_date" json:"start_date"`
	DueDate   time.Time  `bson:"due_date" json:"due_date"`
	StopDate  *time.Time `bson:"stop_date,omitempty" json:"stop_date,omitempty"`
	ViewDate  *time.Time `bson:"view_date,omitempty" json:"view_date,omitempty"`

	// Per-role view dates; honored only when the matching global flag is on.
	StudentViewDate    *time.Time `bson:"student_view_date,omitempty" json:"student_view_date,omitempty"`
	InstructorViewDate *time.Time `bson:"instructor_view_date,omitempty" json:"instructor_view_date,omitempty"`

	ResultsPrivate         bool `bson:"results_private" json:"results_private"`
	ModifyResponsesAllowed bool `bson:"modify_responses_allowed" json:"modify_responses_allowed"`

	InstructorSelection string `bson:"instructor_selection,omitempty" json:"instructor_selection,omitempty"` // all | one | many
	AssistantSelection  string `bson:"assistant_selection,omitempty" json:"assistant_selection,omitempty"`   // all | one | many

	State string `bson:"state,omitempty" json:"state,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// SelectionFor returns the selection option for an evaluatee role,
// defaulting to SelectionAll when unset.
func (e *Evaluation) SelectionFor(role string) string {
	var v string
	switch role {
	case MemberRoleInstructor:
		v = e.InstructorSelection
	case MemberRoleAssistant:
		v = e.AssistantSelection
	}
	if v == "" {
		return SelectionAll
	}
	return v
}
