// internal/domain/models/evalsettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EvalSettings holds the global evaluation settings that admins can edit.
// There is a single document in the eval_settings collection.
//
// Pointer fields are required; a nil value means the setting was never
// configured and the core refuses to run.
type EvalSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	ResponsesRequiredToViewResults *int  `bson:"responses_required_to_view_results,omitempty" json:"responses_required_to_view_results,omitempty"`
	BlankResponsesAllowed          *bool `bson:"blank_responses_allowed,omitempty" json:"blank_responses_allowed,omitempty"`

	// Per-role view date overrides.
	StudentViewDateEnabled    bool `bson:"student_view_date_enabled" json:"student_view_date_enabled"`
	InstructorViewDateEnabled bool `bson:"instructor_view_date_enabled" json:"instructor_view_date_enabled"`

	UpdatedAt     *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}
