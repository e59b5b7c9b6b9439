// Package evalsettings resolves the global evaluation settings into one
// strongly-typed value.
//
// Settings are resolved once (per request or per process) and passed
// explicitly to the aggregator, visibility gate and report assembler.
// Nothing in the core reads settings from ambient state.
package evalsettings

import (
	"github.com/dalemusser/evalhub/internal/app/system/evalerrors"
	"github.com/dalemusser/evalhub/internal/domain/models"
)

// Settings is the resolved, validated configuration the core runs with.
type Settings struct {
	// ResponsesRequiredToViewResults is the completed-response count at
	// which results are released regardless of the view date.
	ResponsesRequiredToViewResults int

	// BlankResponsesAllowed means respondents may leave items empty; blank
	// essay answers are then treated as skips and dropped from reports.
	BlankResponsesAllowed bool

	StudentViewDateEnabled    bool
	InstructorViewDateEnabled bool
}

// Resolve validates a stored settings document. Missing required values or
// a negative threshold produce a configuration error.
func Resolve(doc models.EvalSettings) (Settings, error) {
	const op = "evalsettings.Resolve"

	if doc.ResponsesRequiredToViewResults == nil {
		return Settings{}, evalerrors.Config(op, "responses_required_to_view_results is not set")
	}
	if doc.BlankResponsesAllowed == nil {
		return Settings{}, evalerrors.Config(op, "blank_responses_allowed is not set")
	}
	if *doc.ResponsesRequiredToViewResults < 0 {
		return Settings{}, evalerrors.Config(op, "responses_required_to_view_results must be >= 0, got %d",
			*doc.ResponsesRequiredToViewResults)
	}

	return Settings{
		ResponsesRequiredToViewResults: *doc.ResponsesRequiredToViewResults,
		BlankResponsesAllowed:          *doc.BlankResponsesAllowed,
		StudentViewDateEnabled:         doc.StudentViewDateEnabled,
		InstructorViewDateEnabled:      doc.InstructorViewDateEnabled,
	}, nil
}

// Document converts resolved settings back into a storable document.
// Used to seed the settings collection from app config.
func (s Settings) Document() models.EvalSettings {
	required := s.ResponsesRequiredToViewResults
	blank := s.BlankResponsesAllowed
	return models.EvalSettings{
		ResponsesRequiredToViewResults: &required,
		BlankResponsesAllowed:          &blank,
		StudentViewDateEnabled:         s.StudentViewDateEnabled,
		InstructorViewDateEnabled:      s.InstructorViewDateEnabled,
	}
}
