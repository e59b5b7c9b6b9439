// Package resultpolicy decides when aggregated results may be shown.
//
// Release rules:
//   - Results are released once enough responses are in: the completed
//     count reaches the configured threshold, or every enrolled student has
//     responded (skipped when enrollment is zero).
//   - Otherwise results are released when the evaluation reaches its view
//     date (state viewable).
//   - Owners and admins see released results immediately.
//   - Role-specific view dates, when enabled and set, hold results back
//     from that role until the date passes. They never release results the
//     base rule withholds.
//   - Private results are hidden from every non-owner role until its
//     role-specific view date passes; without such a date they stay hidden.
package resultpolicy

import (
	"strings"
	"time"

	"github.com/dalemusser/evalhub/internal/app/system/evalsettings"
	"github.com/dalemusser/evalhub/internal/app/system/evalstate"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Viewer roles.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleAssistant  = "assistant"
	RoleStudent    = "student"
)

// ValidRole reports whether role is a known viewer role.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleInstructor, RoleAssistant, RoleStudent:
		return true
	}
	return false
}

// NormalizeRole lowercases and trims a role name.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// Evaluations looks up an evaluation by ID.
type Evaluations interface {
	Evaluation(id primitive.ObjectID) (models.Evaluation, bool)
}

// Responses counts completed responses.
type Responses interface {
	CountCompletedResponses(evalID primitive.ObjectID, groupID *primitive.ObjectID) int
}

// Enrollment counts enrolled students.
type Enrollment interface {
	CountEnrollment(evalID primitive.ObjectID, groupID *primitive.ObjectID) int
}

// Reasons reported by Decide.
const (
	ReasonThreshold    = "response_threshold"
	ReasonFullResponse = "full_response"
	ReasonViewDate     = "view_date"
	ReasonWithheld     = "withheld"
	ReasonRoleDate     = "role_view_date_pending"
	ReasonPrivate      = "results_private"
	ReasonUnknownRole  = "unknown_role"
)

// Decision is the outcome of a visibility check with the inputs that
// produced it.
type Decision struct {
	Visible    bool   `json:"visible"`
	Reason     string `json:"reason"`
	State      string `json:"state"`
	Completed  int    `json:"completed"`
	Enrollment int    `json:"enrollment"`
	Required   int    `json:"required"`
	Needed     int    `json:"responses_needed"`
}

// Gate evaluates the release policy. Now defaults to time.Now and exists so
// callers and tests can pin the clock.
type Gate struct {
	Evals      Evaluations
	Responses  Responses
	Enrollment Enrollment
	Settings   evalsettings.Settings
	Now        func() time.Time
}

// NewGate constructs a Gate using the wall clock.
func NewGate(evals Evaluations, responses Responses, enrollment Enrollment, settings evalsettings.Settings) *Gate {
	return &Gate{Evals: evals, Responses: responses, Enrollment: enrollment, Settings: settings, Now: time.Now}
}

func (g *Gate) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// base reports whether results are released for everyone entitled to see
// them, and why.
func (g *Gate) base(ev models.Evaluation, now time.Time) (Decision, bool) {
	d := Decision{
		Completed:  g.Responses.CountCompletedResponses(ev.ID, nil),
		Enrollment: g.Enrollment.CountEnrollment(ev.ID, nil),
		Required:   g.Settings.ResponsesRequiredToViewResults,
	}
	state, _ := evalstate.Resolve(ev, now)
	d.State = state.String()

	switch {
	case d.Completed >= d.Required:
		d.Reason = ReasonThreshold
	case d.Enrollment > 0 && d.Completed >= d.Enrollment:
		d.Reason = ReasonFullResponse
	case state == models.StateViewable:
		d.Reason = ReasonViewDate
	default:
		d.Reason = ReasonWithheld
		if n := d.Required - d.Completed; n > 0 {
			d.Needed = n
		}
		return d, false
	}
	return d, true
}

// roleViewDate returns the role-specific view date that applies to role,
// or nil when none is enabled and set.
func (g *Gate) roleViewDate(ev models.Evaluation, role string) *time.Time {
	switch role {
	case RoleStudent:
		if g.Settings.StudentViewDateEnabled {
			return ev.StudentViewDate
		}
	case RoleInstructor, RoleAssistant:
		if g.Settings.InstructorViewDateEnabled {
			return ev.InstructorViewDate
		}
	}
	return nil
}

// Decide evaluates the policy for one viewer at now.
func (g *Gate) Decide(ev models.Evaluation, viewerRole string, now time.Time) Decision {
	role := NormalizeRole(viewerRole)
	d, released := g.base(ev, now)
	if !ValidRole(role) {
		d.Reason = ReasonUnknownRole
		return d
	}
	if !released {
		return d
	}

	if role == RoleOwner || role == RoleAdmin {
		d.Visible = true
		return d
	}

	date := g.roleViewDate(ev, role)
	switch {
	case date != nil && now.Before(*date):
		d.Reason = ReasonRoleDate
	case date == nil && ev.ResultsPrivate:
		d.Reason = ReasonPrivate
	default:
		d.Visible = true
	}
	return d
}

// IsResultsVisible reports whether a viewer with viewerRole may see the
// evaluation's results at now.
func (g *Gate) IsResultsVisible(ev models.Evaluation, viewerRole string, now time.Time) bool {
	return g.Decide(ev, viewerRole, now).Visible
}

// ResponsesNeededToView returns how many more completed responses would
// release the results, or 0 once any release condition holds.
func (g *Gate) ResponsesNeededToView(evalID primitive.ObjectID) int {
	ev, ok := g.Evals.Evaluation(evalID)
	if !ok {
		ev = models.Evaluation{ID: evalID}
	}
	d, _ := g.base(ev, g.now())
	return d.Needed
}
