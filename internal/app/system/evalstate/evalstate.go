// Package evalstate derives an evaluation's lifecycle state from its dates.
//
// The state is never read from storage. Resolve treats the configured dates
// as ordered checkpoints and returns the highest checkpoint already passed:
//
//	start -> ACTIVE
//	due   -> GRACEPERIOD when a stop date later than the due date exists,
//	         CLOSED otherwise
//	stop  -> CLOSED
//	view  -> VIEWABLE
//
// No checkpoint passed means INQUEUE. An evaluation without an ID is still
// being authored and is PARTIAL regardless of the clock. DUE is part of the
// order (so threshold checks like IsAtOrAfter(s, DUE) work) but is never
// resolved on its own: passing the due date lands in GRACEPERIOD or CLOSED.
//
// Inconsistent dates are reported as warnings; resolution still proceeds
// deterministically.
package evalstate

import (
	"time"

	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.uber.org/zap"
)

// Warning describes a non-fatal date inconsistency.
type Warning struct {
	Code    string
	Message string
}

// Warning codes.
const (
	WarnDueBeforeStart  = "due_before_start"
	WarnStopBeforeDue   = "stop_before_due"
	WarnViewBeforeClose = "view_before_close"
)

type checkpoint struct {
	at    time.Time
	state models.EvalState
}

func checkpoints(ev models.Evaluation) []checkpoint {
	dueState := models.StateClosed
	if ev.StopDate != nil && ev.StopDate.After(ev.DueDate) {
		dueState = models.StateGracePeriod
	}

	cps := []checkpoint{
		{at: ev.StartDate, state: models.StateActive},
		{at: ev.DueDate, state: dueState},
	}
	if ev.StopDate != nil {
		cps = append(cps, checkpoint{at: *ev.StopDate, state: models.StateClosed})
	}
	if ev.ViewDate != nil {
		cps = append(cps, checkpoint{at: *ev.ViewDate, state: models.StateViewable})
	}
	return cps
}

// Resolve returns the lifecycle state at now together with any date
// warnings. It never fails.
func Resolve(ev models.Evaluation, now time.Time) (models.EvalState, []Warning) {
	warnings := Check(ev)
	if ev.ID.IsZero() {
		return models.StatePartial, warnings
	}

	state := models.StateInQueue
	for _, cp := range checkpoints(ev) {
		if !now.Before(cp.at) && cp.state > state {
			state = cp.state
		}
	}
	return state, warnings
}

// Check reports date inconsistencies without resolving a state.
func Check(ev models.Evaluation) []Warning {
	var out []Warning
	if ev.DueDate.Before(ev.StartDate) {
		out = append(out, Warning{
			Code:    WarnDueBeforeStart,
			Message: "due date " + ev.DueDate.Format(time.RFC3339) + " is before start date " + ev.StartDate.Format(time.RFC3339),
		})
	}

	closeAt := ev.DueDate
	if ev.StopDate != nil {
		if ev.StopDate.Before(ev.DueDate) {
			out = append(out, Warning{
				Code:    WarnStopBeforeDue,
				Message: "stop date " + ev.StopDate.Format(time.RFC3339) + " is before due date " + ev.DueDate.Format(time.RFC3339),
			})
		} else {
			closeAt = *ev.StopDate
		}
	}
	if ev.ViewDate != nil && ev.ViewDate.Before(closeAt) {
		out = append(out, Warning{
			Code:    WarnViewBeforeClose,
			Message: "view date " + ev.ViewDate.Format(time.RFC3339) + " is before the evaluation closes at " + closeAt.Format(time.RFC3339),
		})
	}
	return out
}

// IsAtOrAfter reports whether state has reached threshold. With inclusive
// false the state must be strictly past the threshold.
func IsAtOrAfter(state, threshold models.EvalState, inclusive bool) bool {
	if inclusive {
		return state >= threshold
	}
	return state > threshold
}

// Fix recomputes the memoized state for ev. It returns the state to store
// and whether it differs from the memo currently on ev. Writing the result
// is idempotent: the value depends only on the dates and the clock.
func Fix(ev models.Evaluation, now time.Time) (models.EvalState, bool) {
	state, _ := Resolve(ev, now)
	return state, ev.State != state.String()
}

// Resolver wraps Resolve with warning logging.
type Resolver struct {
	Log *zap.Logger
	// OnWarning, when set, is called for each warning after it is logged.
	OnWarning func(Warning)
}

// NewResolver constructs a Resolver. A nil logger discards warnings.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{Log: logger}
}

// Resolve resolves ev at now, logs each configuration warning and hands it
// to OnWarning.
func (r *Resolver) Resolve(ev models.Evaluation, now time.Time) (models.EvalState, []Warning) {
	state, warnings := Resolve(ev, now)
	for _, w := range warnings {
		r.Log.Warn("evaluation date configuration",
			zap.String("evaluation_id", ev.ID.Hex()),
			zap.String("code", w.Code),
			zap.String("detail", w.Message),
			zap.String("resolved_state", state.String()))
		if r.OnWarning != nil {
			r.OnWarning(w)
		}
	}
	return state, warnings
}

// State is Resolve without the warnings.
func (r *Resolver) State(ev models.Evaluation, now time.Time) models.EvalState {
	state, _ := r.Resolve(ev, now)
	return state
}
