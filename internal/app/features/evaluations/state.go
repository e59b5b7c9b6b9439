// internal/app/features/evaluations/state.go
package evaluations

import (
	"errors"
	"net/http"

	evaluationstore "github.com/dalemusser/evalhub/internal/app/store/evaluations"
	"github.com/dalemusser/evalhub/internal/app/system/evalerrors"
	"github.com/dalemusser/evalhub/internal/app/system/evalmetrics"
	"github.com/dalemusser/evalhub/internal/app/system/evalstate"
	"github.com/dalemusser/evalhub/internal/app/system/timeouts"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type warningJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type stateResponse struct {
	EvaluationID primitive.ObjectID `json:"evaluation_id"`
	State        string             `json:"state"`
	StoredState  string             `json:"stored_state,omitempty"`
	Stale        bool               `json:"stale"`
	Warnings     []warningJSON      `json:"warnings"`
}

type fixResponse struct {
	EvaluationID primitive.ObjectID `json:"evaluation_id"`
	State        string             `json:"state"`
	Changed      bool               `json:"changed"`
}

func (h *Handler) getEvaluation(r *http.Request, id primitive.ObjectID) (models.Evaluation, error) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get evaluation")
	defer cancel()

	ev, err := evaluationstore.New(h.DB).GetByID(ctx, id)
	if errors.Is(err, evaluationstore.ErrNotFound) {
		return ev, evalerrors.NotFound("evaluations.get", err, "evaluation %s", id.Hex())
	}
	return ev, err
}

// resolver logs date warnings and counts them by code.
func (h *Handler) resolver() *evalstate.Resolver {
	r := evalstate.NewResolver(h.Log)
	r.OnWarning = func(w evalstate.Warning) { evalmetrics.DateWarning(w.Code) }
	return r
}

// ServeState handles GET /evaluations/{id}/state.
//
// The state is always computed from the dates; stored_state is the memo on
// the document and stale reports whether it disagrees.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	id, ok := evalID(w, r)
	if !ok {
		return
	}
	ev, err := h.getEvaluation(r, id)
	if err != nil {
		h.fail(w, "get state", id, err)
		return
	}

	state, warnings := h.resolver().Resolve(ev, h.now())
	resp := stateResponse{
		EvaluationID: ev.ID,
		State:        state.String(),
		StoredState:  ev.State,
		Stale:        ev.State != state.String(),
		Warnings:     make([]warningJSON, 0, len(warnings)),
	}
	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, warningJSON{Code: w.Code, Message: w.Message})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ServeFixState handles POST /evaluations/{id}/state/fix. It rewrites the
// stored memo with the computed state; repeating the call is harmless.
func (h *Handler) ServeFixState(w http.ResponseWriter, r *http.Request) {
	id, ok := evalID(w, r)
	if !ok {
		return
	}
	ev, err := h.getEvaluation(r, id)
	if err != nil {
		h.fail(w, "fix state", id, err)
		return
	}

	now := h.now()
	h.resolver().Resolve(ev, now)
	state, changed := evalstate.Fix(ev, now)
	if changed {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "fix state")
		defer cancel()
		if err := evaluationstore.New(h.DB).SetState(ctx, id, state); err != nil {
			if errors.Is(err, evaluationstore.ErrNotFound) {
				err = evalerrors.NotFound("evaluations.fix", err, "evaluation %s", id.Hex())
			}
			h.fail(w, "fix state", id, err)
			return
		}
		evalmetrics.StateFixed()
		h.Log.Info("evaluation state fixed",
			zap.String("evaluation_id", id.Hex()),
			zap.String("from", ev.State),
			zap.String("to", state.String()))
	}

	writeJSON(w, http.StatusOK, fixResponse{EvaluationID: id, State: state.String(), Changed: changed})
}
