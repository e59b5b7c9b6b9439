// internal/app/features/evaluations/visibility.go
package evaluations

import (
	"net/http"

	"github.com/dalemusser/evalhub/internal/app/policy/resultpolicy"
	"github.com/dalemusser/evalhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type visibilityResponse struct {
	EvaluationID primitive.ObjectID `json:"evaluation_id"`
	Role         string             `json:"role"`
	resultpolicy.Decision
}

// ServeVisibility handles GET /evaluations/{id}/visibility. The viewer role
// comes from the X-Viewer-Role header; an absent or unknown role is
// answered with visible=false rather than an error.
func (h *Handler) ServeVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := evalID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Report(), h.Log, "visibility")
	defer cancel()

	eng, err := h.load(ctx, id)
	if err != nil {
		h.fail(w, "visibility", id, err)
		return
	}

	role := viewerRole(r)
	writeJSON(w, http.StatusOK, visibilityResponse{
		EvaluationID: id,
		Role:         role,
		Decision:     eng.gate.Decide(eng.ev, role, h.now()),
	})
}
