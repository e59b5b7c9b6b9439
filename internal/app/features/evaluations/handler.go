// internal/app/features/evaluations/handler.go
package evaluations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/evalhub/internal/app/policy/resultpolicy"
	"github.com/dalemusser/evalhub/internal/app/store/queries/evalsnapshot"
	settingsstore "github.com/dalemusser/evalhub/internal/app/store/settings"
	"github.com/dalemusser/evalhub/internal/app/system/aggregate"
	"github.com/dalemusser/evalhub/internal/app/system/assignment"
	"github.com/dalemusser/evalhub/internal/app/system/evalerrors"
	"github.com/dalemusser/evalhub/internal/app/system/evalsettings"
	"github.com/dalemusser/evalhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ViewerRoleHeader carries the role the upstream portal already computed
// for the caller.
const ViewerRoleHeader = "X-Viewer-Role"

// Handler serves the evaluation state, visibility and report endpoints.
// Now defaults to time.Now; tests pin it.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
	Now func() time.Time
}

// NewHandler constructs an evaluations Handler bound to db.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{DB: db, Log: logger, Now: time.Now}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// engine is the per-request wiring of the core over one snapshot.
type engine struct {
	snap     *evalsnapshot.Snapshot
	ev       models.Evaluation
	settings evalsettings.Settings
	assign   *assignment.Resolver
	agg      *aggregate.Aggregator
	gate     *resultpolicy.Gate
}

func (h *Handler) load(ctx context.Context, evalID primitive.ObjectID) (*engine, error) {
	snap, err := evalsnapshot.Load(ctx, h.DB, evalID)
	if err != nil {
		return nil, err
	}
	doc, err := settingsstore.New(h.DB).Get(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := evalsettings.Resolve(doc)
	if err != nil {
		return nil, err
	}

	ev, _ := snap.Evaluation(evalID)
	assign := assignment.NewResolver(snap, snap)
	agg := aggregate.New(snap, assign, settings, h.Log)
	gate := resultpolicy.NewGate(snap, agg, assign, settings)
	gate.Now = h.now

	return &engine{
		snap:     snap,
		ev:       ev,
		settings: settings,
		assign:   assign,
		agg:      agg,
		gate:     gate,
	}, nil
}

// evalID parses the {id} URL parameter, writing a 400 on failure.
func evalID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid evaluation id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func viewerRole(r *http.Request) string {
	return resultpolicy.NormalizeRole(r.Header.Get(ViewerRoleHeader))
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps a core or store error onto a JSON error response.
func (h *Handler) fail(w http.ResponseWriter, op string, evalID primitive.ObjectID, err error) {
	kind := evalerrors.KindOf(err)
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case kind == evalerrors.KindNotFound:
		status, msg = http.StatusNotFound, "evaluation not found"
	case kind == evalerrors.KindIntegrity:
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case kind == evalerrors.KindConfig:
		msg = "evaluation settings are not configured"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "request timed out"
	}

	fields := []zap.Field{zap.String("evaluation_id", evalID.Hex()), zap.Error(err)}
	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		h.Log.Error(op+" failed", fields...)
	} else {
		h.Log.Debug(op+" failed", fields...)
	}

	resp := errorResponse{Error: msg}
	if kind != 0 {
		resp.Kind = kind.String()
	}
	writeJSON(w, status, resp)
}
