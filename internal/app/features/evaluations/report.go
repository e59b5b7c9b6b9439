// internal/app/features/evaluations/report.go
package evaluations

import (
	"net/http"
	"time"

	"github.com/dalemusser/evalhub/internal/app/policy/resultpolicy"
	"github.com/dalemusser/evalhub/internal/app/system/evalmetrics"
	"github.com/dalemusser/evalhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/evalhub/internal/app/system/reporting"
	"github.com/dalemusser/evalhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type withheldResponse struct {
	Error    string                `json:"error"`
	Decision resultpolicy.Decision `json:"decision"`
}

// groupScope parses repeated ?group=<hex> parameters. No parameter means
// every assigned group.
func groupScope(r *http.Request) ([]primitive.ObjectID, bool) {
	raw := r.URL.Query()["group"]
	if len(raw) == 0 {
		return nil, true
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		oid, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, false
		}
		ids = append(ids, oid)
	}
	return ids, true
}

// ServeReport handles GET /evaluations/{id}/report.
//
// The report is built only when the viewer may see results; otherwise the
// response is 403 with the decision that withheld them.
func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	id, ok := evalID(w, r)
	if !ok {
		return
	}
	groups, ok := groupScope(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Report(), h.Log, "build report")
	defer cancel()

	start := time.Now()
	eng, err := h.load(ctx, id)
	if err != nil {
		evalmetrics.ObserveReport(time.Since(start), 0, err)
		h.fail(w, "build report", id, err)
		return
	}

	now := h.now()
	role := viewerRole(r)
	if d := eng.gate.Decide(eng.ev, role, now); !d.Visible {
		writeJSON(w, http.StatusForbidden, withheldResponse{Error: "results are not available", Decision: d})
		return
	}

	asm := reporting.NewAssembler(eng.snap, eng.agg, eng.assign, h.Log)
	asm.Now = func() time.Time { return now }
	rep, err := asm.BuildReport(id, groups)
	evalmetrics.ObserveReport(time.Since(start), len(rep.Skipped), err)
	if err != nil {
		h.fail(w, "build report", id, err)
		return
	}

	sanitizeReport(&rep)
	h.Log.Debug("report built",
		zap.String("evaluation_id", id.Hex()),
		zap.String("build_id", rep.BuildID),
		zap.String("role", role),
		zap.Int("completed", rep.Completed),
		zap.Int("skipped", len(rep.Skipped)))
	writeJSON(w, http.StatusOK, rep)
}

// sanitizeReport cleans author-supplied item text. Essay answers are
// already plain text when they leave the aggregator.
func sanitizeReport(rep *reporting.Report) {
	rep.Title = htmlsanitize.StripTags(rep.Title)
	for ci := range rep.Categories {
		items := rep.Categories[ci].Items
		for i := range items {
			it := &items[i]
			it.Text = htmlsanitize.Sanitize(it.Text)
			sanitizeChildren(it.Children)
			for j := range it.PerEvaluatee {
				sanitizeChildren(it.PerEvaluatee[j].Children)
			}
		}
	}
}

func sanitizeChildren(children []reporting.ChildReport) {
	for i := range children {
		children[i].Text = htmlsanitize.Sanitize(children[i].Text)
	}
}
