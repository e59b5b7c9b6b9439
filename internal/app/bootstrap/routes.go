// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	evaluationsfeature "github.com/dalemusser/evalhub/internal/app/features/evaluations"
	healthfeature "github.com/dalemusser/evalhub/internal/app/features/health"
	"github.com/dalemusser/evalhub/internal/app/system/evalmetrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. evalhub serves JSON only: the health
// check, the evaluation endpoints and, when enabled, Prometheus metrics.
// Callers are authenticated upstream and pass their role in X-Viewer-Role.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	evalHandler := evaluationsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/evaluations", evaluationsfeature.Routes(evalHandler))

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", evalmetrics.Handler())
	}

	return r, nil
}
