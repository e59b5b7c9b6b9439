// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	evaluationstore "github.com/dalemusser/evalhub/internal/app/store/evaluations"
	settingsstore "github.com/dalemusser/evalhub/internal/app/store/settings"
	"github.com/dalemusser/evalhub/internal/app/system/evalmetrics"
	"github.com/dalemusser/evalhub/internal/app/system/evalsettings"
	"github.com/dalemusser/evalhub/internal/app/system/evalstate"
	"github.com/dalemusser/evalhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.PingTimeout,
		Short:  appCfg.ShortTimeout,
		Report: appCfg.ReportTimeout,
	})

	if err := seedSettings(ctx, deps, appCfg, logger); err != nil {
		return err
	}

	// Stale memos are harmless (state is always recomputed) but keep
	// listings that filter on the stored field honest.
	if _, err := fixStaleStates(ctx, deps, time.Now(), logger); err != nil {
		logger.Warn("state memo sweep failed", zap.Error(err))
	}
	return nil
}

// seedSettings writes the settings document from app config when none
// exists yet. An existing document is left untouched.
func seedSettings(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	defaults := evalsettings.Settings{
		ResponsesRequiredToViewResults: appCfg.ResponsesRequiredToView,
		BlankResponsesAllowed:          appCfg.BlankResponsesAllowed,
		StudentViewDateEnabled:         appCfg.StudentViewDateEnabled,
		InstructorViewDateEnabled:      appCfg.InstructorViewDateEnabled,
	}

	seeded, err := settingsstore.New(deps.MongoDatabase).Seed(ctx, defaults.Document())
	if err != nil {
		logger.Error("seed evaluation settings failed", zap.Error(err))
		return err
	}
	if seeded {
		logger.Info("seeded evaluation settings",
			zap.Int("responses_required_to_view", defaults.ResponsesRequiredToViewResults),
			zap.Bool("blank_responses_allowed", defaults.BlankResponsesAllowed))
	}
	return nil
}

// fixStaleStates rewrites the state memo of every started evaluation whose
// memo disagrees with its dates. It returns how many were
// rewritten.
func fixStaleStates(ctx context.Context, deps DBDeps, now time.Time, logger *zap.Logger) (int, error) {
	store := evaluationstore.New(deps.MongoDatabase)
	started, err := store.ListStartedBy(ctx, now)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, ev := range started {
		state, changed := evalstate.Fix(ev, now)
		if !changed {
			continue
		}
		if err := store.SetState(ctx, ev.ID, state); err != nil {
			return fixed, err
		}
		evalmetrics.StateFixed()
		fixed++
	}
	if fixed > 0 {
		logger.Info("fixed stale evaluation states", zap.Int("count", fixed))
	}
	return fixed, nil
}
