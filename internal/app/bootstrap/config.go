// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for evalhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, responses_required_to_view, etc.
//   - Environment variables: EVALHUB_MONGO_URI, EVALHUB_REPORT_TIMEOUT, etc.
//   - Command-line flags: --mongo_uri, --report_timeout, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "evalhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "mongo_connect_timeout", Default: "10s", Desc: "MongoDB connect + ping timeout"},

	// Evaluation settings (seed values)
	{Name: "responses_required_to_view", Default: 5, Desc: "Completed responses that release results before the view date"},
	{Name: "blank_responses_allowed", Default: true, Desc: "Allow blank answers; blank essays are dropped from reports"},
	{Name: "student_view_date_enabled", Default: false, Desc: "Honor per-evaluation student view dates"},
	{Name: "instructor_view_date_enabled", Default: false, Desc: "Honor per-evaluation instructor view dates"},

	// Timeouts
	{Name: "ping_timeout", Default: "2s", Desc: "Health-check ping timeout"},
	{Name: "short_timeout", Default: "5s", Desc: "Single-document operation timeout"},
	{Name: "report_timeout", Default: "30s", Desc: "Report build timeout"},

	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, EVALHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "EVALHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:            appValues.String("mongo_uri"),
		MongoDatabase:       appValues.String("mongo_database"),
		MongoMaxPoolSize:    uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:    uint64(appValues.Int("mongo_min_pool_size")),
		MongoConnectTimeout: appValues.Duration("mongo_connect_timeout", 10*time.Second),

		ResponsesRequiredToView:   appValues.Int("responses_required_to_view"),
		BlankResponsesAllowed:     appValues.Bool("blank_responses_allowed"),
		StudentViewDateEnabled:    appValues.Bool("student_view_date_enabled"),
		InstructorViewDateEnabled: appValues.Bool("instructor_view_date_enabled"),

		PingTimeout:   appValues.Duration("ping_timeout", 2*time.Second),
		ShortTimeout:  appValues.Duration("short_timeout", 5*time.Second),
		ReportTimeout: appValues.Duration("report_timeout", 30*time.Second),

		MetricsEnabled: appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection attempt, and the
// evaluation seed settings must be usable as-is.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.ResponsesRequiredToView < 0 {
		return fmt.Errorf("responses_required_to_view must be >= 0, got %d", appCfg.ResponsesRequiredToView)
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	return nil
}
