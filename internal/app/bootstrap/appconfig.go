// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything specific
// to evalhub lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI            string        // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase       string        // Database name within MongoDB
	MongoMaxPoolSize    uint64        // Max connections in the driver pool
	MongoMinPoolSize    uint64        // Connections kept warm in the pool
	MongoConnectTimeout time.Duration // Bound on the initial connect + ping

	// Evaluation settings used to seed the settings document on first start.
	// Once the document exists it is authoritative and these are ignored.
	ResponsesRequiredToView   int  // Completed responses that release results early
	BlankResponsesAllowed     bool // Respondents may skip items; blank essays are dropped
	StudentViewDateEnabled    bool // Honor per-evaluation student view dates
	InstructorViewDateEnabled bool // Honor per-evaluation instructor view dates

	// Handler timeouts
	PingTimeout   time.Duration // Health-check ping
	ShortTimeout  time.Duration // Single-document reads and writes
	ReportTimeout time.Duration // Snapshot load + report build

	// MetricsEnabled mounts the Prometheus handler at /metrics.
	MetricsEnabled bool
}
