// Package config defines the configuration structure for the endpoint
// collector control plane.
//
// Configuration is organized into logical sections (Server, Agent,
// Dispatch, Store, Auth) and uses code generation via optgen to create
// functional option helpers.
//
//go:generate go run github.com/ecordell/optgen -output zz_generated.config.go . Config Server Agent Dispatch Store Auth
package config

import "time"

// Config is the top-level, read-mostly options snapshot the core
// consumes (spec §6.2): runtime parameters are supplied externally and
// never mutated after load.
type Config struct {
	Server   Server   `debugmap:"visible"`
	Agent    Agent    `debugmap:"visible"`
	Dispatch Dispatch `debugmap:"visible"`
	Store    Store    `debugmap:"visible"`
	Auth     Auth     `debugmap:"visible"`

	LogFormat string `default:"console" debugmap:"visible"`
	LogLevel  string `default:"info" debugmap:"visible"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Mode            string        `default:"dev" debugmap:"visible"`
	HTTPPort        int           `default:"8443" debugmap:"visible"`
	ShutdownTimeout time.Duration `default:"10s" debugmap:"visible"`
}

// Agent holds agent-protocol settings (spec §4.1, §6.1).
type Agent struct {
	RegistrationToken    string        `debugmap:"hidden"`
	RegistrationEnabled  bool          `default:"true" debugmap:"visible"`
	DefaultPollInterval  time.Duration `default:"30s" debugmap:"visible"`
	MinPollInterval      time.Duration `default:"10s" debugmap:"visible"`
	MaxPollInterval      time.Duration `default:"300s" debugmap:"visible"`
	CommandTimeout       time.Duration `default:"120s" debugmap:"visible"`

	// QueryEventsTimeoutEventViewer bounds an interactive event-viewer
	// QueryEvents request; QueryEventsTimeoutNoiseAnalysis bounds the
	// longer noise-analysis sweep (spec §5).
	QueryEventsTimeoutEventViewer   time.Duration `default:"60s" debugmap:"visible"`
	QueryEventsTimeoutNoiseAnalysis time.Duration `default:"120s" debugmap:"visible"`
}

// Dispatch holds deployment-dispatcher settings (spec §4.4, §5).
type Dispatch struct {
	RemoteWorkingDir string `default:"C:\\Windows\\Temp\\sysmonctl" debugmap:"visible"`
	BinaryCacheDir   string `debugmap:"visible"`
	DownloadURL      string `debugmap:"visible"`
}

// Store holds the persistence settings.
type Store struct {
	DataFile string `default:":memory:" debugmap:"visible"`
}

// Auth holds the signing key for minted agent auth tokens (spec §4.C).
type Auth struct {
	JWTSigningKey string `debugmap:"hidden"`
}
