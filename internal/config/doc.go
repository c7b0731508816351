// Package config defines the configuration structure for the endpoint
// collector control plane.
//
// Configuration is organized into logical sections (Server, Agent,
// Dispatch, Store, Auth) and uses code generation via optgen to create
// functional option helpers.
//
// # Configuration Structure
//
//	Config
//	├── Server    - HTTP server settings
//	├── Agent     - Agent-protocol behavior (registration, polling, timeouts)
//	├── Dispatch  - Deployment dispatcher settings (push path)
//	├── Store     - Persistence settings
//	└── Auth      - Agent auth-token signing key
//
// # Code Generation
//
// The package uses optgen to generate functional option helpers:
//
//	//go:generate go run github.com/ecordell/optgen -output zz_generated.config.go . Config Server Agent Dispatch Store Auth
//
// Generated helpers include:
//
//   - NewConfigWithOptions(...ConfigOption) - Create with options
//   - NewConfigWithOptionsAndDefaults(...ConfigOption) - Create with defaults + options
//   - WithServer(Server), WithAgent(Agent), etc. - Set nested structs
//   - DebugMap() - Returns a map for debug logging (respects debugmap tags)
//
// # Usage Example
//
//	cfg := config.NewConfigWithOptionsAndDefaults(
//	    config.WithServer(config.Server{Mode: "prod", HTTPPort: 8443}),
//	    config.WithAgent(config.Agent{RegistrationToken: "...", RegistrationEnabled: true}),
//	    config.WithLogLevel("info"),
//	)
//
// # Debug Logging
//
// Fields tagged `debugmap:"hidden"` (RegistrationToken, JWTSigningKey)
// are omitted entirely from DebugMap(), never just masked:
//
//	log.Info("configuration loaded", zap.Any("config", cfg.DebugMap()))
package config
