// Package server provides the HTTP server for the endpoint collector
// control plane.
//
// The server uses the Gin web framework, with a dev/prod mode switch
// (spec §6.4: exit 0 on clean shutdown, non-zero on failure to start).
// TLS certificate generation is out of scope (spec §1) — a reverse
// proxy or externally supplied certificate terminates TLS in
// production.
//
// # Middleware
//
// Every route carries:
//
//   - ginzap.Ginzap: structured request/response logging via zap
//   - ginzap.RecoveryWithZap: panic recovery with a logged stack trace
//
// # Routes
//
//	GET  /healthz                   → "Healthy" (spec §6.4)
//	POST /api/agent/register        (internal/handlers)
//	POST /api/agent/heartbeat
//	POST /api/agent/command-result
//	/api/v1/*                       → operator-facing host/config/job/
//	                                   schedule/noise/audit CRUD and actions
//
// # Lifecycle
//
//	srv := server.New(cfg.Server, func(r *gin.Engine) {
//	    handlers.RegisterAgentRoutes(r, agentHandler)
//	    handlers.RegisterOperatorRoutes(r, operatorHandler)
//	})
//
//	go func() {
//	    if err := srv.Start(); err != nil {
//	        log.Fatal(err)
//	    }
//	}()
//
//	<-shutdownCh
//	srv.Stop(ctx) // graceful, bounded by cfg.Server.ShutdownTimeout
package server
