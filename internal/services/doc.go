// Package services implements the business logic layer for the
// endpoint collector control plane.
//
// This package sits between internal/handlers and internal/store,
// giving each domain concern (agent protocol, dispatch, scanning,
// scheduling, noise analysis, audit) its own service with its own
// narrow dependencies, rather than one god object wrapping the store.
//
// # Service Dependency Graph
//
//	Handlers (HTTP endpoints)
//	    │
//	    ▼
//	Services Layer
//	    ├── AgentService ────► Store, ProgressBus, AuditService
//	    ├── Dispatcher ──────► Store, RemoteAdmin, FileTransfer, BinaryCache, ProgressBus
//	    ├── Scanner ─────────► Store, RemoteAdmin, pkg/scheduler
//	    ├── ScheduleEngine ──► Store, AuditService, Dispatcher
//	    ├── NoiseService ────► Store, RemoteAdmin, AuditService, internal/noise
//	    └── AuditService ────► Store
//
// # AgentService
//
// AgentService implements the three HTTPS operations an agent-managed
// endpoint collector calls: Register, Heartbeat, and CommandResult.
// It owns the adopt-by-hostname / reuse-token-on-re-registration
// semantics and mints the signed auth token every subsequent call must
// present.
//
// # Dispatcher
//
// Dispatcher runs a DeploymentJob's per-Host work with bounded
// parallelism, routing each Host to either the agent-managed
// command-queue path (enqueue a PendingCommand, then poll the Store
// until the agent reports a result or the deadline passes) or the
// agentless RemoteAdmin/FileTransfer path. Both paths converge on the
// same terminal-status bookkeeping: CompleteResult records a
// DeploymentResult's success flag and message, and once every target
// has reported, the Job itself moves to Completed or
// CompletedWithErrors.
//
// Usage:
//
//	dispatcher := services.NewDispatcher(store, remoteAdmin, fileTransfer, binaries, bus, timeouts)
//	go dispatcher.Dispatch(context.Background(), jobID)
//
// # Scanner
//
// Scanner refreshes Host.last_scan_status/last_scan_at across the
// fleet, using pkg/scheduler for bounded concurrency. It never probes
// an agent-managed Host remotely — those are judged purely by their
// last heartbeat.
//
// # ScheduleEngine
//
// ScheduleEngine promotes due ScheduledDeployments to DeploymentJobs on
// a fixed tick and hands each resulting Job to a Dispatcher, mirroring
// the ticker-driven run loop pattern used elsewhere in this codebase
// for periodic background work.
//
// Usage:
//
//	engine := services.NewScheduleEngine(store, audit, dispatcher)
//	go engine.Run(ctx)
//	// or, for a one-off manual tick:
//	err := engine.RunOnce(ctx)
//
// # NoiseService
//
// NoiseService acquires raw event samples (agentless RemoteAdmin probe,
// or an agent-managed QueryEvents command) and hands them to the pure
// internal/noise algorithms for scoring and exclusion-pack synthesis,
// then persists the resulting NoiseAnalysisRun/NoiseResult rows.
//
// # AuditService
//
// AuditService is a thin, stateless facade over the audit_entries
// table: every mutating operator action (config upload, deployment
// start/cancel, schedule create, noise analysis) is logged through it.
//
// # Thread Safety
//
// Dispatcher, Scanner, and ScheduleEngine coordinate goroutines via
// channels and context cancellation; none hold mutable state of their
// own beyond what the Store already serializes. AgentService,
// NoiseService, and AuditService are stateless beyond their
// dependencies and are safe for concurrent use by multiple handler
// goroutines.
package services
