// Package store implements the control plane's data access layer.
//
// It persists the entities of spec §3 in DuckDB, fronted by a Store
// facade that exposes one sub-store per entity family.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         Store (facade)                        │
//	├──────────┬──────────┬────────┬──────────┬──────────┬──────────┤
//	│  Hosts   │ Configs  │  Jobs  │ Commands │Schedules │  Noise   │
//	│          │          │        │          │          │  Audit   │
//	└──────────┴──────────┴────────┴──────────┴──────────┴──────────┘
//
// All writes go through Store.withTx, which serializes transactions
// behind a single mutex — the safety margin the single-writer-per-row
// mutability policy of spec §5 calls for, on top of a single-connection
// DuckDB pool.
//
// # Schema
//
// Tables are created by ordered migrations (internal/store/migrations),
// applied once at startup and idempotent on every subsequent call:
//
//	hosts, configs, deployment_jobs, deployment_results,
//	pending_commands, scheduled_deployments, scheduled_deployment_targets,
//	noise_analysis_runs, noise_results, audit_entries, schema_migrations
//
// # Functional list options
//
// HostStore.List uses the same functional-options pattern as the rest
// of this family of codebases: each ListOption narrows a
// squirrel.SelectBuilder, and options compose:
//
//	hosts, err := store.Hosts().List(ctx,
//	    store.ByAgentManaged(true),
//	    store.ByScanStatus(models.ScanStatusOnline),
//	    store.WithSort([]store.SortParam{{Field: "hostname"}}),
//	    store.WithLimit(50),
//	)
//
// # Arena+index relationships
//
// Entities reference each other by integer id (DeploymentResult.job_ref
// / host_ref, PendingCommand.host_ref / deployment_job_ref, …) rather
// than embedding pointers, avoiding the reference cycles a naive object
// graph would create between Host, DeploymentJob, DeploymentResult and
// PendingCommand (Design Notes §9).
package store
