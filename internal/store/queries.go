package store

// Host queries
const (
	queryGetHostByID = `
		SELECT id, hostname, directory_dn, os, last_seen, collector_version,
		       collector_path, config_hash, config_tag, last_scan_at, last_scan_status,
		       is_agent_managed, agent_id, agent_auth_token, agent_version,
		       agent_last_heartbeat, agent_tags
		FROM hosts WHERE id = ?`

	queryGetHostByHostname = `
		SELECT id, hostname, directory_dn, os, last_seen, collector_version,
		       collector_path, config_hash, config_tag, last_scan_at, last_scan_status,
		       is_agent_managed, agent_id, agent_auth_token, agent_version,
		       agent_last_heartbeat, agent_tags
		FROM hosts WHERE LOWER(hostname) = LOWER(?)`

	queryGetHostByAgentID = `
		SELECT id, hostname, directory_dn, os, last_seen, collector_version,
		       collector_path, config_hash, config_tag, last_scan_at, last_scan_status,
		       is_agent_managed, agent_id, agent_auth_token, agent_version,
		       agent_last_heartbeat, agent_tags
		FROM hosts WHERE agent_id = ?`

	queryInsertHost = `
		INSERT INTO hosts (
			id, hostname, directory_dn, os, last_seen, collector_version,
			collector_path, config_hash, config_tag, last_scan_at, last_scan_status,
			is_agent_managed, agent_id, agent_auth_token, agent_version,
			agent_last_heartbeat, agent_tags
		) VALUES (nextval('hosts_id_seq'), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	queryUpdateHost = `
		UPDATE hosts SET
			hostname = ?, directory_dn = ?, os = ?, last_seen = ?, collector_version = ?,
			collector_path = ?, config_hash = ?, config_tag = ?, last_scan_at = ?, last_scan_status = ?,
			is_agent_managed = ?, agent_id = ?, agent_auth_token = ?, agent_version = ?,
			agent_last_heartbeat = ?, agent_tags = ?
		WHERE id = ?`
)

// Config queries
const (
	queryInsertConfig = `
		INSERT INTO configs (
			id, filename, content_bytes, content_hash, tag, is_valid,
			validation_message, source_url, uploaded_at, uploaded_by
		) VALUES (nextval('configs_id_seq'), ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	queryGetConfigByID = `
		SELECT id, filename, content_bytes, content_hash, tag, is_valid,
		       validation_message, source_url, uploaded_at, uploaded_by
		FROM configs WHERE id = ?`

	queryGetConfigByHash = `
		SELECT id, filename, content_bytes, content_hash, tag, is_valid,
		       validation_message, source_url, uploaded_at, uploaded_by
		FROM configs WHERE content_hash = ? ORDER BY uploaded_at DESC LIMIT 1`
)

// DeploymentJob / DeploymentResult queries
const (
	queryInsertJob = `
		INSERT INTO deployment_jobs (id, operation, config_ref, started_by, started_at, completed_at, status)
		VALUES (nextval('deployment_jobs_id_seq'), ?, ?, ?, ?, ?, ?)
		RETURNING id`

	queryGetJobByID = `
		SELECT id, operation, config_ref, started_by, started_at, completed_at, status
		FROM deployment_jobs WHERE id = ?`

	queryUpdateJobStatus = `
		UPDATE deployment_jobs SET status = ?, completed_at = ? WHERE id = ?`

	queryInsertResult = `
		INSERT INTO deployment_results (job_ref, host_ref, success, message, completed_at)
		VALUES (?, ?, ?, ?, ?)`

	queryUpdateResult = `
		UPDATE deployment_results SET success = ?, message = ?, completed_at = ?
		WHERE job_ref = ? AND host_ref = ?`

	queryListResultsForJob = `
		SELECT job_ref, host_ref, success, message, completed_at
		FROM deployment_results WHERE job_ref = ?`

	queryCountPendingResultsForJob = `
		SELECT COUNT(*) FROM deployment_results WHERE job_ref = ? AND completed_at IS NULL`
)

// PendingCommand queries
const (
	queryInsertCommand = `
		INSERT INTO pending_commands (
			id, command_id, host_ref, type, payload_bytes, created_at,
			initiated_by, deployment_job_ref
		) VALUES (nextval('pending_commands_id_seq'), ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	queryGetCommandByCommandID = `
		SELECT id, command_id, host_ref, type, payload_bytes, created_at, sent_at,
		       completed_at, result_status, result_message, result_payload,
		       initiated_by, deployment_job_ref
		FROM pending_commands WHERE command_id = ?`

	queryClaimDueCommandsFor = `
		SELECT id, command_id, host_ref, type, payload_bytes, created_at, sent_at,
		       completed_at, result_status, result_message, result_payload,
		       initiated_by, deployment_job_ref
		FROM pending_commands
		WHERE host_ref = ? AND sent_at IS NULL
		ORDER BY created_at ASC`

	queryMarkCommandSent = `
		UPDATE pending_commands SET sent_at = ? WHERE id = ?`

	queryCompleteCommand = `
		UPDATE pending_commands SET completed_at = ?, result_status = ?, result_message = ?, result_payload = ?
		WHERE id = ?`
)

// ScheduledDeployment queries
const (
	queryInsertSchedule = `
		INSERT INTO scheduled_deployments (id, operation, config_ref, scheduled_at, created_by, created_at, status, deployment_job_ref)
		VALUES (nextval('scheduled_deployments_id_seq'), ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	queryInsertScheduleTarget = `
		INSERT INTO scheduled_deployment_targets (schedule_ref, host_ref) VALUES (?, ?)`

	queryListDueSchedules = `
		SELECT id, operation, config_ref, scheduled_at, created_by, created_at, status, deployment_job_ref
		FROM scheduled_deployments
		WHERE status = 'Pending' AND scheduled_at <= ?`

	queryListScheduleTargets = `
		SELECT host_ref FROM scheduled_deployment_targets WHERE schedule_ref = ?`

	queryUpdateScheduleStatus = `
		UPDATE scheduled_deployments SET status = ?, deployment_job_ref = ? WHERE id = ?`
)

// Noise-analysis queries
const (
	queryInsertNoiseRun = `
		INSERT INTO noise_analysis_runs (id, host_ref, time_range_hours, total_events_observed, analyzed_at)
		VALUES (nextval('noise_analysis_runs_id_seq'), ?, ?, ?, ?)
		RETURNING id`

	queryInsertNoiseResult = `
		INSERT INTO noise_results (run_ref, event_id, grouping_key, event_count, noise_score, suggested_exclusion)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryListNoiseResultsForRun = `
		SELECT run_ref, event_id, grouping_key, event_count, noise_score, suggested_exclusion
		FROM noise_results WHERE run_ref = ? ORDER BY noise_score DESC`

	queryGetNoiseRun = `
		SELECT id, host_ref, time_range_hours, total_events_observed, analyzed_at
		FROM noise_analysis_runs WHERE id = ?`
)

// Audit queries
const (
	queryInsertAuditEntry = `
		INSERT INTO audit_entries (id, timestamp, user_name, action, details_json)
		VALUES (nextval('audit_entries_id_seq'), ?, ?, ?, ?)
		RETURNING id`
)
