package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysmonctl/controlplane/internal/models"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// JobStore persists DeploymentJob rows and their owned DeploymentResult
// rows (spec §3, §4.4).
type JobStore struct {
	s *Store
}

func NewJobStore(s *Store) *JobStore {
	return &JobStore{s: s}
}

// StartDeployment creates a Job in Pending status with one pending
// Result per target host id. An empty target list yields an
// immediately-terminal Completed Job with zero Results (spec §8).
func (j *JobStore) StartDeployment(ctx context.Context, operation models.JobOperation, configRef *int64, startedBy string, targetHostIDs []int64, now time.Time) (*models.DeploymentJob, error) {
	job := &models.DeploymentJob{
		Operation: operation,
		ConfigRef: configRef,
		StartedBy: startedBy,
		StartedAt: now,
		Status:    models.JobStatusPending,
	}
	if len(targetHostIDs) == 0 {
		job.Status = models.JobStatusCompleted
		job.CompletedAt = &now
	}

	err := j.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, queryInsertJob,
			string(job.Operation), nullInt64(job.ConfigRef), nullString(job.StartedBy),
			job.StartedAt.UTC(), nullTime(job.CompletedAt), string(job.Status),
		)
		if err := row.Scan(&job.ID); err != nil {
			return err
		}
		for _, hostID := range targetHostIDs {
			if _, err := tx.ExecContext(ctx, queryInsertResult, job.ID, hostID, false, "Pending", nil); err != nil {
				return err
			}
		}
		return nil
	})
	return job, err
}

func (j *JobStore) Get(ctx context.Context, id int64) (*models.DeploymentJob, error) {
	row := j.s.db.QueryRowContext(ctx, queryGetJobByID, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewJobNotFoundError("")
	}
	return job, err
}

func (j *JobStore) ListResults(ctx context.Context, jobID int64) ([]models.DeploymentResult, error) {
	rows, err := j.s.db.QueryContext(ctx, queryListResultsForJob, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DeploymentResult
	for rows.Next() {
		var (
			r           models.DeploymentResult
			message     sql.NullString
			completedAt sql.NullTime
		)
		if err := rows.Scan(&r.JobRef, &r.HostRef, &r.Success, &message, &completedAt); err != nil {
			return nil, err
		}
		r.Message = message.String
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CompleteResult records a per-Host outcome and, if it was the last
// outstanding result, transitions the Job to its terminal status.
func (j *JobStore) CompleteResult(ctx context.Context, jobID, hostID int64, success bool, message string, now time.Time) error {
	return j.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, queryUpdateResult, success, message, now.UTC(), jobID, hostID); err != nil {
			return err
		}

		var pending int
		if err := tx.QueryRowContext(ctx, queryCountPendingResultsForJob, jobID).Scan(&pending); err != nil {
			return err
		}
		if pending > 0 {
			return nil
		}

		rows, err := tx.QueryContext(ctx, queryListResultsForJob, jobID)
		if err != nil {
			return err
		}
		allSucceeded := true
		for rows.Next() {
			var (
				r        models.DeploymentResult
				msg      sql.NullString
				compAt   sql.NullTime
			)
			if err := rows.Scan(&r.JobRef, &r.HostRef, &r.Success, &msg, &compAt); err != nil {
				rows.Close()
				return err
			}
			if !r.Success {
				allSucceeded = false
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		status := models.JobStatusCompletedWithErrors
		if allSucceeded {
			status = models.JobStatusCompleted
		}
		_, err = tx.ExecContext(ctx, queryUpdateJobStatus, string(status), now.UTC(), jobID)
		return err
	})
}

// Cancel sets the Job's status to Cancelled whatever its current status;
// checking that the Job is not already terminal is left to the caller
// (JobHandler.Cancel does). In-flight per-Host work is left to finish;
// this only flips the Job-level flag the dispatcher polls.
func (j *JobStore) Cancel(ctx context.Context, jobID int64, now time.Time) error {
	return j.s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, queryUpdateJobStatus, string(models.JobStatusCancelled), now.UTC(), jobID)
		return err
	})
}

func (j *JobStore) SetRunning(ctx context.Context, jobID int64) error {
	return j.s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, queryUpdateJobStatus, string(models.JobStatusRunning), nil, jobID)
		return err
	})
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func scanJob(row *sql.Row) (*models.DeploymentJob, error) {
	var (
		job                   models.DeploymentJob
		configRef             sql.NullInt64
		startedBy             sql.NullString
		completedAt           sql.NullTime
		status                string
	)
	err := row.Scan(&job.ID, &job.Operation, &configRef, &startedBy, &job.StartedAt, &completedAt, &status)
	if err != nil {
		return nil, err
	}
	if configRef.Valid {
		v := configRef.Int64
		job.ConfigRef = &v
	}
	job.StartedBy = startedBy.String
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	job.Status = models.JobStatus(status)
	return &job, nil
}
