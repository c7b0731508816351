package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysmonctl/controlplane/internal/models"
)

// ScheduleStore persists ScheduledDeployment rows and their target Host
// refs (spec §4.6).
type ScheduleStore struct {
	s *Store
}

func NewScheduleStore(s *Store) *ScheduleStore {
	return &ScheduleStore{s: s}
}

func (sc *ScheduleStore) Create(ctx context.Context, schedule *models.ScheduledDeployment) error {
	return sc.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, queryInsertSchedule,
			string(schedule.Operation), nullInt64(schedule.ConfigRef), schedule.ScheduledAt.UTC(),
			nullString(schedule.CreatedBy), schedule.CreatedAt.UTC(), string(schedule.Status),
			nullInt64(schedule.DeploymentJobRef),
		)
		if err := row.Scan(&schedule.ID); err != nil {
			return err
		}
		for _, hostID := range schedule.TargetHostRefs {
			if _, err := tx.ExecContext(ctx, queryInsertScheduleTarget, schedule.ID, hostID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListDue returns every Pending schedule whose ScheduledAt has passed,
// with their target host refs populated, for one engine tick (spec §4.6).
func (sc *ScheduleStore) ListDue(ctx context.Context, now time.Time) ([]models.ScheduledDeployment, error) {
	rows, err := sc.s.db.QueryContext(ctx, queryListDueSchedules, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduledDeployment
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		targets, err := sc.targets(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].TargetHostRefs = targets
	}
	return out, nil
}

func (sc *ScheduleStore) targets(ctx context.Context, scheduleID int64) ([]int64, error) {
	rows, err := sc.s.db.QueryContext(ctx, queryListScheduleTargets, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []int64
	for rows.Next() {
		var hostID int64
		if err := rows.Scan(&hostID); err != nil {
			return nil, err
		}
		targets = append(targets, hostID)
	}
	return targets, rows.Err()
}

// Promote transitions a schedule to Running with its new Job ref
// attached (spec §4.6 tick), or to Failed (empty target list).
func (sc *ScheduleStore) Promote(ctx context.Context, scheduleID, jobRef int64, status models.ScheduleStatus) error {
	return sc.s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, queryUpdateScheduleStatus, string(status), jobRef, scheduleID)
		return err
	})
}

func (sc *ScheduleStore) MarkFailed(ctx context.Context, scheduleID int64) error {
	return sc.s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, queryUpdateScheduleStatus, string(models.ScheduleStatusFailed), nil, scheduleID)
		return err
	})
}

func scanSchedule(rows *sql.Rows) (*models.ScheduledDeployment, error) {
	var (
		sch              models.ScheduledDeployment
		configRef        sql.NullInt64
		createdBy        sql.NullString
		status           string
		deploymentJobRef sql.NullInt64
	)
	err := rows.Scan(&sch.ID, &sch.Operation, &configRef, &sch.ScheduledAt, &createdBy, &sch.CreatedAt, &status, &deploymentJobRef)
	if err != nil {
		return nil, err
	}
	if configRef.Valid {
		v := configRef.Int64
		sch.ConfigRef = &v
	}
	sch.CreatedBy = createdBy.String
	sch.Status = models.ScheduleStatus(status)
	if deploymentJobRef.Valid {
		v := deploymentJobRef.Int64
		sch.DeploymentJobRef = &v
	}
	return &sch, nil
}
