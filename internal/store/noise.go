package store

import (
	"context"
	"database/sql"

	"github.com/sysmonctl/controlplane/internal/models"
)

// NoiseStore persists NoiseAnalysisRun and NoiseResult rows (spec §4.7).
type NoiseStore struct {
	s *Store
}

func NewNoiseStore(s *Store) *NoiseStore {
	return &NoiseStore{s: s}
}

// SaveRun inserts the run and its results in one transaction.
func (n *NoiseStore) SaveRun(ctx context.Context, run *models.NoiseAnalysisRun, results []models.NoiseResult) error {
	return n.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, queryInsertNoiseRun,
			run.HostRef, run.TimeRangeHours, run.TotalEventsObserved, run.AnalyzedAt.UTC(),
		)
		if err := row.Scan(&run.ID); err != nil {
			return err
		}
		for i := range results {
			results[i].RunRef = run.ID
			if _, err := tx.ExecContext(ctx, queryInsertNoiseResult,
				results[i].RunRef, results[i].EventID, results[i].GroupingKey,
				results[i].EventCount, results[i].NoiseScore, nullString(results[i].SuggestedExclusion),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (n *NoiseStore) GetRun(ctx context.Context, runID int64) (*models.NoiseAnalysisRun, error) {
	row := n.s.db.QueryRowContext(ctx, queryGetNoiseRun, runID)
	var run models.NoiseAnalysisRun
	if err := row.Scan(&run.ID, &run.HostRef, &run.TimeRangeHours, &run.TotalEventsObserved, &run.AnalyzedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

func (n *NoiseStore) ListResults(ctx context.Context, runID int64) ([]models.NoiseResult, error) {
	rows, err := n.s.db.QueryContext(ctx, queryListNoiseResultsForRun, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NoiseResult
	for rows.Next() {
		var (
			r                   models.NoiseResult
			suggestedExclusion  sql.NullString
		)
		if err := rows.Scan(&r.RunRef, &r.EventID, &r.GroupingKey, &r.EventCount, &r.NoiseScore, &suggestedExclusion); err != nil {
			return nil, err
		}
		r.SuggestedExclusion = suggestedExclusion.String
		out = append(out, r)
	}
	return out, rows.Err()
}
