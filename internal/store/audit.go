package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysmonctl/controlplane/internal/models"
)

// AuditStore appends AuditEntry rows (spec §2 C9: append-only, never
// updated or deleted by the core).
type AuditStore struct {
	s *Store
}

func NewAuditStore(s *Store) *AuditStore {
	return &AuditStore{s: s}
}

func (a *AuditStore) Append(ctx context.Context, entry *models.AuditEntry) error {
	return a.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, queryInsertAuditEntry,
			entry.Timestamp.UTC(), nullString(entry.User), string(entry.Action), nullString(entry.DetailsJSON),
		)
		return row.Scan(&entry.ID)
	})
}

func (a *AuditStore) List(ctx context.Context, since time.Time, limit int) ([]models.AuditEntry, error) {
	rows, err := a.s.db.QueryContext(ctx, `
		SELECT id, timestamp, user_name, action, details_json
		FROM audit_entries WHERE timestamp >= ? ORDER BY timestamp DESC LIMIT ?`, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			e      models.AuditEntry
			user   sql.NullString
			action string
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &user, &action, &details); err != nil {
			return nil, err
		}
		e.User = user.String
		e.Action = models.AuditAction(action)
		e.DetailsJSON = details.String
		out = append(out, e)
	}
	return out, rows.Err()
}
