package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/store"
)

// AuditService is a thin orchestration wrapper over store.Audit() (spec
// §4.9 C9): every call site marshals its details and lets the Store own
// persistence and ordering.
type AuditService struct {
	store *store.Store
}

func NewAuditService(st *store.Store) *AuditService {
	return &AuditService{store: st}
}

// Log appends an AuditEntry with details marshaled to JSON. A marshal
// failure degrades to an empty details payload rather than losing the
// audit record entirely.
func (a *AuditService) Log(ctx context.Context, user string, action models.AuditAction, details any) error {
	var detailsJSON string
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			detailsJSON = string(raw)
		}
	}
	return a.store.Audit().Append(ctx, &models.AuditEntry{
		Timestamp:   time.Now(),
		User:        user,
		Action:      action,
		DetailsJSON: detailsJSON,
	})
}

func (a *AuditService) List(ctx context.Context, since time.Time, limit int) ([]models.AuditEntry, error) {
	return a.store.Audit().List(ctx, since, limit)
}
