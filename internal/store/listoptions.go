package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sysmonctl/controlplane/internal/models"
)

// ListOption composes a squirrel.SelectBuilder, the same functional
// options pattern as the teacher's VMStore.List — each option narrows,
// sorts, or paginates a Host listing query.
type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByHostnames(hostnames ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(hostnames) == 0 {
			return b
		}
		return b.Where(sq.Eq{"hostname": hostnames})
	}
}

func ByAgentManaged(managed bool) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{"is_agent_managed": managed})
	}
}

func ByScanStatus(statuses ...models.ScanStatus) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(statuses) == 0 {
			return b
		}
		vals := make([]string, len(statuses))
		for i, s := range statuses {
			vals[i] = string(s)
		}
		return b.Where(sq.Eq{"last_scan_status": vals})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if limit == 0 {
			return b
		}
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if offset == 0 {
			return b
		}
		return b.Offset(offset)
	}
}

// SortParam is one field/direction pair for WithSort.
type SortParam struct {
	Field string
	Desc  bool
}

var hostAPIFieldToColumn = map[string]string{
	"hostname":      "hostname",
	"os":            "os",
	"lastSeen":      "last_seen",
	"scanStatus":    "last_scan_status",
	"agentManaged":  "is_agent_managed",
}

// WithSort applies multi-field sorting, always appending id as a
// tie-breaker for stable pagination.
func WithSort(sorts []SortParam) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		for _, s := range sorts {
			col, ok := hostAPIFieldToColumn[s.Field]
			if !ok {
				continue
			}
			if s.Desc {
				b = b.OrderBy(col + " DESC")
			} else {
				b = b.OrderBy(col + " ASC")
			}
		}
		return b.OrderBy("id ASC")
	}
}

func WithDefaultSort() ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy("id ASC")
	}
}

// List runs a filtered, sorted, paginated Host query.
func (h *HostStore) List(ctx context.Context, opts ...ListOption) ([]models.Host, error) {
	builder := sq.Select(
		"id", "hostname", "directory_dn", "os", "last_seen", "collector_version",
		"collector_path", "config_hash", "config_tag", "last_scan_at", "last_scan_status",
		"is_agent_managed", "agent_id", "agent_auth_token", "agent_version",
		"agent_last_heartbeat", "agent_tags",
	).From("hosts").PlaceholderFormat(sq.Question)

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("store: build host list query: %w", err)
	}

	rows, err := h.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Host
	for rows.Next() {
		host, err := scanHostRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *host)
	}
	return out, rows.Err()
}
