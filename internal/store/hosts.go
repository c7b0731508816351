package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sysmonctl/controlplane/internal/models"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// HostStore persists Host rows. Host.ID is the single owning key; all
// relationships to other entities are stored as foreign ids per the
// arena+index model of Design Notes §9.
type HostStore struct {
	s *Store
}

func NewHostStore(s *Store) *HostStore {
	return &HostStore{s: s}
}

func (h *HostStore) Get(ctx context.Context, id int64) (*models.Host, error) {
	row := h.s.db.QueryRowContext(ctx, queryGetHostByID, id)
	return scanHost(row)
}

func (h *HostStore) GetByHostname(ctx context.Context, hostname string) (*models.Host, error) {
	row := h.s.db.QueryRowContext(ctx, queryGetHostByHostname, hostname)
	return scanHost(row)
}

func (h *HostStore) GetByAgentID(ctx context.Context, agentID string) (*models.Host, error) {
	row := h.s.db.QueryRowContext(ctx, queryGetHostByAgentID, agentID)
	return scanHost(row)
}

// Create inserts a new Host and assigns its ID.
func (h *HostStore) Create(ctx context.Context, host *models.Host) error {
	return h.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, queryInsertHost,
			host.Hostname, nullString(host.DirectoryDN), nullString(host.OS), nullTime(&host.LastSeen),
			nullString(host.CollectorVersion), nullString(host.CollectorPath), nullString(host.ConfigHash),
			nullString(host.ConfigTag), nullTime(host.LastScanAt), nullScanStatus(host.LastScanStatus),
			host.IsAgentManaged, nullString(host.AgentID), nullString(host.AgentAuthToken),
			nullString(host.AgentVersion), nullTime(host.AgentLastHeartbeat), nullTagList(host.AgentTags),
		)
		return row.Scan(&host.ID)
	})
}

// Update persists every mutable field of host in place.
func (h *HostStore) Update(ctx context.Context, host *models.Host) error {
	return h.s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, queryUpdateHost,
			host.Hostname, nullString(host.DirectoryDN), nullString(host.OS), nullTime(&host.LastSeen),
			nullString(host.CollectorVersion), nullString(host.CollectorPath), nullString(host.ConfigHash),
			nullString(host.ConfigTag), nullTime(host.LastScanAt), nullScanStatus(host.LastScanStatus),
			host.IsAgentManaged, nullString(host.AgentID), nullString(host.AgentAuthToken),
			nullString(host.AgentVersion), nullTime(host.AgentLastHeartbeat), nullTagList(host.AgentTags),
			host.ID,
		)
		return err
	})
}

// RegisterOrUpdateAgent implements the Register semantics of spec §4.2:
// adopt an existing push-managed Host by hostname, re-register an
// existing agent-managed Host reusing its auth token, or create a new
// Host. Tie-break for multiple push-managed hosts sharing a hostname
// (Open Question, §9): most-recently-seen wins (see DESIGN.md).
func (h *HostStore) RegisterOrUpdateAgent(ctx context.Context, agentID, hostname, os, agentVersion string, tags []string, mintToken func() string, now time.Time) (*models.Host, error) {
	var result *models.Host
	err := h.s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanHostTx(tx.QueryRowContext(ctx, queryGetHostByAgentID, agentID))
		if err == nil {
			existing.Hostname = hostname
			existing.OS = os
			existing.AgentVersion = agentVersion
			existing.AgentTags = tags
			existing.LastSeen = now
			if _, err := tx.ExecContext(ctx, queryUpdateHost,
				existing.Hostname, nullString(existing.DirectoryDN), nullString(existing.OS), nullTime(&existing.LastSeen),
				nullString(existing.CollectorVersion), nullString(existing.CollectorPath), nullString(existing.ConfigHash),
				nullString(existing.ConfigTag), nullTime(existing.LastScanAt), nullScanStatus(existing.LastScanStatus),
				existing.IsAgentManaged, nullString(existing.AgentID), nullString(existing.AgentAuthToken),
				nullString(existing.AgentVersion), nullTime(existing.AgentLastHeartbeat), nullTagList(existing.AgentTags),
				existing.ID,
			); err != nil {
				return err
			}
			result = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		pushCandidate, err := adoptCandidate(ctx, tx, hostname)
		if err != nil {
			return err
		}

		token := mintToken()
		if pushCandidate != nil {
			pushCandidate.IsAgentManaged = true
			pushCandidate.AgentID = agentID
			pushCandidate.AgentAuthToken = token
			pushCandidate.OS = os
			pushCandidate.AgentVersion = agentVersion
			pushCandidate.AgentTags = tags
			pushCandidate.LastSeen = now
			if _, err := tx.ExecContext(ctx, queryUpdateHost,
				pushCandidate.Hostname, nullString(pushCandidate.DirectoryDN), nullString(pushCandidate.OS), nullTime(&pushCandidate.LastSeen),
				nullString(pushCandidate.CollectorVersion), nullString(pushCandidate.CollectorPath), nullString(pushCandidate.ConfigHash),
				nullString(pushCandidate.ConfigTag), nullTime(pushCandidate.LastScanAt), nullScanStatus(pushCandidate.LastScanStatus),
				pushCandidate.IsAgentManaged, nullString(pushCandidate.AgentID), nullString(pushCandidate.AgentAuthToken),
				nullString(pushCandidate.AgentVersion), nullTime(pushCandidate.AgentLastHeartbeat), nullTagList(pushCandidate.AgentTags),
				pushCandidate.ID,
			); err != nil {
				return err
			}
			result = pushCandidate
			return nil
		}

		newHost := &models.Host{
			Hostname:       hostname,
			OS:             os,
			LastSeen:       now,
			IsAgentManaged: true,
			AgentID:        agentID,
			AgentAuthToken: token,
			AgentVersion:   agentVersion,
			AgentTags:      tags,
		}
		row := tx.QueryRowContext(ctx, queryInsertHost,
			newHost.Hostname, nullString(newHost.DirectoryDN), nullString(newHost.OS), nullTime(&newHost.LastSeen),
			nullString(newHost.CollectorVersion), nullString(newHost.CollectorPath), nullString(newHost.ConfigHash),
			nullString(newHost.ConfigTag), nullTime(newHost.LastScanAt), nullScanStatus(newHost.LastScanStatus),
			newHost.IsAgentManaged, nullString(newHost.AgentID), nullString(newHost.AgentAuthToken),
			nullString(newHost.AgentVersion), nullTime(newHost.AgentLastHeartbeat), nullTagList(newHost.AgentTags),
		)
		if err := row.Scan(&newHost.ID); err != nil {
			return err
		}
		result = newHost
		return nil
	})
	return result, err
}

// adoptCandidate returns the most-recently-seen push-managed Host
// matching hostname case-insensitively, or nil if none exists.
func adoptCandidate(ctx context.Context, tx *sql.Tx, hostname string) (*models.Host, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, hostname, directory_dn, os, last_seen, collector_version,
		       collector_path, config_hash, config_tag, last_scan_at, last_scan_status,
		       is_agent_managed, agent_id, agent_auth_token, agent_version,
		       agent_last_heartbeat, agent_tags
		FROM hosts WHERE LOWER(hostname) = LOWER(?) AND is_agent_managed = false
		ORDER BY last_seen DESC NULLS LAST
		LIMIT 1`, hostname)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanHostRows(rows)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullScanStatus(s *models.ScanStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func nullTagList(tags []string) any {
	if len(tags) == 0 {
		return nil
	}
	return strings.Join(tags, ",")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHost(row *sql.Row) (*models.Host, error) {
	h, err := scanHostGeneric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewHostNotFoundError("")
	}
	return h, err
}

func scanHostTx(row *sql.Row) (*models.Host, error) {
	return scanHostGeneric(row)
}

func scanHostRows(rows *sql.Rows) (*models.Host, error) {
	return scanHostGeneric(rows)
}

func scanHostGeneric(row rowScanner) (*models.Host, error) {
	var (
		h                                       models.Host
		directoryDN, os, collectorVersion       sql.NullString
		collectorPath, configHash, configTag    sql.NullString
		lastScanStatus, agentID, agentAuthToken sql.NullString
		agentVersion, agentTags                 sql.NullString
		lastSeen, lastScanAt, agentLastHeartbeat sql.NullTime
	)

	err := row.Scan(
		&h.ID, &h.Hostname, &directoryDN, &os, &lastSeen, &collectorVersion,
		&collectorPath, &configHash, &configTag, &lastScanAt, &lastScanStatus,
		&h.IsAgentManaged, &agentID, &agentAuthToken, &agentVersion,
		&agentLastHeartbeat, &agentTags,
	)
	if err != nil {
		return nil, err
	}

	h.DirectoryDN = directoryDN.String
	h.OS = os.String
	h.CollectorVersion = collectorVersion.String
	h.CollectorPath = collectorPath.String
	h.ConfigHash = configHash.String
	h.ConfigTag = configTag.String
	h.AgentID = agentID.String
	h.AgentAuthToken = agentAuthToken.String
	h.AgentVersion = agentVersion.String

	if lastSeen.Valid {
		h.LastSeen = lastSeen.Time
	}
	if lastScanAt.Valid {
		t := lastScanAt.Time
		h.LastScanAt = &t
	}
	if lastScanStatus.Valid {
		s := models.ScanStatus(lastScanStatus.String)
		h.LastScanStatus = &s
	}
	if agentLastHeartbeat.Valid {
		t := agentLastHeartbeat.Time
		h.AgentLastHeartbeat = &t
	}
	if agentTags.Valid && agentTags.String != "" {
		h.AgentTags = strings.Split(agentTags.String, ",")
	}

	return &h, nil
}
