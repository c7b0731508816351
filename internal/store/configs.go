package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/sysmonctl/controlplane/internal/models"
	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// ConfigStore persists immutable Config rows (spec §3: content_bytes
// and content_hash never mutate after insert; edits produce a new row).
type ConfigStore struct {
	s *Store
}

func NewConfigStore(s *Store) *ConfigStore {
	return &ConfigStore{s: s}
}

func (c *ConfigStore) Get(ctx context.Context, id int64) (*models.Config, error) {
	row := c.s.db.QueryRowContext(ctx, queryGetConfigByID, id)
	cfg, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewConfigNotFoundError("")
	}
	return cfg, err
}

// GetByHash returns the most recently uploaded Config whose content
// hash matches, used for the re-upload dedup policy (spec §4.8).
func (c *ConfigStore) GetByHash(ctx context.Context, hash string) (*models.Config, error) {
	row := c.s.db.QueryRowContext(ctx, queryGetConfigByHash, hash)
	cfg, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cfg, err
}

// Create inserts a new Config row; ContentHash is computed here rather
// than trusted from the caller so the hash-round-trip invariant
// (spec §8) always holds.
func (c *ConfigStore) Create(ctx context.Context, cfg *models.Config) error {
	sum := sha256.Sum256(cfg.ContentBytes)
	cfg.ContentHash = hex.EncodeToString(sum[:])

	return c.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, queryInsertConfig,
			cfg.Filename, cfg.ContentBytes, cfg.ContentHash, nullString(cfg.Tag), cfg.IsValid,
			nullString(cfg.ValidationMessage), nullString(cfg.SourceURL), cfg.UploadedAt.UTC(), nullString(cfg.UploadedBy),
		)
		return row.Scan(&cfg.ID)
	})
}

func scanConfig(row *sql.Row) (*models.Config, error) {
	var (
		cfg                              models.Config
		tag, validationMessage, sourceURL, uploadedBy sql.NullString
	)
	err := row.Scan(
		&cfg.ID, &cfg.Filename, &cfg.ContentBytes, &cfg.ContentHash, &tag, &cfg.IsValid,
		&validationMessage, &sourceURL, &cfg.UploadedAt, &uploadedBy,
	)
	if err != nil {
		return nil, err
	}
	cfg.Tag = tag.String
	cfg.ValidationMessage = validationMessage.String
	cfg.SourceURL = sourceURL.String
	cfg.UploadedBy = uploadedBy.String
	return &cfg, nil
}
