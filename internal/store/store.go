package store

import (
	"context"
	"database/sql"
	"sync"
)

// Store provides access to all storage repositories. A single mutex
// serializes write transactions across sub-stores: spec §5's mutability
// policy gives every row exactly one logical writer at a time, but that
// owner can still run on multiple goroutines (e.g. two heartbeats for
// different hosts), so the mutex is the safety margin beyond what the
// single-connection pool already buys us.
type Store struct {
	db *sql.DB
	mu sync.Mutex

	hosts      *HostStore
	configs    *ConfigStore
	jobs       *JobStore
	commands   *CommandStore
	schedules  *ScheduleStore
	noise      *NoiseStore
	audit      *AuditStore
}

func NewStore(db *sql.DB) *Store {
	s := &Store{db: db}
	s.hosts = NewHostStore(s)
	s.configs = NewConfigStore(s)
	s.jobs = NewJobStore(s)
	s.commands = NewCommandStore(s)
	s.schedules = NewScheduleStore(s)
	s.noise = NewNoiseStore(s)
	s.audit = NewAuditStore(s)
	return s
}

func (s *Store) Hosts() *HostStore         { return s.hosts }
func (s *Store) Configs() *ConfigStore     { return s.configs }
func (s *Store) Jobs() *JobStore           { return s.jobs }
func (s *Store) Commands() *CommandStore   { return s.commands }
func (s *Store) Schedules() *ScheduleStore { return s.schedules }
func (s *Store) Noise() *NoiseStore        { return s.noise }
func (s *Store) Audit() *AuditStore        { return s.audit }

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, holding the write mutex for the
// duration. Readers do not need the mutex: DuckDB snapshots give them a
// consistent view without blocking the writer.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
