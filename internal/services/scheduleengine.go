package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sysmonctl/controlplane/internal/models"
	"github.com/sysmonctl/controlplane/internal/store"
)

// ScheduleTickInterval is the engine's polling period (spec §4.6 C7).
const ScheduleTickInterval = 30 * time.Second

// ScheduleEngine promotes due ScheduledDeployments to DeploymentJobs on
// a fixed tick and hands each Job to a Dispatcher, mirroring the
// ticker-driven run loop the teacher's console service uses for its own
// periodic console sync.
type ScheduleEngine struct {
	store      *store.Store
	audit      *AuditService
	dispatcher *Dispatcher
	tick       time.Duration
	close      chan struct{}
}

func NewScheduleEngine(st *store.Store, audit *AuditService, dispatcher *Dispatcher) *ScheduleEngine {
	return &ScheduleEngine{
		store: st, audit: audit, dispatcher: dispatcher,
		tick: ScheduleTickInterval, close: make(chan struct{}),
	}
}

// Run blocks, promoting due schedules on every tick until ctx is
// cancelled or Stop is called.
func (e *ScheduleEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.RunOnce(ctx); err != nil {
				zap.S().Named("schedule_engine").Errorw("tick failed", "error", err)
			}
		case <-e.close:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (e *ScheduleEngine) Stop() {
	close(e.close)
}

// RunOnce promotes every currently-due schedule; exported so tests and
// a manual "run now" operator action can drive a single tick directly.
func (e *ScheduleEngine) RunOnce(ctx context.Context) error {
	now := time.Now()
	due, err := e.store.Schedules().ListDue(ctx, now)
	if err != nil {
		return err
	}

	for _, schedule := range due {
		if err := e.promote(ctx, schedule, now); err != nil {
			zap.S().Named("schedule_engine").Errorw("failed to promote schedule", "schedule_id", schedule.ID, "error", err)
		}
	}
	return nil
}

func (e *ScheduleEngine) promote(ctx context.Context, schedule models.ScheduledDeployment, now time.Time) error {
	if len(schedule.TargetHostRefs) == 0 {
		return e.store.Schedules().MarkFailed(ctx, schedule.ID)
	}

	job, err := e.store.Jobs().StartDeployment(ctx, schedule.Operation, schedule.ConfigRef, schedule.CreatedBy, schedule.TargetHostRefs, now)
	if err != nil {
		return err
	}

	if err := e.store.Schedules().Promote(ctx, schedule.ID, job.ID, models.ScheduleStatusRunning); err != nil {
		return err
	}

	if err := e.audit.Log(ctx, schedule.CreatedBy, models.AuditDeploymentStart, map[string]any{
		"scheduled": true, "schedule_id": schedule.ID, "job_id": job.ID, "operation": schedule.Operation,
	}); err != nil {
		zap.S().Named("schedule_engine").Warnw("failed to write audit entry", "error", err)
	}

	go func() {
		if err := e.dispatcher.Dispatch(context.Background(), job.ID); err != nil {
			zap.S().Named("schedule_engine").Errorw("dispatch failed for scheduled job", "job_id", job.ID, "error", err)
		}
	}()
	return nil
}
