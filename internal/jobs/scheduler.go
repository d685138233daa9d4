// Package jobs runs periodic maintenance tasks.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"circles/internal/observability"

	"github.com/robfig/cron/v3"
)

// DefaultReconcileSchedule is used when no schedule is configured.
const DefaultReconcileSchedule = "@every 1h"

const reconcileTimeout = 2 * time.Minute

// MemberCountReconciler rewrites stored member counts from membership rows.
type MemberCountReconciler interface {
	ReconcileMemberCounts(ctx context.Context) (int64, error)
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	circles  MemberCountReconciler
	schedule string
}

// NewScheduler validates the schedule and registers the reconciliation job.
func NewScheduler(schedule string, circles MemberCountReconciler) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		circles:  circles,
		schedule: schedule,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.ReconcileMemberCounts(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", slog.String("reconcile_schedule", s.schedule))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
}

// ReconcileMemberCounts runs one reconciliation pass and returns the number of
// corrected circles.
func (s *Scheduler) ReconcileMemberCounts(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()

	start := time.Now()
	drifted, err := s.circles.ReconcileMemberCounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "member count reconciliation failed", slog.Any("error", err))
		return 0
	}
	if drifted > 0 {
		observability.MemberCountDrift.Add(float64(drifted))
		slog.WarnContext(ctx, "member counts drifted",
			slog.Int64("circles", drifted),
			slog.Duration("took", time.Since(start)),
		)
		return drifted
	}
	slog.DebugContext(ctx, "member counts consistent", slog.Duration("took", time.Since(start)))
	return 0
}
