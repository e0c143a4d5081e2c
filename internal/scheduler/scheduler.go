package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/config"
	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
	"github.com/mamadbah2/hisaab/internal/service/records"
	"github.com/mamadbah2/hisaab/internal/service/whatsapp"
	"github.com/mamadbah2/hisaab/internal/telemetry"
)

// Job names, used as log fields and metric labels.
const (
	JobSnapshot     = "daily_snapshot"
	JobWeeklyReport = "weekly_report"
	JobReconcile    = "reconcile"
)

const jobTimeout = 2 * time.Minute

// Reporter builds the scheduled reports.
type Reporter interface {
	BuildDailyReport(ctx context.Context, day time.Time, scope access.Scope) (models.DailyReport, error)
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
}

// Reconciler repairs denormalised counters.
type Reconciler interface {
	Reconcile(ctx context.Context) (records.ReconcileReport, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.ReportingConfig
	reporter   Reporter
	reconciler Reconciler
	messaging  whatsapp.MessagingService
	branches   store.Collection[models.Branch]
	telemetry  *telemetry.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewScheduler creates a new scheduler whose schedules are read in loc.
func NewScheduler(
	cfg config.ReportingConfig,
	loc *time.Location,
	reporter Reporter,
	reconciler Reconciler,
	messaging whatsapp.MessagingService,
	branches store.Collection[models.Branch],
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		cfg:        cfg,
		reporter:   reporter,
		reconciler: reconciler,
		messaging:  messaging,
		branches:   branches,
		telemetry:  metrics,
		logger:     logger.Named("scheduler"),
		now:        time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{JobSnapshot, s.cfg.SnapshotSchedule, s.RunSnapshot},
		{JobWeeklyReport, s.cfg.WeeklySchedule, s.RunWeeklyReport},
		{JobReconcile, s.cfg.ReconcileSchedule, s.RunReconcile},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.schedule, s.wrap(job.name, job.run)); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.schedule, err)
		}
		s.logger.Info("job scheduled", zap.String("job", job.name), zap.String("schedule", job.schedule))
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler jobs still running at shutdown")
	}
}

func (s *Scheduler) wrap(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		started := time.Now()
		err := run(ctx)
		s.telemetry.JobRun(name, err)
		if err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("duration", time.Since(started)))
	}
}

// RunSnapshot archives today's report for the whole business and for each
// active branch. It keeps going past a failing branch and returns the first
// error.
func (s *Scheduler) RunSnapshot(ctx context.Context) error {
	day := s.now()
	scopes := []access.Scope{access.AllBranches}

	branches, err := s.branches.List(ctx)
	if err != nil {
		return fmt.Errorf("list branches: %w", err)
	}
	for _, b := range branches {
		if b.Status != models.StatusInactive {
			scopes = append(scopes, access.ForBranch(b.ID))
		}
	}

	var firstErr error
	for _, scope := range scopes {
		if _, err := s.reporter.BuildDailyReport(ctx, day, scope); err != nil {
			s.logger.Warn("daily snapshot failed", zap.String("scope", scope.CacheKey()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RunWeeklyReport generates the owner summary and sends it over WhatsApp.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) error {
	report, err := s.reporter.GenerateWeeklyReport(ctx, s.now())
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}

	if err := s.messaging.SendOutbound(ctx, whatsapp.OutboundMessage{Message: report}); err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}
	return nil
}

// RunReconcile rebuilds customer and staff counters from history.
func (s *Scheduler) RunReconcile(ctx context.Context) error {
	report, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	s.telemetry.ReconcileAdjusted("customers", report.CustomersAdjusted)
	s.telemetry.ReconcileAdjusted("staff", report.StaffAdjusted)
	if report.CustomersAdjusted+report.StaffAdjusted > 0 {
		s.logger.Warn("counters drifted and were repaired",
			zap.Int("customers", report.CustomersAdjusted),
			zap.Int("staff", report.StaffAdjusted))
	}
	return nil
}
