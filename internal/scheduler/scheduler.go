package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
	"github.com/mamadbah2/fuelsync/internal/service/pipeline"
)

// Runner is the pipeline entry point shared by the cron job and the manual
// trigger.
type Runner interface {
	RunFullUpdate(ctx context.Context, trigger models.RunTrigger) (pipeline.Outcome, error)
}

// TriggerResult is what manual callers get back.
type TriggerResult struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	InProgress bool              `json:"inProgress,omitempty"`
	Outcome    *pipeline.Outcome `json:"outcome,omitempty"`
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	schedule string
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance. The schedule is a standard
// five field cron expression evaluated in loc.
func NewScheduler(schedule string, loc *time.Location, runner Runner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		runner:   runner,
		schedule: schedule,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// LoadLocation resolves a time zone name, falling back to UTC.
func LoadLocation(name string, logger *zap.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		if logger != nil {
			logger.Warn("unknown timezone, using UTC", zap.String("timezone", name), zap.Error(err))
		}
		return time.UTC
	}
	return loc
}

// Start registers the pipeline job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule pipeline %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Next returns the next scheduled activation, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the scheduler, cancels an in-flight scheduled run and waits for
// it to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping scheduler")
	s.cancel()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduled run still running at shutdown")
	}
}

// Trigger runs the pipeline now on behalf of a manual caller.
func (s *Scheduler) Trigger(ctx context.Context) TriggerResult {
	s.logger.Info("manual pipeline run requested")

	out, err := s.runner.RunFullUpdate(ctx, models.TriggerManual)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		return TriggerResult{Success: false, Message: "A pipeline run is already in progress", InProgress: true}
	}
	if err != nil {
		return TriggerResult{Success: false, Message: fmt.Sprintf("Pipeline run failed: %v", err), Outcome: &out}
	}

	msg := "Pipeline run completed"
	if out.Status == models.RunDegraded {
		msg = "Pipeline run completed with stale report images"
	}
	return TriggerResult{Success: true, Message: msg, Outcome: &out}
}

func (s *Scheduler) runScheduled() {
	s.logger.Info("scheduled pipeline run starting")

	out, err := s.runner.RunFullUpdate(s.ctx, models.TriggerScheduled)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.logger.Warn("scheduled run skipped, previous run still in progress")
	case err != nil:
		s.logger.Error("scheduled pipeline run failed", zap.Error(err), zap.String("run_id", out.RunID))
	default:
		s.logger.Info("scheduled pipeline run finished",
			zap.String("run_id", out.RunID),
			zap.String("status", string(out.Status)))
	}
}
