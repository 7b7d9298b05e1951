package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
	"github.com/mamadbah2/fuelsync/internal/service/reconciliation"
	"github.com/mamadbah2/fuelsync/internal/service/refresh"
	"github.com/mamadbah2/fuelsync/internal/service/transform"
	"github.com/mamadbah2/fuelsync/pkg/metrics"
)

// ErrRunInProgress is returned when a run is requested while another one is
// still executing.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Stage names recorded in run history and metrics.
const (
	StageExport    = "export"
	StageReconcile = "reconcile"
	StageRefresh   = "refresh"
	StageHTML      = "html"
	StagePDF       = "pdf"
)

// RecordSource fetches raw records of one category.
type RecordSource interface {
	FetchRecords(ctx context.Context, category models.Category) ([]map[string]any, error)
}

// TableWriter persists a transformed table.
type TableWriter interface {
	Write(category models.Category, table transform.Table) (models.ArtifactSet, error)
}

// Refresher regenerates the native report images.
type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
}

// Renderer produces the HTML and PDF reports.
type Renderer interface {
	RenderHTML(category models.Category) (string, error)
	RenderPDF(ctx context.Context, category models.Category) (string, error)
}

// SheetPublisher mirrors a table to a spreadsheet range.
type SheetPublisher interface {
	ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// RunStore records run history.
type RunStore interface {
	InsertRun(ctx context.Context, run models.RunRecord) error
	UpdateRun(ctx context.Context, run models.RunRecord) error
	LastRun(ctx context.Context) (*models.RunRecord, error)
}

// Dependencies groups the collaborators of the orchestrator. Publisher,
// Runs and Metrics are optional.
type Dependencies struct {
	Source     RecordSource
	Writer     TableWriter
	Reconciler *reconciliation.Engine
	Refresher  Refresher
	Renderer   Renderer
	Publisher  SheetPublisher
	SheetRange string
	Runs       RunStore
	Metrics    *metrics.Metrics
}

// Outcome summarizes a finished run.
type Outcome struct {
	RunID     string                                 `json:"runId"`
	Status    models.RunStatus                       `json:"status"`
	Refresh   refresh.Result                         `json:"refresh"`
	Details   models.RunDetails                      `json:"details"`
	Artifacts map[models.Category]models.ArtifactSet `json:"artifacts"`
	Duration  time.Duration                          `json:"duration"`
}

// Orchestrator runs the full export pipeline. At most one run executes at a
// time.
type Orchestrator struct {
	deps       Dependencies
	runTimeout time.Duration
	logger     *zap.Logger
	now        func() time.Time

	running atomic.Bool
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(deps Dependencies, runTimeout time.Duration, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Reconciler == nil {
		deps.Reconciler = reconciliation.NewEngine(reconciliation.PolicyReject, logger)
	}
	return &Orchestrator{
		deps:       deps,
		runTimeout: runTimeout,
		logger:     logger,
		now:        time.Now,
	}
}

// Running reports whether a run is in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// LastRun returns the latest recorded run, or nil without a run store.
func (o *Orchestrator) LastRun(ctx context.Context) (*models.RunRecord, error) {
	if o.deps.Runs == nil {
		return nil, nil
	}
	return o.deps.Runs.LastRun(ctx)
}

// RunFullUpdate executes every stage in order: export both categories,
// reconcile, refresh, render HTML, render PDF. Any stage failure aborts the
// run. A degraded refresh still completes the run with status degraded.
func (o *Orchestrator) RunFullUpdate(ctx context.Context, trigger models.RunTrigger) (Outcome, error) {
	if !o.running.CompareAndSwap(false, true) {
		if o.deps.Metrics != nil {
			o.deps.Metrics.RunsRejected.Inc()
		}
		o.logger.Warn("run rejected, another run is in progress", zap.String("trigger", string(trigger)))
		return Outcome{}, ErrRunInProgress
	}
	defer o.running.Store(false)

	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	start := o.now()
	run := models.RunRecord{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    models.RunStarted,
		StartTime: start.UTC(),
		Details:   models.RunDetails{Stages: []string{}, Records: map[string]int{}},
	}
	logger := o.logger.With(zap.String("run_id", run.ID), zap.String("trigger", string(trigger)))
	logger.Info("pipeline run started")
	o.recordStart(ctx, logger, run)

	out := Outcome{RunID: run.ID, Artifacts: map[models.Category]models.ArtifactSet{}}
	err := o.execute(ctx, logger, &run, &out)

	end := o.now()
	run.EndTime = &end
	out.Duration = end.Sub(start)
	switch {
	case err != nil:
		run.Status = models.RunFailed
		run.Error = err.Error()
	case out.Refresh.Degraded():
		run.Status = models.RunDegraded
	default:
		run.Status = models.RunCompleted
	}
	out.Status = run.Status
	out.Details = run.Details

	o.recordEnd(logger, run)
	if m := o.deps.Metrics; m != nil {
		m.RunsTotal.WithLabelValues(string(trigger), string(run.Status)).Inc()
		m.RunDuration.Observe(out.Duration.Seconds())
	}

	if err != nil {
		logger.Error("pipeline run failed", zap.Error(err), zap.Strings("stages", run.Details.Stages))
		return out, err
	}
	logger.Info("pipeline run finished",
		zap.String("status", string(run.Status)),
		zap.Duration("duration", out.Duration))
	return out, nil
}

func (o *Orchestrator) execute(ctx context.Context, logger *zap.Logger, run *models.RunRecord, out *Outcome) error {
	var raw map[models.Category][]map[string]any

	err := o.stage(ctx, logger, run, StageExport, func(ctx context.Context) error {
		var err error
		raw, err = o.exportCategories(ctx, logger, run, out)
		return err
	})
	if err != nil {
		return err
	}

	err = o.stage(ctx, logger, run, StageReconcile, func(ctx context.Context) error {
		return o.reconcile(ctx, logger, run, out, raw)
	})
	if err != nil {
		return err
	}

	err = o.stage(ctx, logger, run, StageRefresh, func(ctx context.Context) error {
		res, err := o.deps.Refresher.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh reports: %w", err)
		}
		out.Refresh = res
		run.Details.RefreshMessage = res.Message
		if res.Degraded() {
			run.Details.Warnings = append(run.Details.Warnings, res.Warning)
			if o.deps.Metrics != nil {
				o.deps.Metrics.DegradedRefresh.Inc()
			}
			logger.Warn("refresh degraded, reusing existing report images", zap.String("warning", res.Warning))
		} else if !res.Success {
			warning := fmt.Sprintf("refresh script reported failure: %s", res.Message)
			run.Details.Warnings = append(run.Details.Warnings, warning)
			logger.Warn("refresh script reported failure", zap.String("message", res.Message))
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = o.stage(ctx, logger, run, StageHTML, func(ctx context.Context) error {
		return o.forEachReport(ctx, func(_ context.Context, c models.Category) error {
			if _, err := o.deps.Renderer.RenderHTML(c); err != nil {
				return fmt.Errorf("render %s html: %w", c, err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	return o.stage(ctx, logger, run, StagePDF, func(ctx context.Context) error {
		return o.forEachReport(ctx, func(ctx context.Context, c models.Category) error {
			if _, err := o.deps.Renderer.RenderPDF(ctx, c); err != nil {
				return fmt.Errorf("render %s pdf: %w", c, err)
			}
			return nil
		})
	})
}

// stage runs fn, then records the stage as completed. Cancellation of the
// run context between stages aborts the run.
func (o *Orchestrator) stage(ctx context.Context, logger *zap.Logger, run *models.RunRecord, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}

	started := o.now()
	logger.Info("stage started", zap.String("stage", name))
	err := fn(ctx)
	if m := o.deps.Metrics; m != nil {
		m.StageDuration.WithLabelValues(name).Observe(o.now().Sub(started).Seconds())
	}
	if err != nil {
		return err
	}

	run.Details.Stages = append(run.Details.Stages, name)
	logger.Info("stage completed", zap.String("stage", name), zap.Duration("took", o.now().Sub(started)))
	o.recordProgress(ctx, logger, *run)
	return nil
}

// exportCategories fetches, transforms and writes fuel and flight
// concurrently. It returns once both have finished.
func (o *Orchestrator) exportCategories(ctx context.Context, logger *zap.Logger, run *models.RunRecord, out *Outcome) (map[models.Category][]map[string]any, error) {
	var mu sync.Mutex
	raw := make(map[models.Category][]map[string]any, len(models.ReportCategories))

	stamp := o.now()
	err := o.forEachReport(ctx, func(ctx context.Context, c models.Category) error {
		records, err := o.deps.Source.FetchRecords(ctx, c)
		if err != nil {
			return fmt.Errorf("fetch %s records: %w", c, err)
		}

		tr, err := transform.ForCategory(c)
		if err != nil {
			return err
		}
		table := tr.WithClock(func() time.Time { return stamp }).Apply(records)

		set, err := o.deps.Writer.Write(c, table)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		raw[c] = records
		out.Artifacts[c] = set
		run.Details.Records[string(c)] = table.Len()
		if m := o.deps.Metrics; m != nil {
			m.RecordsExported.WithLabelValues(string(c)).Set(float64(table.Len()))
		}
		logger.Info("category exported", zap.String("category", string(c)), zap.Int("rows", table.Len()))
		return nil
	})
	return raw, err
}

func (o *Orchestrator) reconcile(ctx context.Context, logger *zap.Logger, run *models.RunRecord, out *Outcome, raw map[models.Category][]map[string]any) error {
	fuel := fuelRecords(raw[models.CategoryFuel])
	flights := flightRecords(raw[models.CategoryFlight])

	result, err := o.deps.Reconciler.Reconcile(fuel, flights)
	if err != nil {
		return fmt.Errorf("reconcile records: %w", err)
	}

	run.Details.MergedRows = len(result.Rows)
	run.Details.UnmatchedFuel = result.Unmatched
	run.Details.DuplicateKeys = len(result.Duplicates)
	if len(result.Duplicates) > 0 {
		run.Details.Warnings = append(run.Details.Warnings,
			fmt.Sprintf("%d duplicate flight keys, first match kept", len(result.Duplicates)))
	}
	if m := o.deps.Metrics; m != nil {
		m.UnmatchedRecords.Set(float64(result.Unmatched))
	}

	records, err := transform.ToRecords(result.Rows)
	if err != nil {
		return err
	}
	tr, err := transform.ForCategory(models.CategoryMerged)
	if err != nil {
		return err
	}
	table := tr.Apply(records)

	set, err := o.deps.Writer.Write(models.CategoryMerged, table)
	if err != nil {
		return err
	}
	out.Artifacts[models.CategoryMerged] = set
	run.Details.Records[string(models.CategoryMerged)] = table.Len()

	logger.Info("records reconciled",
		zap.Int("merged", len(result.Rows)),
		zap.Int("unmatched", result.Unmatched),
		zap.Int("excluded", result.Excluded))

	if o.deps.Publisher == nil || o.deps.SheetRange == "" {
		return nil
	}
	if err := o.deps.Publisher.ReplaceRange(ctx, o.deps.SheetRange, sheetRows(table)); err != nil {
		return fmt.Errorf("publish merged sheet: %w", err)
	}
	run.Details.PublishedSheets = append(run.Details.PublishedSheets, o.deps.SheetRange)
	return nil
}

// forEachReport runs fn for every report category concurrently and waits for
// all of them. The first error cancels the others.
func (o *Orchestrator) forEachReport(ctx context.Context, fn func(ctx context.Context, c models.Category) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range models.ReportCategories {
		g.Go(func() error {
			return fn(gctx, c)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) recordStart(ctx context.Context, logger *zap.Logger, run models.RunRecord) {
	if o.deps.Runs == nil {
		return
	}
	if err := o.deps.Runs.InsertRun(ctx, run); err != nil {
		logger.Warn("failed to record run start", zap.Error(err))
	}
}

func (o *Orchestrator) recordProgress(ctx context.Context, logger *zap.Logger, run models.RunRecord) {
	if o.deps.Runs == nil {
		return
	}
	if err := o.deps.Runs.UpdateRun(ctx, run); err != nil {
		logger.Warn("failed to record run progress", zap.Error(err))
	}
}

// recordEnd uses a fresh context so a timed out run is still recorded.
func (o *Orchestrator) recordEnd(logger *zap.Logger, run models.RunRecord) {
	if o.deps.Runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.deps.Runs.UpdateRun(ctx, run); err != nil {
		logger.Warn("failed to record run end", zap.Error(err))
	}
}

func sheetRows(table transform.Table) [][]interface{} {
	rows := make([][]interface{}, 0, table.Len()+1)
	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	rows = append(rows, header)
	for _, cells := range table.Values() {
		for i, v := range cells {
			if v == nil {
				cells[i] = ""
			}
		}
		rows = append(rows, cells)
	}
	return rows
}
