package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
	"github.com/mamadbah2/fuelsync/internal/service/reconciliation"
	"github.com/mamadbah2/fuelsync/internal/service/refresh"
	"github.com/mamadbah2/fuelsync/internal/service/transform"
	"github.com/mamadbah2/fuelsync/pkg/metrics"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func indexOfEvent(events []string, event string) int {
	for i, e := range events {
		if e == event {
			return i
		}
	}
	return -1
}

type fakeSource struct {
	log     *eventLog
	records map[models.Category][]map[string]any
	err     error
	block   chan struct{}
}

func (s *fakeSource) FetchRecords(ctx context.Context, c models.Category) ([]map[string]any, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.log.add("fetch:" + string(c))
	if s.err != nil && c == models.CategoryFlight {
		return nil, s.err
	}
	return s.records[c], nil
}

type fakeWriter struct {
	log    *eventLog
	mu     sync.Mutex
	tables map[models.Category]transform.Table
}

func (w *fakeWriter) Write(c models.Category, table transform.Table) (models.ArtifactSet, error) {
	w.mu.Lock()
	if w.tables == nil {
		w.tables = map[models.Category]transform.Table{}
	}
	w.tables[c] = table
	w.mu.Unlock()
	w.log.add("write:" + string(c))
	return models.ArtifactsFor(c, "data", "reports"), nil
}

type fakeRefresher struct {
	log    *eventLog
	result refresh.Result
	err    error
}

func (r *fakeRefresher) Refresh(context.Context) (refresh.Result, error) {
	r.log.add("refresh")
	return r.result, r.err
}

type fakeRenderer struct {
	log    *eventLog
	pdfErr error
}

func (r *fakeRenderer) RenderHTML(c models.Category) (string, error) {
	time.Sleep(5 * time.Millisecond)
	r.log.add("html:" + string(c))
	return string(c) + "_report.html", nil
}

func (r *fakeRenderer) RenderPDF(_ context.Context, c models.Category) (string, error) {
	r.log.add("pdf:" + string(c))
	if r.pdfErr != nil {
		return "", r.pdfErr
	}
	return string(c) + "_report.pdf", nil
}

type fakePublisher struct {
	sheetRange string
	rows       [][]interface{}
}

func (p *fakePublisher) ReplaceRange(_ context.Context, sheetRange string, rows [][]interface{}) error {
	p.sheetRange = sheetRange
	p.rows = rows
	return nil
}

type fakeRuns struct {
	mu      sync.Mutex
	inserts []models.RunRecord
	updates []models.RunRecord
}

func (f *fakeRuns) InsertRun(_ context.Context, run models.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, run)
	return nil
}

func (f *fakeRuns) UpdateRun(_ context.Context, run models.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, run)
	return nil
}

func (f *fakeRuns) LastRun(context.Context) (*models.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return nil, nil
	}
	last := f.updates[len(f.updates)-1]
	return &last, nil
}

func sampleRecords() map[models.Category][]map[string]any {
	return map[models.Category][]map[string]any{
		models.CategoryFuel: {
			{"id": "f1", "flightNumber": "TU123", "dateOfFlight": "2024-05-14", "timeOfDeparture": "10:30",
				"departureAirport": "DTTA", "arrivalAirport": "LFPG", "taxiFuel": 200.0, "tripFuel": 5400.0, "blockFuel": 6500.0},
			{"id": "f2", "flightNumber": "TU999", "dateOfFlight": "2024-05-14", "timeOfDeparture": "12:00",
				"departureAirport": "DTTA", "arrivalAirport": "LFPO"},
		},
		models.CategoryFlight: {
			{"id": "l1", "flightID": "TU123", "dateOfOperationUTC": "2024-05-14", "departureTimeUTC": "10:30",
				"departingAirportICAOCode": "DTTA", "destinationAirportICAOCode": "LFPG", "acRegistration": "TS-IMW"},
		},
	}
}

type harness struct {
	log       *eventLog
	source    *fakeSource
	writer    *fakeWriter
	refresher *fakeRefresher
	renderer  *fakeRenderer
	publisher *fakePublisher
	runs      *fakeRuns
	metrics   *metrics.Metrics
	orch      *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := &eventLog{}
	h := &harness{
		log:       log,
		source:    &fakeSource{log: log, records: sampleRecords()},
		writer:    &fakeWriter{log: log},
		refresher: &fakeRefresher{log: log, result: refresh.Result{Outcome: refresh.OutcomeSuccess, Success: true, Message: "ok"}},
		renderer:  &fakeRenderer{log: log},
		publisher: &fakePublisher{},
		runs:      &fakeRuns{},
		metrics:   metrics.NewMetrics("test", prometheus.NewRegistry()),
	}
	h.orch = NewOrchestrator(Dependencies{
		Source:     h.source,
		Writer:     h.writer,
		Reconciler: reconciliation.NewEngine(reconciliation.PolicyReject, nil),
		Refresher:  h.refresher,
		Renderer:   h.renderer,
		Publisher:  h.publisher,
		SheetRange: "Merged!A1",
		Runs:       h.runs,
		Metrics:    h.metrics,
	}, time.Minute, nil)
	return h
}

func TestRunFullUpdateCompletes(t *testing.T) {
	h := newHarness(t)

	out, err := h.orch.RunFullUpdate(context.Background(), models.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, models.RunCompleted, out.Status)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, []string{StageExport, StageReconcile, StageRefresh, StageHTML, StagePDF}, out.Details.Stages)
	assert.Equal(t, 2, out.Details.Records["fuel"])
	assert.Equal(t, 1, out.Details.Records["flight"])
	assert.Equal(t, 1, out.Details.MergedRows)
	assert.Equal(t, 1, out.Details.UnmatchedFuel)
	assert.Contains(t, out.Artifacts, models.CategoryMerged)

	merged := h.writer.tables[models.CategoryMerged]
	require.Equal(t, 1, merged.Len())
	assert.Equal(t, "TS-IMW", merged.Rows[0]["ACRegistration"])

	assert.Equal(t, "Merged!A1", h.publisher.sheetRange)
	require.Len(t, h.publisher.rows, 2)
	assert.Equal(t, "FlightID", h.publisher.rows[0][0])
	assert.Equal(t, []string{"Merged!A1"}, out.Details.PublishedSheets)

	require.Len(t, h.runs.inserts, 1)
	last, err := h.orch.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, last.Status)
	assert.NotNil(t, last.EndTime)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues("manual", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.UnmatchedRecords))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.RecordsExported.WithLabelValues("fuel")))
	assert.False(t, h.orch.Running())
}

func TestRunFullUpdateToleratesMalformedFields(t *testing.T) {
	h := newHarness(t)
	h.source.records[models.CategoryFuel] = append(h.source.records[models.CategoryFuel],
		map[string]any{"id": "f3", "flightNumber": "TU555", "dateOfFlight": "not-a-date", "timeOfDeparture": 0.4375,
			"departureAirport": "DTTA", "taxiFuel": "N/A", "tripFuel": true})
	h.source.records[models.CategoryFlight] = append(h.source.records[models.CategoryFlight],
		map[string]any{"id": "l2", "flightID": "TU555", "dateOfOperationUTC": "garbage", "departureTimeUTC": "N/A",
			"departingAirportICAOCode": "DTTA", "blockOnTonnes": "n/a"})

	out, err := h.orch.RunFullUpdate(context.Background(), models.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, models.RunCompleted, out.Status)
	assert.Equal(t, 3, out.Details.Records["fuel"])
	assert.Equal(t, 2, out.Details.Records["flight"])
	assert.Equal(t, 1, out.Details.MergedRows)
	assert.Equal(t, 2, out.Details.UnmatchedFuel)

	merged := h.writer.tables[models.CategoryMerged]
	require.Equal(t, 1, merged.Len())
	assert.Equal(t, "TS-IMW", merged.Rows[0]["ACRegistration"])
}

func TestRunFullUpdateBarriers(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.RunFullUpdate(context.Background(), models.TriggerScheduled)
	require.NoError(t, err)

	events := h.log.list()
	refreshAt := indexOfEvent(events, "refresh")
	require.NotEqual(t, -1, refreshAt)

	for _, c := range []string{"fuel", "flight"} {
		assert.Less(t, indexOfEvent(events, "write:"+c), indexOfEvent(events, "write:merged"))
		assert.Less(t, indexOfEvent(events, "write:merged"), refreshAt)
		assert.Less(t, refreshAt, indexOfEvent(events, "html:"+c))
		for _, other := range []string{"fuel", "flight"} {
			assert.Less(t, indexOfEvent(events, "html:"+c), indexOfEvent(events, "pdf:"+other),
				"html %s must finish before pdf %s", c, other)
		}
	}
}

func TestRunFullUpdateDegradedRefresh(t *testing.T) {
	h := newHarness(t)
	h.refresher.result = refresh.Result{Outcome: refresh.OutcomeDegraded, Warning: "using existing images"}

	out, err := h.orch.RunFullUpdate(context.Background(), models.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, models.RunDegraded, out.Status)
	assert.Contains(t, out.Details.Warnings, "using existing images")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.DegradedRefresh))
	assert.Contains(t, h.log.list(), "pdf:fuel")
}

func TestRunFullUpdateScriptReportsFailure(t *testing.T) {
	h := newHarness(t)
	h.refresher.result = refresh.Result{Outcome: refresh.OutcomeSuccess, Success: false, Message: "pbix locked"}

	out, err := h.orch.RunFullUpdate(context.Background(), models.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, out.Status)
	assert.Equal(t, "pbix locked", out.Details.RefreshMessage)
	require.Len(t, out.Details.Warnings, 1)
}

func TestRunFullUpdateStageFailuresAbort(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(h *harness)
		wantErr   error
		notAfter  string
		completed []string
	}{
		{
			name:      "fetch",
			setup:     func(h *harness) { h.source.err = errors.New("connection refused") },
			notAfter:  "refresh",
			completed: []string{},
		},
		{
			name:      "refresh",
			setup:     func(h *harness) { h.refresher.err = refresh.ErrStderrOutput },
			wantErr:   refresh.ErrStderrOutput,
			notAfter:  "html:fuel",
			completed: []string{StageExport, StageReconcile},
		},
		{
			name:      "pdf",
			setup:     func(h *harness) { h.renderer.pdfErr = errors.New("navigation timeout") },
			completed: []string{StageExport, StageReconcile, StageRefresh, StageHTML},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			out, err := h.orch.RunFullUpdate(context.Background(), models.TriggerManual)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, models.RunFailed, out.Status)
			assert.Equal(t, tt.completed, out.Details.Stages)
			if tt.notAfter != "" {
				assert.NotContains(t, h.log.list(), tt.notAfter)
			}

			last, _ := h.orch.LastRun(context.Background())
			require.NotNil(t, last)
			assert.Equal(t, models.RunFailed, last.Status)
			assert.NotEmpty(t, last.Error)
			assert.False(t, h.orch.Running())
		})
	}
}

func TestRunFullUpdateDuplicateKeysRejected(t *testing.T) {
	h := newHarness(t)
	flights := h.source.records[models.CategoryFlight]
	h.source.records[models.CategoryFlight] = append(flights, flights[0])

	_, err := h.orch.RunFullUpdate(context.Background(), models.TriggerManual)
	assert.ErrorIs(t, err, reconciliation.ErrDuplicateKey)
	assert.NotContains(t, h.log.list(), "refresh")
}

func TestRunFullUpdateSingleFlight(t *testing.T) {
	h := newHarness(t)
	h.source.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.orch.RunFullUpdate(context.Background(), models.TriggerScheduled)
		done <- err
	}()

	require.Eventually(t, h.orch.Running, time.Second, 5*time.Millisecond)

	_, err := h.orch.RunFullUpdate(context.Background(), models.TriggerManual)
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsRejected))

	close(h.source.block)
	require.NoError(t, <-done)
	assert.False(t, h.orch.Running())

	_, err = h.orch.RunFullUpdate(context.Background(), models.TriggerManual)
	assert.NoError(t, err)
}

func TestRunFullUpdateHonoursTimeout(t *testing.T) {
	h := newHarness(t)
	h.source.block = make(chan struct{})
	h.orch.runTimeout = 20 * time.Millisecond

	_, err := h.orch.RunFullUpdate(context.Background(), models.TriggerScheduled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunFullUpdateWithoutOptionalDeps(t *testing.T) {
	log := &eventLog{}
	orch := NewOrchestrator(Dependencies{
		Source:    &fakeSource{log: log, records: sampleRecords()},
		Writer:    &fakeWriter{log: log},
		Refresher: &fakeRefresher{log: log, result: refresh.Result{Outcome: refresh.OutcomeSuccess, Success: true}},
		Renderer:  &fakeRenderer{log: log},
	}, 0, nil)

	out, err := orch.RunFullUpdate(context.Background(), models.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, out.Status)
	assert.Empty(t, out.Details.PublishedSheets)

	last, err := orch.LastRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}
