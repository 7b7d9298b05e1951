package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
	"github.com/mamadbah2/fuelsync/internal/scheduler"
)

// Trigger starts a manual run.
type Trigger interface {
	Trigger(ctx context.Context) scheduler.TriggerResult
	Next() time.Time
}

// RunState exposes the live state of the orchestrator.
type RunState interface {
	Running() bool
	LastRun(ctx context.Context) (*models.RunRecord, error)
}

// RunHistory lists recorded runs.
type RunHistory interface {
	ListRuns(ctx context.Context, filter models.RunFilter) ([]models.RunRecord, error)
}

// PipelineHandler exposes the run controls.
type PipelineHandler struct {
	trigger Trigger
	state   RunState
	history RunHistory
	logger  *zap.Logger
}

// NewPipelineHandler constructs the pipeline endpoints.
func NewPipelineHandler(trigger Trigger, state RunState, history RunHistory, logger *zap.Logger) *PipelineHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineHandler{trigger: trigger, state: state, history: history, logger: logger}
}

// Run executes the pipeline synchronously. A client disconnect does not
// abort the run; the run timeout still applies.
func (h *PipelineHandler) Run(c *gin.Context) {
	res := h.trigger.Trigger(context.WithoutCancel(c.Request.Context()))

	status := http.StatusOK
	switch {
	case res.InProgress:
		status = http.StatusConflict
	case !res.Success:
		status = http.StatusInternalServerError
	}

	if !res.Success {
		h.logger.Warn("manual run did not succeed", zap.String("message", res.Message))
	}
	c.JSON(status, res)
}

// Status reports whether a run is in flight and the last recorded run.
func (h *PipelineHandler) Status(c *gin.Context) {
	last, err := h.state.LastRun(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load last run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load run state"})
		return
	}

	body := gin.H{
		"success": true,
		"running": h.state.Running(),
		"lastRun": last,
	}
	if next := h.trigger.Next(); !next.IsZero() {
		body["nextRun"] = next
	}
	c.JSON(http.StatusOK, body)
}

// History lists past runs, newest first.
func (h *PipelineHandler) History(c *gin.Context) {
	filter, err := parseRunFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	runs, err := h.history.ListRuns(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load run history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": runs})
}

func parseRunFilter(c *gin.Context) (models.RunFilter, error) {
	var filter models.RunFilter

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			return filter, errors.New("limit must be between 1 and 100")
		}
		filter.Limit = limit
	}

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseRunStatus(raw)
		if !ok {
			return filter, fmt.Errorf("unknown status %q", raw)
		}
		filter.Status = status
	}

	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("%s must be an RFC3339 timestamp", key)
		}
		*dst = &t
	}

	return filter, nil
}
