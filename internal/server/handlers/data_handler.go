package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
	"github.com/mamadbah2/fuelsync/internal/repository/mongodb"
	"github.com/mamadbah2/fuelsync/internal/service/reconciliation"
)

// DataHandler serves the record collections as JSON.
type DataHandler struct {
	store  mongodb.RecordStore
	engine *reconciliation.Engine
	logger *zap.Logger
}

// NewDataHandler constructs the data endpoints.
func NewDataHandler(store mongodb.RecordStore, engine *reconciliation.Engine, logger *zap.Logger) *DataHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = reconciliation.NewEngine(reconciliation.PolicyReject, logger)
	}
	return &DataHandler{store: store, engine: engine, logger: logger}
}

// Records returns every record of the requested category.
func (h *DataHandler) Records(c *gin.Context) {
	category, err := models.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var data any
	switch category {
	case models.CategoryFuel:
		data, err = h.store.ListFuelRecords(ctx)
	case models.CategoryFlight:
		data, err = h.store.ListFlightRecords(ctx)
	default:
		h.Merged(c)
		return
	}
	if err != nil {
		h.logger.Error("failed to load records", zap.String("category", string(category)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Merged returns the reconciled fuel/flight view.
func (h *DataHandler) Merged(c *gin.Context) {
	ctx := c.Request.Context()

	fuel, err := h.store.ListFuelRecords(ctx)
	if err != nil {
		h.logger.Error("failed to load fuel records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load records"})
		return
	}
	flights, err := h.store.ListFlightRecords(ctx)
	if err != nil {
		h.logger.Error("failed to load flight records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load records"})
		return
	}

	result, err := h.engine.Reconcile(fuel, flights)
	if err != nil {
		h.logger.Error("reconciliation failed", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
		return
	}

	rows := result.Rows
	if rows == nil {
		rows = []models.MergedRow{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      rows,
		"unmatched": result.Unmatched,
	})
}
