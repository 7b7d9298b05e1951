package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

// ReportHandler serves generated report files.
type ReportHandler struct {
	dataDir    string
	reportsDir string
	logger     *zap.Logger
}

// NewReportHandler constructs the download endpoints.
func NewReportHandler(dataDir, reportsDir string, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{dataDir: dataDir, reportsDir: reportsDir, logger: logger}
}

// PDF downloads the last rendered PDF of a category.
func (h *ReportHandler) PDF(c *gin.Context) {
	category, err := models.ParseCategory(c.Param("category"))
	if err != nil || !category.HasReport() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "category must be fuel or flight"})
		return
	}

	path := models.ArtifactsFor(category, h.dataDir, h.reportsDir).PDF
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			h.logger.Error("failed to stat report", zap.String("path", path), zap.Error(err))
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "report not generated yet"})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}
