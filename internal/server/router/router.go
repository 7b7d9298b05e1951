package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/server/handlers"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Data     *handlers.DataHandler
	Pipeline *handlers.PipelineHandler
	Reports  *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares. Everything
// under /api requires the shared bearer token.
func New(h Handlers, token string, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api", bearerAuth(token))
	{
		api.GET("/data/json/:category", h.Data.Records)
		api.GET("/data/merged", h.Data.Merged)

		api.POST("/pipeline/run", h.Pipeline.Run)
		api.GET("/pipeline/status", h.Pipeline.Status)
		api.GET("/pipeline/history", h.Pipeline.History)

		api.GET("/reports/:category/pdf", h.Reports.PDF)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func bearerAuth(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
