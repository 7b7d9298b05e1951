package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/config"
	"github.com/mamadbah2/fuelsync/internal/domain/models"
	"github.com/mamadbah2/fuelsync/internal/repository/mongodb"
	"github.com/mamadbah2/fuelsync/internal/repository/sheets"
	"github.com/mamadbah2/fuelsync/internal/scheduler"
	"github.com/mamadbah2/fuelsync/internal/server/handlers"
	"github.com/mamadbah2/fuelsync/internal/server/router"
	"github.com/mamadbah2/fuelsync/internal/service/export"
	"github.com/mamadbah2/fuelsync/internal/service/pipeline"
	"github.com/mamadbah2/fuelsync/internal/service/reconciliation"
	"github.com/mamadbah2/fuelsync/internal/service/refresh"
	"github.com/mamadbah2/fuelsync/internal/service/render"
	"github.com/mamadbah2/fuelsync/pkg/clients/recordapi"
	"github.com/mamadbah2/fuelsync/pkg/logger"
	"github.com/mamadbah2/fuelsync/pkg/metrics"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB, baseLogger.Named("repo.mongodb"))
	cancelConnect()
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}

	var publisher pipeline.SheetPublisher
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		publisher = sheetsRepo
		baseLogger.Info("merged view mirror enabled", zap.String("range", cfg.Sheets.MergedRange))
	} else {
		baseLogger.Warn("google sheet id missing, merged view mirror disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(cfg.Pipeline.MetricsPrefix, registry)

	writer, err := export.NewWriter(cfg.Pipeline.DataDir, cfg.Pipeline.ReportsDir, baseLogger.Named("svc.export"))
	if err != nil {
		baseLogger.Fatal("failed to prepare output directories", zap.Error(err))
	}

	var images []string
	for _, c := range models.ReportCategories {
		images = append(images, writer.Artifacts(c).Image)
	}
	invoker := refresh.NewInvoker(refresh.ExecRunner{}, refresh.Options{
		Interpreter:    cfg.Refresh.Interpreter,
		Script:         cfg.Refresh.Script,
		Timeout:        cfg.Refresh.Timeout,
		FallbackImages: images,
	}, baseLogger.Named("svc.refresh"))

	renderer := render.NewManager(render.ChromeLauncher(cfg.Render.ChromePath), render.Options{
		DataDir:           cfg.Pipeline.DataDir,
		ReportsDir:        cfg.Pipeline.ReportsDir,
		NavigationTimeout: cfg.Render.NavigationTimeout,
		SettleDelay:       cfg.Render.SettleDelay,
	}, baseLogger.Named("render"))

	engine := reconciliation.NewEngine(reconciliation.DuplicatePolicy(cfg.Pipeline.DuplicatePolicy), baseLogger.Named("svc.reconciliation"))

	orchestrator := pipeline.NewOrchestrator(pipeline.Dependencies{
		Source:     recordapi.NewClient(cfg.API),
		Writer:     writer,
		Reconciler: engine,
		Refresher:  invoker,
		Renderer:   renderer,
		Publisher:  publisher,
		SheetRange: cfg.Sheets.MergedRange,
		Runs:       mongoRepo,
		Metrics:    appMetrics,
	}, cfg.Pipeline.RunTimeout, baseLogger.Named("svc.pipeline"))

	// Initialize Scheduler
	location := scheduler.LoadLocation(cfg.Pipeline.Timezone, baseLogger)
	sched := scheduler.NewScheduler(cfg.Pipeline.CronSchedule, location, orchestrator, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	httpEngine := router.New(router.Handlers{
		Data:     handlers.NewDataHandler(mongoRepo, engine, baseLogger.Named("handlers.data")),
		Pipeline: handlers.NewPipelineHandler(sched, orchestrator, mongoRepo, baseLogger.Named("handlers.pipeline")),
		Reports:  handlers.NewReportHandler(cfg.Pipeline.DataDir, cfg.Pipeline.ReportsDir, baseLogger.Named("handlers.reports")),
	}, cfg.API.Token, registry, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpEngine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
	if err := renderer.Close(); err != nil {
		baseLogger.Error("failed to close headless browser", zap.Error(err))
	}
	if err := mongoRepo.Close(shutdownCtx); err != nil {
		baseLogger.Error("failed to close mongodb connection", zap.Error(err))
	}
}
