package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/clinic-scheduler/internal/db"
	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	infraRepo "github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/routes"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	"github.com/BruksfildServices01/clinic-scheduler/internal/tracer"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("clinic-scheduler: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(reg, cfg.App.Name)

	db, err := dbpkg.NewDB(cfg.Database, zl)
	if err != nil {
		return err
	}

	// --------------------------------------------------
	// Post-commit events: audit trail + doctor notification
	// --------------------------------------------------
	auditStore := audit.NewGormStore(db)

	var notifier notify.Notifier = notify.NewLogNotifier(zl)
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Warn("redis unreachable at startup, notifications will retry via breaker", zap.Error(err))
		}
		notifier = notify.NewRedisNotifier(rdb, cfg.Redis.NotifyKey, notify.DefaultBreakerSettings(), zl)
	}

	dispatcher := events.NewDispatcher(zl, m, events.Options{
		Buffer:         cfg.Events.Buffer,
		Workers:        cfg.Events.Workers,
		HandlerTimeout: cfg.Events.HandlerTimeout,
	},
		audit.New(auditStore),
		notify.NewEventHandler(notifier, m),
	)

	// --------------------------------------------------
	// HTTP
	// --------------------------------------------------
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Config:       cfg,
		Log:          zl,
		Metrics:      m,
		Gatherer:     reg,
		Appointments: infraRepo.NewAppointmentGormRepository(db),
		Users:        infraRepo.NewUserGormRepository(db),
		AuditStore:   auditStore,
		Events:       dispatcher,
		Clock:        timezone.NewClock(cfg.Scheduling.Timezone),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
	case <-ctx.Done():
	}

	// --------------------------------------------------
	// Shutdown: stop intake, drain events, close backends
	// --------------------------------------------------
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		zl.Warn("event queue not fully drained", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			zl.Warn("closing redis", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			zl.Warn("closing database", zap.Error(err))
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		zl.Warn("tracer shutdown", zap.Error(err))
	}

	return nil
}
