package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"session-keeper/internal/observability/logging"
	obsmetrics "session-keeper/internal/observability/metrics"
	"session-keeper/internal/observability/slo"
	"session-keeper/internal/observability/tracing"
	"session-keeper/internal/session"
	"session-keeper/internal/storage"
	"session-keeper/pkg/config"
	"session-keeper/pkg/resilience"
)

const (
	defaultSweepSchedule = "*/5 * * * *"
	restoreTimeout       = 2 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init(ctx)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	cfg := session.LoadConfigFromEnv(logger)
	resMetrics := resilience.NewPrometheusMetrics()
	cfg.Metrics = resMetrics

	store := initStorage(logger)

	mgr, err := session.NewManager(cfg, session.NewNoopRuntime(), store, logger)
	if err != nil {
		logger.Error("failed to initialize session manager", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("session manager initialized",
		slog.Int("max_sessions", cfg.MaxSessions),
		slog.Duration("idle_ttl", cfg.IdleTTL),
		slog.Bool("persistence", store != nil))

	restoreSessions(ctx, logger, mgr)

	startMetricsServer(ctx, logger, mgr, resMetrics.Registry())

	c, err := startSweeper(logger, mgr)
	if err != nil {
		logger.Error("failed to start sweeper", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("daemon started")
	<-ctx.Done()
	logger.Info("shutdown initiated")

	sweepCtx := c.Stop()
	<-sweepCtx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := mgr.CloseAll(closeCtx); err != nil {
		logger.Error("failed to close sessions", slog.Any("error", err))
	}
	logger.Info("daemon stopped")
}

// initLogger initializes the process-wide structured logger.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initStorage builds the snapshot store. Persistence can be switched off
// entirely; a store that cannot be opened degrades to no persistence
// instead of refusing to start.
func initStorage(logger *slog.Logger) storage.Adapter {
	if !config.GetEnvBool("KEEPER_PERSIST_ENABLED", true) {
		logger.Info("session persistence disabled")
		return nil
	}

	dir := config.GetEnvString("KEEPER_PERSIST_DIR", "data/sessions")
	fs, err := storage.NewFileSystemAdapter(dir)
	if err != nil {
		logger.Warn("failed to open snapshot store, persistence disabled",
			slog.String("dir", dir),
			slog.Any("error", err))
		return nil
	}

	logger.Info("snapshot store opened", slog.String("dir", dir))
	return storage.NewGuarded(fs, storage.DefaultGuardConfig())
}

// restoreSessions relaunches persisted sessions at startup. Restore
// failures are not fatal; the daemon starts with whatever came back.
func restoreSessions(ctx context.Context, logger *slog.Logger, mgr *session.Manager) {
	restoreCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
	defer cancel()

	ctx, span := tracing.GetTracer().Start(restoreCtx, "restore-sessions")
	defer span.End()

	restored, err := mgr.Restore(ctx)
	if err != nil {
		logger.Warn("session restore incomplete",
			slog.Int("restored", restored),
			slog.Any("error", err))
		return
	}
	if restored > 0 {
		logger.Info("sessions restored", slog.Int("count", restored))
	}
}

// startSweeper schedules the periodic idle-session sweep.
func startSweeper(logger *slog.Logger, mgr *session.Manager) (*cron.Cron, error) {
	schedule := config.GetEnvString("KEEPER_SWEEP_SCHEDULE", defaultSweepSchedule)
	if err := config.ValidateCronSchedule(schedule); err != nil {
		logger.Warn("invalid sweep schedule, using default",
			slog.String("schedule", schedule),
			slog.Any("error", err))
		schedule = defaultSweepSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		runSweepJob(logger, mgr)
	}); err != nil {
		return nil, err
	}
	c.Start()

	logger.Info("sweeper started", slog.String("schedule", schedule))
	return c, nil
}

// runSweepJob executes one idle-session sweep with timeout and metrics.
func runSweepJob(logger *slog.Logger, mgr *session.Manager) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ctx, span := tracing.GetTracer().Start(ctx, "sweep-sessions")
	defer span.End()

	closed, err := mgr.Sweep(ctx)
	obsmetrics.RecordSweep(closed, time.Since(start))
	updateSLO(mgr)

	if err != nil {
		logger.Error("sweep failed",
			slog.Int("closed", closed),
			slog.Any("error", err))
		return
	}
	logger.Debug("sweep completed",
		slog.Int("closed", closed),
		slog.Duration("duration", time.Since(start)))
}

// updateSLO refreshes the SLO gauges from the current runtime state.
func updateSLO(mgr *session.Manager) {
	if mgr.BreakerStats().State == resilience.StateOpen {
		slo.UpdateRuntimeAvailability(0)
	} else {
		slo.UpdateRuntimeAvailability(1)
	}

	if total, failures := mgr.LaunchStats(); total > 0 {
		slo.UpdateLaunchFailureRate(float64(failures) / float64(total))
	}
}
