package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/openshelf/reputation/internal/database/types"
	"github.com/openshelf/reputation/internal/setup/config"
	"github.com/openshelf/reputation/internal/worker/core"
	"github.com/openshelf/reputation/pkg/utils"
	"go.uber.org/zap"
)

const (
	// WorkerType identifies this worker in status reports.
	WorkerType = "leaderboard"

	defaultInterval = 5 * time.Minute
	defaultTimeout  = time.Minute
)

// Ranker computes the leaderboard and checks the top-rank flag.
type Ranker interface {
	ComputeRanking(ctx context.Context, limit int, recalculateTopFlag bool) ([]*types.LeaderboardEntry, error)
	CheckTopRank(ctx context.Context) error
}

// Invalidator drops cached leaderboards.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Worker periodically recalculates the leaderboard and the top-rank flag.
type Worker struct {
	ranking      Ranker
	cache        Invalidator
	reporter     *core.StatusReporter
	interval     time.Duration
	timeout      time.Duration
	startupDelay time.Duration
	limit        int
	logger       *zap.Logger
}

// New creates a new leaderboard worker. Zero durations in the config fall
// back to defaults; a zero limit uses the ranking service's default.
func New(
	ranking Ranker, cache Invalidator, reporter *core.StatusReporter, cfg *config.WorkerConfig, logger *zap.Logger,
) *Worker {
	interval := time.Duration(cfg.Leaderboard.Interval) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}

	timeout := time.Duration(cfg.Leaderboard.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Worker{
		ranking:      ranking,
		cache:        cache,
		reporter:     reporter,
		interval:     interval,
		timeout:      timeout,
		startupDelay: time.Duration(cfg.StartupDelay) * time.Millisecond,
		limit:        cfg.Leaderboard.Limit,
		logger:       logger.Named("leaderboard_worker"),
	}
}

// Start runs refresh cycles until ctx is cancelled. A failed cycle marks the
// worker unhealthy and is retried on the next tick.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Leaderboard Worker started",
		zap.String("workerID", w.reporter.GetWorkerID()),
		zap.Duration("interval", w.interval))

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	if w.startupDelay > 0 {
		w.reporter.UpdateStatus("Waiting for startup delay")

		if !utils.SleepContextWithLog(ctx, w.startupDelay, w.logger, "Context cancelled during startup delay") {
			return
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error("Leaderboard refresh failed", zap.Error(err))
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.logger.Info("Context cancelled, stopping leaderboard worker")
			return
		}
	}
}

// RunOnce performs one refresh cycle within the configured timeout.
func (w *Worker) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	w.reporter.UpdateStatus("Recalculating leaderboard")

	err := w.refresh(ctx)
	w.reporter.RecordRun(start, err)
	w.reporter.UpdateStatus("Idle")
	w.reporter.Report(ctx)

	return err
}

func (w *Worker) refresh(ctx context.Context) error {
	entries, err := w.ranking.ComputeRanking(ctx, w.limit, true)
	if err != nil {
		return fmt.Errorf("failed to compute ranking: %w", err)
	}

	if err := w.ranking.CheckTopRank(ctx); err != nil {
		return fmt.Errorf("top rank check failed: %w", err)
	}

	if err := w.cache.Invalidate(ctx); err != nil {
		w.logger.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
	}

	fields := []zap.Field{zap.Int("entries", len(entries))}
	if len(entries) > 0 {
		fields = append(fields,
			zap.String("topUserID", entries[0].User.ID.String()),
			zap.Int64("topReputation", entries[0].User.Reputation))
	}

	w.logger.Info("Refreshed leaderboard", fields...)

	return nil
}
