package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/redis"
	"github.com/openshelf/reputation/internal/setup"
	"github.com/openshelf/reputation/internal/setup/telemetry"
	"github.com/openshelf/reputation/internal/worker/core"
	"github.com/openshelf/reputation/internal/worker/leaderboard"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// WorkerLogDir specifies where worker log files are stored.
const WorkerLogDir = "logs/worker_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "worker",
		Usage: "Start an OpenShelf reputation worker",
		Commands: []*cli.Command{
			{
				Name:  leaderboard.WorkerType,
				Usage: "Periodically recalculate the leaderboard and the top-rank flag",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runLeaderboardWorker(ctx)
				},
			},
			{
				Name:  "status",
				Usage: "List the status of running workers",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return printStatuses(ctx)
				},
			},
		},
	}

	return app.Run(ctx, os.Args)
}

// runLeaderboardWorker runs the leaderboard worker until the context ends.
func runLeaderboardWorker(ctx context.Context) error {
	workerID := uuid.NewString()

	app, err := setup.InitializeApp(ctx, telemetry.ServiceWorker, WorkerLogDir, leaderboard.WorkerType, workerID)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	logger := app.LogManager.GetWorkerLogger(leaderboard.WorkerType + "_worker")
	reporter := core.NewStatusReporter(app.StatusClient, leaderboard.WorkerType, workerID, logger)
	cache := redis.NewJSONCache(
		app.CacheClient, redis.LeaderboardCachePrefix,
		time.Duration(app.Config.API.Cache.LeaderboardTTL)*time.Second, logger,
	)

	worker := leaderboard.New(app.Services.Ranking(), cache, reporter, &app.Config.Worker, logger)
	worker.Start(ctx)

	logger.Info("Leaderboard worker stopped", zap.String("workerID", workerID))

	return nil
}

// printStatuses prints every worker heartbeat stored in Redis.
func printStatuses(ctx context.Context) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceCLI, WorkerLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	statuses, err := core.NewMonitor(app.StatusClient, app.Logger).GetAllStatuses(ctx)
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		fmt.Println("No workers reporting")
		return nil
	}

	now := time.Now()
	for _, status := range statuses {
		state := "healthy"

		switch {
		case status.IsStale(now):
			state = "stale"
		case !status.IsHealthy:
			state = "unhealthy: " + status.LastError
		}

		fmt.Printf("%s %s  %s  task=%q  lastRun=%s\n",
			status.WorkerType, status.WorkerID, state, status.CurrentTask,
			status.LastRun.Format(time.RFC3339))
	}

	return nil
}
