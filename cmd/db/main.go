package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/openshelf/reputation/cmd/db/commands"
	"github.com/openshelf/reputation/internal/database"
	"github.com/openshelf/reputation/internal/database/migrations"
	"github.com/openshelf/reputation/internal/redis"
	"github.com/openshelf/reputation/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	deps, cleanup, err := setupDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer cleanup()

	app := &cli.Command{
		Name:  "db",
		Usage: "Reputation database management tool",
		Commands: slices.Concat(
			commands.MigrationCommands(deps),
			commands.ReputationCommands(deps),
			commands.LeaderboardCommands(deps),
		),
	}

	return app.Run(ctx, os.Args)
}

// setupDependencies connects to PostgreSQL and Redis and builds the services.
func setupDependencies(ctx context.Context) (*commands.CLIDependencies, func(), error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, logger, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	cleanup := func() {
		redisManager.Close()
		_ = db.Close()
		_ = logger.Sync()
	}

	lockClient, err := redisManager.GetClient(redis.LockDBIndex)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to get lock client: %w", err)
	}

	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to get cache client: %w", err)
	}

	services := database.NewService(
		db.Model(), redis.NewLocker(lockClient, logger), &cfg.Common.Reputation, logger,
	)
	cache := redis.NewJSONCache(
		cacheClient, redis.LeaderboardCachePrefix,
		time.Duration(cfg.API.Cache.LeaderboardTTL)*time.Second, logger,
	)

	return &commands.CLIDependencies{
		DB:       db,
		Migrator: migrate.NewMigrator(db.DB(), migrations.Migrations),
		Services: services,
		Cache:    cache,
		Logger:   logger,
	}, cleanup, nil
}
