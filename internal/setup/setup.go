package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/openshelf/reputation/internal/database"
	"github.com/openshelf/reputation/internal/database/migrations"
	"github.com/openshelf/reputation/internal/redis"
	"github.com/openshelf/reputation/internal/setup/config"
	"github.com/openshelf/reputation/internal/setup/telemetry"
	"github.com/redis/rueidis"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// Version is reported with traces and set at build time.
var Version = "dev" //nolint:gochecknoglobals // -ldflags

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	Services     *database.Service  // Reputation services
	RedisManager *redis.Manager     // Redis connection manager
	StatusClient rueidis.Client     // Redis client for worker status reporting
	CacheClient  rueidis.Client     // Redis client for response caching
	LogManager   *telemetry.Manager // Log management system
	tracing      bool
}

// InitializeApp bootstraps all application dependencies in order. Workers can
// provide their type and ID for log and status identification.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string, workerInfo ...string) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	var workerType, workerID string
	if len(workerInfo) >= 2 {
		workerType = workerInfo[0]
		workerID = workerInfo[1]
	}

	// Logging is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, workerType, workerID)

	tracing := telemetry.ConfigureTracing(&cfg.Common.Telemetry, Version)
	if tracing {
		logManager.EnableTracing()
	}

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	db, err := checkAndRunMigrations(ctx, &cfg.Common.PostgreSQL, dbLogger)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	clients, err := getRedisClients(redisManager, redis.LockDBIndex, redis.WorkerStatusDBIndex, redis.CacheDBIndex)
	if err != nil {
		db.Close()
		return nil, err
	}

	lockClient, statusClient, cacheClient := clients[0], clients[1], clients[2]

	services := database.NewService(
		db.Model(), redis.NewLocker(lockClient, logger), &cfg.Common.Reputation, logger,
	)

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		Services:     services,
		RedisManager: redisManager,
		StatusClient: statusClient,
		CacheClient:  cacheClient,
		LogManager:   logManager,
		tracing:      tracing,
	}, nil
}

// Cleanup shuts down all components in reverse initialization order. Errors
// are logged so that every component gets a cleanup attempt.
func (s *App) Cleanup(ctx context.Context) {
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if s.tracing {
		if err := telemetry.ShutdownTracing(ctx); err != nil {
			log.Printf("Failed to flush traces: %v", err)
		}
	}

	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Redis goes last as other components might need it during cleanup
	s.RedisManager.Close()
}

// redisClientSource hands out one Redis client per database index.
type redisClientSource interface {
	GetClient(dbIndex int) (rueidis.Client, error)
	Close()
}

// getRedisClients returns one client per database index, in the given order.
// On failure every client opened so far is closed.
func getRedisClients(source redisClientSource, dbIndexes ...int) ([]rueidis.Client, error) {
	clients := make([]rueidis.Client, 0, len(dbIndexes))

	for _, dbIndex := range dbIndexes {
		client, err := source.GetClient(dbIndex)
		if err != nil {
			source.Close()
			return nil, fmt.Errorf("failed to get redis client for database %d: %w", dbIndex, err)
		}

		clients = append(clients, client)
	}

	return clients, nil
}

// checkAndRunMigrations connects to the database and offers to apply pending
// migrations.
func checkAndRunMigrations(ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger) (database.Client, error) {
	tempDB, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(tempDB.DB(), migrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		tempDB.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		tempDB.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if len(ms.Unapplied()) == 0 {
		return tempDB, nil
	}

	log.Println("Database migrations are pending. Would you like to run them now? (y/N)")

	var response string

	_, _ = fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		tempDB.Close()
		log.Fatalf("Closing program due to incomplete migrations")
	}

	tempDB.Close()

	return database.NewConnection(ctx, cfg, dbLogger, true)
}
