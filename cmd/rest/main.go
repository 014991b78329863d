package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openshelf/reputation/internal/redis"
	"github.com/openshelf/reputation/internal/rest"
	"github.com/openshelf/reputation/internal/setup"
	"github.com/openshelf/reputation/internal/setup/telemetry"
	"go.uber.org/zap"
)

// RESTLogDir specifies where REST server log files are stored.
const RESTLogDir = "logs/rest_logs"

// Server timeouts used when the config leaves them unset.
const (
	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	ShutdownTimeout     = 30 * time.Second
)

//	@title			OpenShelf Reputation API
//	@version		1.0
//	@description	Reputation, achievements and leaderboard for OpenShelf developers

//	@BasePath	/v1
func main() {
	app, err := setup.InitializeApp(context.Background(), telemetry.ServiceAPI, RESTLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup(context.Background())

	apiConfig := &app.Config.API
	cache := redis.NewJSONCache(
		app.CacheClient, redis.LeaderboardCachePrefix,
		time.Duration(apiConfig.Cache.LeaderboardTTL)*time.Second, app.Logger,
	)

	handler := rest.NewServer(rest.Services{
		Ledger:       app.Services.Ledger(),
		Ranking:      app.Services.Ranking(),
		Profile:      app.Services.Profile(),
		Catalog:      app.Services.Achievement(),
		HistoryLimit: app.Config.Common.Reputation.HistoryLimit,
	}, cache, app.Logger)

	addr := fmt.Sprintf("%s:%d", apiConfig.Server.Host, apiConfig.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  secondsOr(apiConfig.Server.ReadTimeout, DefaultReadTimeout),
		WriteTimeout: secondsOr(apiConfig.Server.WriteTimeout, DefaultWriteTimeout),
	}

	go func() {
		app.Logger.Info("REST server started", zap.String("addr", addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("Failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	app.Logger.Info("Shutting down REST server...")

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")
}

// secondsOr converts a config value in seconds, falling back when unset.
func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}

	return time.Duration(seconds) * time.Second
}
