package rest

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/openshelf/reputation/internal/rest/handler"
	"github.com/openshelf/reputation/internal/rest/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Services groups the business services exposed over HTTP.
type Services struct {
	Ledger       handler.Ledger
	Ranking      handler.Ranking
	Profile      handler.Profile
	Catalog      handler.Catalog
	HistoryLimit int
}

// Server implements the REST API service.
type Server struct {
	leaderboardHandler *handler.LeaderboardHandler
	userHandler        *handler.UserHandler
	achievementHandler *handler.AchievementHandler
}

// NewServer creates a new REST API server. The cache holds rendered
// leaderboards and is invalidated by every award or revoke.
func NewServer(services Services, cache handler.Cache, logger *zap.Logger) http.Handler {
	server := &Server{
		leaderboardHandler: handler.NewLeaderboardHandler(services.Ranking, cache, logger),
		userHandler: handler.NewUserHandler(
			services.Ledger, services.Profile, cache, services.HistoryLimit, logger,
		),
		achievementHandler: handler.NewAchievementHandler(services.Catalog),
	}

	loggingMiddleware := middleware.NewLogging(logger)

	router := bunrouter.New()

	router.Use(loggingMiddleware.AsRESTMiddleware).WithGroup("/v1", func(g *bunrouter.Group) {
		g.GET("/leaderboard", server.leaderboardHandler.GetLeaderboard)
		g.GET("/achievements", server.achievementHandler.ListAchievements)
		g.GET("/users/:id/reputation", server.userHandler.GetReputation)
		g.POST("/users/:id/events", server.userHandler.AwardEvent)
		g.POST("/users/:id/events/revoke", server.userHandler.RevokeEvent)
	})

	router.GET("/healthz", func(w http.ResponseWriter, _ bunrouter.Request) error {
		w.WriteHeader(http.StatusOK)
		return nil
	})

	router.GET("/metrics", bunrouter.HTTPHandler(promhttp.Handler()))

	return gzhttp.GzipHandler(router)
}
