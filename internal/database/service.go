package database

import (
	"time"

	"github.com/openshelf/reputation/internal/database/service"
	"github.com/openshelf/reputation/internal/setup/config"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	ledger      *service.LedgerService
	achievement *service.AchievementService
	ranking     *service.RankingService
	history     *service.HistoryService
	profile     *service.ProfileService
}

// NewService wires every service on top of the repository models. The locker
// guards the historical migration across processes.
func NewService(repository *Repository, locker service.Locker, cfg *config.Reputation, logger *zap.Logger) *Service {
	userModel := repository.User()
	reputationModel := repository.Reputation()

	achievementService := service.NewAchievement(repository.Achievement(), logger)

	return &Service{
		ledger:      service.NewLedger(userModel, reputationModel, achievementService, logger),
		achievement: achievementService,
		ranking: service.NewRanking(
			repository.Ranking(), cfg.DefaultLeaderboardLimit, cfg.MaxLeaderboardLimit, logger,
		),
		history: service.NewHistory(
			userModel, reputationModel, repository.Source(), locker, achievementService,
			service.HistoryConfig{
				BatchSize:   cfg.MigrationBatchSize,
				Concurrency: cfg.MigrationConcurrency,
				LockTTL:     time.Duration(cfg.MigrationLockTTL) * time.Second,
			},
			logger,
		),
		profile: service.NewProfile(userModel, reputationModel, achievementService, logger),
	}
}

// Ledger returns the point ledger service.
func (s *Service) Ledger() *service.LedgerService {
	return s.ledger
}

// Achievement returns the achievement evaluator service.
func (s *Service) Achievement() *service.AchievementService {
	return s.achievement
}

// Ranking returns the ranking materializer service.
func (s *Service) Ranking() *service.RankingService {
	return s.ranking
}

// History returns the historical migration service.
func (s *Service) History() *service.HistoryService {
	return s.history
}

// Profile returns the reputation profile service.
func (s *Service) Profile() *service.ProfileService {
	return s.profile
}
