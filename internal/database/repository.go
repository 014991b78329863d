package database

import (
	"github.com/openshelf/reputation/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	user        *models.UserModel
	reputation  *models.ReputationModel
	achievement *models.AchievementModel
	ranking     *models.RankingModel
	source      *models.SourceModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		user:        models.NewUser(db, logger),
		reputation:  models.NewReputation(db, logger),
		achievement: models.NewAchievement(db, logger),
		ranking:     models.NewRanking(db, logger),
		source:      models.NewSource(db, logger),
	}
}

// User returns the user model repository.
func (r *Repository) User() *models.UserModel {
	return r.user
}

// Reputation returns the reputation ledger model repository.
func (r *Repository) Reputation() *models.ReputationModel {
	return r.reputation
}

// Achievement returns the achievement model repository.
func (r *Repository) Achievement() *models.AchievementModel {
	return r.achievement
}

// Ranking returns the ranking model repository.
func (r *Repository) Ranking() *models.RankingModel {
	return r.ranking
}

// Source returns the source activity model repository.
func (r *Repository) Source() *models.SourceModel {
	return r.source
}
