package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/dbretry"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AchievementModel handles database operations for unlocked achievements.
type AchievementModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAchievement creates an AchievementModel.
func NewAchievement(db *bun.DB, logger *zap.Logger) *AchievementModel {
	return &AchievementModel{
		db:     db,
		logger: logger.Named("db_achievement"),
	}
}

// GetCounters returns the cached counters of a user.
func (r *AchievementModel) GetCounters(ctx context.Context, userID uuid.UUID) (types.Counters, error) {
	user, err := dbretry.Operation(ctx, "get counters", func(ctx context.Context) (*types.User, error) {
		var user types.User

		err := r.db.NewSelect().
			Model(&user).
			Column("id", "project_count", "followers_count", "likes_received", "comments_received").
			Where("id = ?", userID).
			Scan(ctx)

		return &user, err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Counters{}, types.NewUserNotFound(userID)
		}

		return types.Counters{}, fmt.Errorf("failed to get counters: %w", err)
	}

	return user.Counters, nil
}

// GetUnlocked returns the achievements a user has unlocked, oldest first.
func (r *AchievementModel) GetUnlocked(ctx context.Context, userID uuid.UUID) ([]*types.UserAchievement, error) {
	unlocked, err := dbretry.Operation(ctx, "get achievements", func(ctx context.Context) ([]*types.UserAchievement, error) {
		var unlocked []*types.UserAchievement

		err := r.db.NewSelect().
			Model(&unlocked).
			Where("user_id = ?", userID).
			Order("unlocked_at ASC", "achievement_id ASC").
			Scan(ctx)

		return unlocked, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocked achievements: %w", err)
	}

	return unlocked, nil
}

// Unlock records unlocked achievements. Achievements that are already unlocked
// are left untouched.
func (r *AchievementModel) Unlock(ctx context.Context, achievements []*types.UserAchievement) error {
	if len(achievements) == 0 {
		return nil
	}

	err := dbretry.NoResult(ctx, "unlock achievements", func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(&achievements).
			On("CONFLICT (user_id, achievement_id) DO NOTHING").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to unlock achievements: %w", err)
	}

	return nil
}
