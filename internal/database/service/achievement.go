package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"go.uber.org/zap"
)

// AchievementService unlocks achievements whose conditions a user satisfies.
type AchievementService struct {
	store  AchievementStore
	logger *zap.Logger
}

// NewAchievement creates a new achievement service.
func NewAchievement(store AchievementStore, logger *zap.Logger) *AchievementService {
	return &AchievementService{
		store:  store,
		logger: logger.Named("achievement_service"),
	}
}

// Evaluate unlocks every achievement the user newly qualifies for. It is best
// effort: failures are logged and never returned to the caller.
func (s *AchievementService) Evaluate(ctx context.Context, userID uuid.UUID) {
	if err := s.evaluate(ctx, userID); err != nil {
		evaluationFailures.Inc()
		s.logger.Error("Failed to evaluate achievements",
			zap.String("userID", userID.String()),
			zap.Error(err))
	}
}

func (s *AchievementService) evaluate(ctx context.Context, userID uuid.UUID) error {
	counters, err := s.store.GetCounters(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get counters: %w", err)
	}

	existing, err := s.store.GetUnlocked(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get unlocked achievements: %w", err)
	}

	unlocked := make(map[types.AchievementID]struct{}, len(existing))
	for _, achievement := range existing {
		unlocked[achievement.AchievementID] = struct{}{}
	}

	newIDs := types.NewlyUnlocked(counters, unlocked)
	if len(newIDs) == 0 {
		return nil
	}

	now := time.Now()
	achievements := make([]*types.UserAchievement, len(newIDs))
	for i, id := range newIDs {
		achievements[i] = &types.UserAchievement{
			UserID:        userID,
			AchievementID: id,
			UnlockedAt:    now,
		}
	}

	if err := s.store.Unlock(ctx, achievements); err != nil {
		return fmt.Errorf("failed to unlock achievements: %w", err)
	}

	for _, id := range newIDs {
		achievementsUnlocked.WithLabelValues(string(id)).Inc()
		s.logger.Info("Unlocked achievement",
			zap.String("userID", userID.String()),
			zap.String("achievement", string(id)))
	}

	return nil
}

// ListUnlocked returns the achievements a user has unlocked.
func (s *AchievementService) ListUnlocked(ctx context.Context, userID uuid.UUID) ([]*types.UserAchievement, error) {
	achievements, err := s.store.GetUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked achievements: %w", err)
	}

	return achievements, nil
}

// Catalog returns every achievement that can be earned.
func (s *AchievementService) Catalog() []types.Achievement {
	return types.AchievementCatalog()
}
