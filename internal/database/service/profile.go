package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"go.uber.org/zap"
)

// ProfileService assembles the reputation profile shown on a user's page.
type ProfileService struct {
	users        UserStore
	reputation   ReputationStore
	achievements *AchievementService
	logger       *zap.Logger
}

// NewProfile creates a new profile service.
func NewProfile(
	users UserStore, reputation ReputationStore, achievements *AchievementService, logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		users:        users,
		reputation:   reputation,
		achievements: achievements,
		logger:       logger.Named("profile_service"),
	}
}

// GetReputation returns the user's record, unlocked achievements and the most
// recent history entries. A missing user yields an error matching
// types.ErrUserNotFound.
func (s *ProfileService) GetReputation(
	ctx context.Context, userID uuid.UUID, historyLimit int,
) (*types.UserReputation, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	achievements, err := s.achievements.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.reputation.GetHistory(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	return &types.UserReputation{
		User:         user,
		Achievements: achievements,
		History:      history,
	}, nil
}
