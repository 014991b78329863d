package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"go.uber.org/zap"
)

const (
	// DefaultLeaderboardLimit is used when no limit is configured.
	DefaultLeaderboardLimit = 10
	// MaxLeaderboardLimit caps requested limits when no maximum is configured.
	MaxLeaderboardLimit = 100
)

// RankingService computes the leaderboard and maintains the top-rank flag.
type RankingService struct {
	store        RankingStore
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// NewRanking creates a new ranking service. Non-positive limits fall back to
// the package defaults.
func NewRanking(store RankingStore, defaultLimit, maxLimit int, logger *zap.Logger) *RankingService {
	if maxLimit <= 0 {
		maxLimit = MaxLeaderboardLimit
	}

	if defaultLimit <= 0 {
		defaultLimit = DefaultLeaderboardLimit
	}

	return &RankingService{
		store:        store,
		defaultLimit: min(defaultLimit, maxLimit),
		maxLimit:     maxLimit,
		logger:       logger.Named("ranking_service"),
	}
}

// NormalizeLimit applies the default and maximum leaderboard size.
func (s *RankingService) NormalizeLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}

	return min(limit, s.maxLimit)
}

// ComputeRanking returns the top users with positive reputation, ranked from 1
// without gaps. Project counts are recounted from the projects table. When
// recalculateTopFlag is set the rank-1 user becomes the only flagged user, or
// every flag is cleared when nobody is ranked. Any failure aborts the whole
// computation.
func (s *RankingService) ComputeRanking(
	ctx context.Context, limit int, recalculateTopFlag bool,
) ([]*types.LeaderboardEntry, error) {
	start := time.Now()
	limit = s.NormalizeLimit(limit)

	users, err := s.store.GetRankedUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ranked users: %w", err)
	}

	userIDs := make([]uuid.UUID, len(users))
	for i, user := range users {
		userIDs[i] = user.ID
	}

	counts, err := s.store.CountPublicProjects(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	for _, user := range users {
		user.ProjectCount = counts[user.ID]
	}

	entries := types.BuildLeaderboard(users, limit)

	if recalculateTopFlag {
		topID := uuid.Nil
		if len(entries) > 0 {
			topID = entries[0].User.ID
		}

		if err := s.store.SetTopRanked(ctx, topID); err != nil {
			return nil, fmt.Errorf("failed to recalculate top rank: %w", err)
		}

		for _, entry := range entries {
			entry.User.IsTopRanked = entry.Rank == 1
		}

		s.logger.Debug("Recalculated top ranked user",
			zap.String("userID", topID.String()),
			zap.Int("entries", len(entries)))
	}

	rankingDuration.WithLabelValues(strconv.FormatBool(recalculateTopFlag)).Observe(time.Since(start).Seconds())

	return entries, nil
}

// CheckTopRank verifies that at most one user carries the top-rank flag.
func (s *RankingService) CheckTopRank(ctx context.Context) error {
	ids, err := s.store.GetTopRankedIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get top ranked users: %w", err)
	}

	if len(ids) > 1 {
		s.logger.Error("Multiple users carry the top-rank flag",
			zap.Int("count", len(ids)))

		return &types.InvariantViolationError{
			Invariant: "at most one top-ranked user",
			UserIDs:   ids,
		}
	}

	return nil
}
