package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
)

// UserStore is the subset of user record operations the services rely on.
type UserStore interface {
	EnsureUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	ListUserIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// ReputationStore persists ledger writes and history.
type ReputationStore interface {
	ApplyEvent(ctx context.Context, event *types.ReputationEvent, counter types.CounterColumn, counterDelta int64) error
	RevokeEvent(ctx context.Context, event *types.ReputationEvent, counter types.CounterColumn) error
	GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ReputationEvent, error)
	ApplyHistoricalMigration(
		ctx context.Context, tally *types.HistoricalTally, reputation int64, events []*types.ReputationEvent, at time.Time,
	) error
}

// AchievementStore persists unlocked achievements.
type AchievementStore interface {
	GetCounters(ctx context.Context, userID uuid.UUID) (types.Counters, error)
	GetUnlocked(ctx context.Context, userID uuid.UUID) ([]*types.UserAchievement, error)
	Unlock(ctx context.Context, achievements []*types.UserAchievement) error
}

// RankingStore reads the leaderboard and maintains the top-rank flag.
type RankingStore interface {
	GetRankedUsers(ctx context.Context, limit int) ([]*types.User, error)
	CountPublicProjects(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	SetTopRanked(ctx context.Context, userID uuid.UUID) error
	GetTopRankedIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SourceStore reads the activity tables the historical migration recounts.
type SourceStore interface {
	ListOwnedProjectIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
	CountProjectLikes(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountProjectComments(ctx context.Context, projectID uuid.UUID) (int64, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Locker guards work that must not run twice at the same time across
// processes. Acquire reports false when someone else holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}
