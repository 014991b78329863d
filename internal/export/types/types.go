package types

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardRecord is one exported leaderboard row.
type LeaderboardRecord struct {
	Rank         int       `json:"rank"`
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	Reputation   int64     `json:"reputation"`
	ProjectCount int64     `json:"projectCount"`
	IsTopRanked  bool      `json:"isTopRanked"`
}

// Snapshot is a leaderboard captured at a point in time.
type Snapshot struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Records     []*LeaderboardRecord `json:"records"`
}
