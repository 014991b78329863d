package types

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	AvatarURL    string    `json:"avatarUrl"`
	Reputation   int64     `json:"reputation"`
	ProjectCount int64     `json:"projectCount"`
	IsTopRanked  bool      `json:"isTopRanked"`
}

// LeaderboardResponse is returned by the leaderboard endpoint.
type LeaderboardResponse struct {
	Limit   int                 `json:"limit"`
	Entries []*LeaderboardEntry `json:"entries"`
}

// EventRequest is the body of the award and revoke endpoints.
type EventRequest struct {
	Type     string `json:"type"     validate:"required,oneof=like_received comment_received project_published follower_gained"`
	SourceID string `json:"sourceId" validate:"required,max=128"`
}

// Counters holds the cached activity counters of a user.
type Counters struct {
	ProjectCount     int64 `json:"projectCount"`
	FollowersCount   int64 `json:"followersCount"`
	LikesReceived    int64 `json:"likesReceived"`
	CommentsReceived int64 `json:"commentsReceived"`
}

// User is the public reputation record of a user.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	Reputation  int64     `json:"reputation"`
	Counters    Counters  `json:"counters"`
	IsTopRanked bool      `json:"isTopRanked"`
}

// Achievement is a catalog entry.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// UnlockedAchievement is an achievement a user has earned.
type UnlockedAchievement struct {
	Achievement
	UnlockedAt time.Time `json:"unlockedAt"`
}

// HistoryEntry is one entry of a user's reputation history.
type HistoryEntry struct {
	Type      string    `json:"type"`
	Points    int64     `json:"points"`
	SourceID  string    `json:"sourceId"`
	Timestamp time.Time `json:"timestamp"`
}

// ReputationResponse is returned by the user reputation endpoint.
type ReputationResponse struct {
	User         *User                  `json:"user"`
	Achievements []*UnlockedAchievement `json:"achievements"`
	History      []*HistoryEntry        `json:"history"`
}

// AchievementsResponse is returned by the catalog endpoint.
type AchievementsResponse struct {
	Achievements []*Achievement `json:"achievements"`
}

// ErrorResponse is returned with every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}
