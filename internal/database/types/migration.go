package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types/enum"
)

// HistoricalTally holds the activity counted from source tables for one user.
type HistoricalTally struct {
	UserID    uuid.UUID
	Projects  int64
	Likes     int64
	Comments  int64
	Followers int64
}

// Count returns the tallied occurrences of an event type.
func (t *HistoricalTally) Count(eventType enum.EventType) int64 {
	switch eventType {
	case enum.EventTypeLikeReceived:
		return t.Likes
	case enum.EventTypeCommentReceived:
		return t.Comments
	case enum.EventTypeProjectPublished:
		return t.Projects
	case enum.EventTypeFollowerGained:
		return t.Followers
	default:
		return 0
	}
}

// Reputation returns the weighted sum of the tally using the point table.
func (t *HistoricalTally) Reputation(table PointTable) int64 {
	var total int64
	for _, eventType := range enum.EventTypeValues() {
		total += table.Weighted(eventType, t.Count(eventType))
	}

	return total
}

// Counters converts the tally into the cached counters stored on the user.
func (t *HistoricalTally) Counters() Counters {
	return Counters{
		ProjectCount:     t.Projects,
		FollowersCount:   t.Followers,
		LikesReceived:    t.Likes,
		CommentsReceived: t.Comments,
	}
}

// AggregateEvents builds one synthetic history entry per event type with a
// non-zero count, carrying the aggregate points of that type.
func (t *HistoricalTally) AggregateEvents(table PointTable, at time.Time) []*ReputationEvent {
	var events []*ReputationEvent

	for _, eventType := range enum.EventTypeValues() {
		count := t.Count(eventType)
		if count == 0 {
			continue
		}

		events = append(events, &ReputationEvent{
			UserID:     t.UserID,
			Type:       eventType,
			Points:     table.Weighted(eventType, count),
			SourceID:   HistoricalMigrationSource,
			OccurredAt: at,
		})
	}

	return events
}

// MigrationReport summarizes a historical migration run.
type MigrationReport struct {
	RunID         uuid.UUID     `json:"runId"`
	StartedAt     time.Time     `json:"startedAt"`
	Duration      time.Duration `json:"duration"`
	UsersMigrated int           `json:"usersMigrated"`
	TotalPoints   int64         `json:"totalPoints"`
	LastUserID    uuid.UUID     `json:"lastUserId"`
	FailedUserID  uuid.UUID     `json:"failedUserId"`
}
