package types

import (
	"fmt"

	"github.com/openshelf/reputation/internal/database/types/enum"
)

// CounterColumn names the users column a ledger event increments.
type CounterColumn string

const (
	CounterNone             CounterColumn = ""
	CounterLikesReceived    CounterColumn = "likes_received"
	CounterCommentsReceived CounterColumn = "comments_received"
	CounterFollowersCount   CounterColumn = "followers_count"
)

// PointTable maps each event type to the points it is worth. The zero value is
// empty; use DefaultPointTable for the platform's values.
type PointTable struct {
	points map[enum.EventType]int64
}

// DefaultPointTable returns the fixed points awarded per event type.
func DefaultPointTable() PointTable {
	return PointTable{points: map[enum.EventType]int64{
		enum.EventTypeLikeReceived:     10,
		enum.EventTypeCommentReceived:  15,
		enum.EventTypeProjectPublished: 50,
		enum.EventTypeFollowerGained:   20,
	}}
}

// Points returns the value of a single occurrence of the event type.
func (t PointTable) Points(eventType enum.EventType) (int64, error) {
	points, ok := t.points[eventType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidEventType, eventType)
	}

	return points, nil
}

// Weighted returns points multiplied by count, or 0 for unknown event types.
func (t PointTable) Weighted(eventType enum.EventType, count int64) int64 {
	return t.points[eventType] * count
}

// CounterFor returns the counter column incremented by an event type.
// Publishing a project has no counter of its own on the ledger path; the
// project count is only refreshed by the historical migration.
func CounterFor(eventType enum.EventType) CounterColumn {
	switch eventType {
	case enum.EventTypeLikeReceived:
		return CounterLikesReceived
	case enum.EventTypeCommentReceived:
		return CounterCommentsReceived
	case enum.EventTypeFollowerGained:
		return CounterFollowersCount
	case enum.EventTypeProjectPublished:
		return CounterNone
	default:
		return CounterNone
	}
}

// Apply adds delta to the in-memory counter matching the column, flooring at zero.
func (c *Counters) Apply(column CounterColumn, delta int64) {
	var target *int64

	switch column {
	case CounterLikesReceived:
		target = &c.LikesReceived
	case CounterCommentsReceived:
		target = &c.CommentsReceived
	case CounterFollowersCount:
		target = &c.FollowersCount
	case CounterNone:
		return
	default:
		return
	}

	*target = max(*target+delta, 0)
}
