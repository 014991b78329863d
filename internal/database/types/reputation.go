package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types/enum"
)

// HistoricalMigrationSource tags history entries written by the historical migration.
const HistoricalMigrationSource = "historical_migration"

// ReputationEvent is one entry of a user's append-only reputation history.
// Superseded entries have been folded into a later historical migration and no
// longer count towards the running total.
type ReputationEvent struct {
	ID         int64          `bun:",pk,autoincrement"         json:"id"`
	UserID     uuid.UUID      `bun:",notnull,type:uuid"        json:"userId"`
	Type       enum.EventType `bun:",notnull,type:varchar(32)" json:"type"`
	Points     int64          `bun:",notnull"                  json:"points"`
	SourceID   string         `bun:",notnull"                  json:"sourceId"`
	Superseded bool           `bun:",notnull,default:false"    json:"superseded"`
	OccurredAt time.Time      `bun:",notnull"                  json:"timestamp"`
}

// IsMigration reports whether the entry was written by the historical migration.
func (e *ReputationEvent) IsMigration() bool {
	return e.SourceID == HistoricalMigrationSource
}

// SumPoints returns the total of all entries that still count towards reputation.
func SumPoints(events []*ReputationEvent) int64 {
	var total int64
	for _, event := range events {
		if !event.Superseded {
			total += event.Points
		}
	}

	return total
}

// UserReputation is the read model returned for a user's reputation profile.
type UserReputation struct {
	User         *User              `json:"user"`
	Achievements []*UserAchievement `json:"achievements"`
	History      []*ReputationEvent `json:"history"`
}
