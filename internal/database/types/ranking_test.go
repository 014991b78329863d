package types_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(name string, reputation int64, updatedAt time.Time) *types.User {
	return &types.User{
		ID:         uuid.New(),
		Username:   name,
		Reputation: reputation,
		UpdatedAt:  updatedAt,
	}
}

func TestBuildLeaderboard(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	alice := newUser("alice", 120, base.Add(time.Hour))
	bob := newUser("bob", 120, base)
	carol := newUser("carol", 300, base.Add(2*time.Hour))
	dave := newUser("dave", 0, base)
	erin := newUser("erin", 15, base)

	entries := types.BuildLeaderboard([]*types.User{alice, dave, erin, bob, carol}, 0)
	require.Len(t, entries, 4)

	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.User.Username
		assert.Equal(t, i+1, entry.Rank)
	}

	assert.Equal(t, []string{"carol", "bob", "alice", "erin"}, names)
}

func TestBuildLeaderboardTiesGetDistinctRanks(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	users := []*types.User{
		newUser("a", 50, at),
		newUser("b", 50, at),
		newUser("c", 50, at),
	}

	entries := types.BuildLeaderboard(users, 0)
	require.Len(t, entries, 3)

	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Rank)
	}

	// Order is deterministic for identical reputation and update time.
	again := types.BuildLeaderboard([]*types.User{users[2], users[0], users[1]}, 0)
	for i := range entries {
		assert.Equal(t, entries[i].User.ID, again[i].User.ID)
	}
}

func TestBuildLeaderboardLimit(t *testing.T) {
	t.Parallel()

	at := time.Now()
	users := make([]*types.User, 0, 30)
	for i := range 30 {
		users = append(users, newUser("u", int64(i+1), at))
	}

	entries := types.BuildLeaderboard(users, 10)
	require.Len(t, entries, 10)
	assert.Equal(t, int64(30), entries[0].User.Reputation)
	assert.Equal(t, int64(21), entries[9].User.Reputation)
	assert.Equal(t, 10, entries[9].Rank)
}

func TestBuildLeaderboardEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, types.BuildLeaderboard(nil, 10))
	assert.Empty(t, types.BuildLeaderboard([]*types.User{newUser("zero", 0, time.Now())}, 10))
}
