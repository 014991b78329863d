package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/service"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRanking(t *testing.T, store *memoryStore) *service.RankingService {
	t.Helper()
	return service.NewRanking(store, 10, 100, zaptest.NewLogger(t))
}

func TestComputeRankingOrderAndTieBreak(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ranking := newRanking(t, store)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := store.addUser(&types.User{Username: "a", Reputation: 100, UpdatedAt: base.Add(time.Minute)})
	b := store.addUser(&types.User{Username: "b", Reputation: 100, UpdatedAt: base})
	c := store.addUser(&types.User{Username: "c", Reputation: 250, UpdatedAt: base.Add(time.Hour)})
	store.addUser(&types.User{Username: "zero", Reputation: 0})
	store.addUser(&types.User{Username: "negative", Reputation: -10})

	entries, err := ranking.ComputeRanking(t.Context(), 10, false)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, c.ID, entries[0].User.ID)
	assert.Equal(t, b.ID, entries[1].User.ID)
	assert.Equal(t, a.ID, entries[2].User.ID)

	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Rank)
	}
}

func TestComputeRankingLimits(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ranking := newRanking(t, store)

	for i := range 120 {
		store.addUser(&types.User{Username: fmt.Sprintf("user%d", i), Reputation: int64(i + 1)})
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default when zero", limit: 0, want: 10},
		{name: "default when negative", limit: -5, want: 10},
		{name: "explicit", limit: 25, want: 25},
		{name: "capped", limit: 500, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries, err := ranking.ComputeRanking(t.Context(), tt.limit, false)
			require.NoError(t, err)
			require.Len(t, entries, tt.want)
			assert.Equal(t, int64(120), entries[0].User.Reputation)
			assert.Equal(t, tt.want, entries[len(entries)-1].Rank)
		})
	}
}

func TestComputeRankingRecountsPublicProjects(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ranking := newRanking(t, store)
	user := store.addUser(&types.User{
		Username:   "owner",
		Reputation: 50,
		Counters:   types.Counters{ProjectCount: 7},
	})

	store.addProject(user.ID, types.ProjectVisibilityPublic, false, 0, 0)
	store.addProject(user.ID, types.ProjectVisibilityPublic, false, 0, 0)
	store.addProject(user.ID, types.ProjectVisibilityPrivate, false, 0, 0)
	store.addProject(user.ID, types.ProjectVisibilityPublic, true, 0, 0)

	entries, err := ranking.ComputeRanking(t.Context(), 10, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].User.ProjectCount)

	// The cached counter is left alone
	assert.Equal(t, int64(7), store.user(user.ID).ProjectCount)
}

func TestComputeRankingRecalculatesTopFlag(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ranking := newRanking(t, store)

	previous := store.addUser(&types.User{Username: "previous", Reputation: 10, IsTopRanked: true})
	leader := store.addUser(&types.User{Username: "leader", Reputation: 90})
	store.addUser(&types.User{Username: "middle", Reputation: 40})

	entries, err := ranking.ComputeRanking(t.Context(), 10, true)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.True(t, entries[0].User.IsTopRanked)
	assert.False(t, entries[1].User.IsTopRanked)
	assert.False(t, entries[2].User.IsTopRanked)

	ids, err := store.GetTopRankedIDs(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{leader.ID}, ids)
	assert.False(t, store.user(previous.ID).IsTopRanked)
	require.NoError(t, ranking.CheckTopRank(t.Context()))
}

func TestComputeRankingClearsFlagWhenNobodyRanks(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ranking := newRanking(t, store)
	stale := store.addUser(&types.User{Username: "stale", Reputation: 0, IsTopRanked: true})

	entries, err := ranking.ComputeRanking(t.Context(), 10, true)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, store.user(stale.ID).IsTopRanked)
}

func TestComputeRankingWithoutRecalcKeepsFlags(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ranking := newRanking(t, store)
	holder := store.addUser(&types.User{Username: "holder", Reputation: 5, IsTopRanked: true})
	store.addUser(&types.User{Username: "leader", Reputation: 500})

	_, err := ranking.ComputeRanking(t.Context(), 10, false)
	require.NoError(t, err)
	assert.True(t, store.user(holder.ID).IsTopRanked)
}

func TestComputeRankingFailuresAbort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*memoryStore)
	}{
		{name: "read", setup: func(m *memoryStore) { m.failRanked = errStoreDown }},
		{name: "project count", setup: func(m *memoryStore) { m.failProjects = errStoreDown }},
		{name: "top flag", setup: func(m *memoryStore) { m.failSetTop = errStoreDown }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemoryStore()
			store.addUser(&types.User{Username: "u", Reputation: 10})
			tt.setup(store)

			entries, err := newRanking(t, store).ComputeRanking(t.Context(), 10, true)
			require.ErrorIs(t, err, errStoreDown)
			assert.Nil(t, entries)
		})
	}
}

func TestCheckTopRankDetectsDuplicates(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ranking := newRanking(t, store)
	store.addUser(&types.User{Username: "one", Reputation: 10, IsTopRanked: true})
	store.addUser(&types.User{Username: "two", Reputation: 20, IsTopRanked: true})

	err := ranking.CheckTopRank(t.Context())

	var violation *types.InvariantViolationError
	require.ErrorAs(t, err, &violation)
	assert.Len(t, violation.UserIDs, 2)
}

func TestNormalizeLimit(t *testing.T) {
	t.Parallel()

	ranking := service.NewRanking(newMemoryStore(), 0, 0, zaptest.NewLogger(t))
	assert.Equal(t, service.DefaultLeaderboardLimit, ranking.NormalizeLimit(0))
	assert.Equal(t, service.MaxLeaderboardLimit, ranking.NormalizeLimit(1000))
	assert.Equal(t, 3, ranking.NormalizeLimit(3))
}
