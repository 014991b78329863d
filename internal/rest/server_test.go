package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/openshelf/reputation/internal/database/types/enum"
	"github.com/openshelf/reputation/internal/redis"
	"github.com/openshelf/reputation/internal/rest"
	restTypes "github.com/openshelf/reputation/internal/rest/types"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedEvent struct {
	action   string
	userID   uuid.UUID
	typ      enum.EventType
	sourceID string
}

type fakeServices struct {
	mu           sync.Mutex
	events       []recordedEvent
	ledgerErr    error
	rankingCalls int
	rankingErr   error
	leaderboard  []*types.LeaderboardEntry
	profiles     map[uuid.UUID]*types.UserReputation
	onCompute    func(ctx context.Context)
}

func (f *fakeServices) AwardEvent(_ context.Context, userID uuid.UUID, eventType enum.EventType, sourceID string) error {
	return f.record("award", userID, eventType, sourceID)
}

func (f *fakeServices) RevokeEvent(_ context.Context, userID uuid.UUID, eventType enum.EventType, sourceID string) error {
	return f.record("revoke", userID, eventType, sourceID)
}

func (f *fakeServices) record(action string, userID uuid.UUID, eventType enum.EventType, sourceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ledgerErr != nil {
		return f.ledgerErr
	}

	f.events = append(f.events, recordedEvent{action: action, userID: userID, typ: eventType, sourceID: sourceID})

	return nil
}

func (f *fakeServices) NormalizeLimit(limit int) int {
	if limit <= 0 {
		return 10
	}

	return min(limit, 100)
}

func (f *fakeServices) ComputeRanking(ctx context.Context, limit int, _ bool) ([]*types.LeaderboardEntry, error) {
	if f.onCompute != nil {
		f.onCompute(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.rankingCalls++
	if f.rankingErr != nil {
		return nil, f.rankingErr
	}

	if len(f.leaderboard) > limit {
		return f.leaderboard[:limit], nil
	}

	return f.leaderboard, nil
}

func (f *fakeServices) GetReputation(_ context.Context, userID uuid.UUID, _ int) (*types.UserReputation, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, types.NewUserNotFound(userID)
	}

	return profile, nil
}

func (f *fakeServices) Catalog() []types.Achievement {
	return types.AchievementCatalog()
}

func (f *fakeServices) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.rankingCalls
}

func setupServer(t *testing.T, fake *fakeServices) http.Handler {
	t.Helper()

	server, _ := setupServerWithCache(t, fake)

	return server
}

func setupServerWithCache(t *testing.T, fake *fakeServices) (http.Handler, *redis.JSONCache) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	logger := zaptest.NewLogger(t)
	cache := redis.NewJSONCache(client, "leaderboard:", time.Minute, logger)

	server := rest.NewServer(rest.Services{
		Ledger:       fake,
		Ranking:      fake,
		Profile:      fake,
		Catalog:      fake,
		HistoryLimit: 20,
	}, cache, logger)

	return server, cache
}

func do(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func sampleLeaderboard() []*types.LeaderboardEntry {
	return []*types.LeaderboardEntry{
		{Rank: 1, User: &types.User{ID: uuid.New(), Username: "ada", Reputation: 300, IsTopRanked: true}},
		{Rank: 2, User: &types.User{ID: uuid.New(), Username: "grace", Reputation: 120}},
	}
}

func TestGetLeaderboardIsCached(t *testing.T) {
	t.Parallel()

	fake := &fakeServices{leaderboard: sampleLeaderboard()}
	server := setupServer(t, fake)

	rec := do(t, server, http.MethodGet, "/v1/leaderboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response restTypes.LeaderboardResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 10, response.Limit)
	require.Len(t, response.Entries, 2)
	assert.Equal(t, "ada", response.Entries[0].Username)
	assert.True(t, response.Entries[0].IsTopRanked)
	assert.Equal(t, 2, response.Entries[1].Rank)

	rec = do(t, server, http.MethodGet, "/v1/leaderboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fake.calls())

	rec = do(t, server, http.MethodGet, "/v1/leaderboard?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Entries, 1)
	assert.Equal(t, 2, fake.calls())
}

func TestGetLeaderboardRejectsBadLimit(t *testing.T) {
	t.Parallel()

	fake := &fakeServices{}
	server := setupServer(t, fake)

	for _, target := range []string{"/v1/leaderboard?limit=abc", "/v1/leaderboard?limit=-1"} {
		rec := do(t, server, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	assert.Zero(t, fake.calls())
}

func TestGetLeaderboardTransientFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeServices{
		rankingErr: &types.TransientStorageError{Op: "get ranked users", Err: context.DeadlineExceeded},
	}
	server := setupServer(t, fake)

	rec := do(t, server, http.MethodGet, "/v1/leaderboard", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAwardEventInvalidatesLeaderboard(t *testing.T) {
	t.Parallel()

	fake := &fakeServices{leaderboard: sampleLeaderboard()}
	server := setupServer(t, fake)
	userID := uuid.New()

	require.Equal(t, http.StatusOK, do(t, server, http.MethodGet, "/v1/leaderboard", "").Code)

	rec := do(t, server, http.MethodPost, "/v1/users/"+userID.String()+"/events",
		`{"type":"like_received","sourceId":"like-1"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Len(t, fake.events, 1)
	assert.Equal(t, recordedEvent{
		action:   "award",
		userID:   userID,
		typ:      enum.EventTypeLikeReceived,
		sourceID: "like-1",
	}, fake.events[0])

	require.Equal(t, http.StatusOK, do(t, server, http.MethodGet, "/v1/leaderboard", "").Code)
	assert.Equal(t, 2, fake.calls())
}

func TestGetLeaderboardDoesNotCacheAcrossInvalidation(t *testing.T) {
	t.Parallel()

	fake := &fakeServices{leaderboard: sampleLeaderboard()}
	server, cache := setupServerWithCache(t, fake)

	// An award lands while the first request is still computing
	invalidated := false
	fake.onCompute = func(ctx context.Context) {
		if !invalidated {
			invalidated = true
			require.NoError(t, cache.Invalidate(ctx))
		}
	}

	require.Equal(t, http.StatusOK, do(t, server, http.MethodGet, "/v1/leaderboard", "").Code)
	assert.Equal(t, 1, fake.calls())

	require.Equal(t, http.StatusOK, do(t, server, http.MethodGet, "/v1/leaderboard", "").Code)
	assert.Equal(t, 2, fake.calls())

	require.Equal(t, http.StatusOK, do(t, server, http.MethodGet, "/v1/leaderboard", "").Code)
	assert.Equal(t, 2, fake.calls())
}

func TestRevokeEvent(t *testing.T) {
	t.Parallel()

	fake := &fakeServices{}
	server := setupServer(t, fake)
	userID := uuid.New()

	rec := do(t, server, http.MethodPost, "/v1/users/"+userID.String()+"/events/revoke",
		`{"type":"follower_gained","sourceId":"follow-9"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Len(t, fake.events, 1)
	assert.Equal(t, "revoke", fake.events[0].action)
	assert.Equal(t, enum.EventTypeFollowerGained, fake.events[0].typ)
}

func TestEventRequestValidation(t *testing.T) {
	t.Parallel()

	fake := &fakeServices{}
	server := setupServer(t, fake)
	target := "/v1/users/" + uuid.NewString() + "/events"

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{name: "unknown type", target: target, body: `{"type":"bookmark_added","sourceId":"x"}`},
		{name: "missing source", target: target, body: `{"type":"like_received"}`},
		{name: "malformed json", target: target, body: `{"type":`},
		{name: "bad user id", target: "/v1/users/not-a-uuid/events", body: `{"type":"like_received","sourceId":"x"}`},
		{name: "nil user id", target: "/v1/users/" + uuid.Nil.String() + "/events", body: `{"type":"like_received","sourceId":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, server, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	assert.Empty(t, fake.events)
}

func TestAwardEventStorageFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeServices{ledgerErr: assert.AnError}
	server := setupServer(t, fake)

	rec := do(t, server, http.MethodPost, "/v1/users/"+uuid.NewString()+"/events",
		`{"type":"comment_received","sourceId":"c-1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetReputation(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	unlockedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeServices{profiles: map[uuid.UUID]*types.UserReputation{
		userID: {
			User: &types.User{
				ID:         userID,
				Username:   "ada",
				Reputation: 310,
				Counters:   types.Counters{ProjectCount: 3, FollowersCount: 4, LikesReceived: 8},
			},
			Achievements: []*types.UserAchievement{
				{UserID: userID, AchievementID: types.AchievementFirstProject, UnlockedAt: unlockedAt},
			},
			History: []*types.ReputationEvent{
				{UserID: userID, Type: enum.EventTypeLikeReceived, Points: 10, SourceID: "like-1", OccurredAt: unlockedAt},
			},
		},
	}}
	server := setupServer(t, fake)

	rec := do(t, server, http.MethodGet, "/v1/users/"+userID.String()+"/reputation", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response restTypes.ReputationResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.User)
	assert.Equal(t, int64(310), response.User.Reputation)
	assert.Equal(t, int64(4), response.User.Counters.FollowersCount)
	require.Len(t, response.Achievements, 1)
	assert.Equal(t, "First Project", response.Achievements[0].Name)
	require.Len(t, response.History, 1)
	assert.Equal(t, "like_received", response.History[0].Type)
}

func TestGetReputationUnknownUser(t *testing.T) {
	t.Parallel()

	server := setupServer(t, &fakeServices{})

	rec := do(t, server, http.MethodGet, "/v1/users/"+uuid.NewString()+"/reputation", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAchievements(t *testing.T) {
	t.Parallel()

	server := setupServer(t, &fakeServices{})

	rec := do(t, server, http.MethodGet, "/v1/achievements", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response restTypes.AchievementsResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Achievements, len(types.AchievementCatalog()))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	server := setupServer(t, &fakeServices{})

	do(t, server, http.MethodGet, "/v1/achievements", "")

	rec := do(t, server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openshelf_reputation_api_requests_total")
}
