package service_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/openshelf/reputation/internal/database/types/enum"
)

var errStoreDown = errors.New("store unavailable")

// memoryStore is an in-memory implementation of every store interface used by
// the services. It mirrors the SQL semantics of the bun models.
type memoryStore struct {
	mu sync.Mutex

	users       map[uuid.UUID]*types.User
	events      []*types.ReputationEvent
	nextEventID int64
	unlocked    map[uuid.UUID]map[types.AchievementID]*types.UserAchievement

	projects  []*types.Project
	likes     map[uuid.UUID]int64
	comments  map[uuid.UUID]int64
	followers map[uuid.UUID]int64

	failCounters   error
	failRanked     error
	failProjects   error
	failSetTop     error
	failMigrateFor uuid.UUID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:     make(map[uuid.UUID]*types.User),
		unlocked:  make(map[uuid.UUID]map[types.AchievementID]*types.UserAchievement),
		likes:     make(map[uuid.UUID]int64),
		comments:  make(map[uuid.UUID]int64),
		followers: make(map[uuid.UUID]int64),
	}
}

// addUser stores a user directly, bypassing the ledger.
func (m *memoryStore) addUser(user *types.User) *types.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now()
	}

	stored := *user
	m.users[user.ID] = &stored

	return user
}

// addProject stores a project with the given like and comment counts.
func (m *memoryStore) addProject(ownerID uuid.UUID, visibility types.ProjectVisibility, deleted bool, likes, comments int64) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	project := &types.Project{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Title:      "project",
		Visibility: visibility,
		IsDeleted:  deleted,
		CreatedAt:  time.Now(),
	}
	m.projects = append(m.projects, project)
	m.likes[project.ID] = likes
	m.comments[project.ID] = comments

	return project.ID
}

func (m *memoryStore) user(id uuid.UUID) *types.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil
	}

	clone := *user

	return &clone
}

// activeSum returns the sum of points of the user's non-superseded entries.
func (m *memoryStore) activeSum(userID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var userEvents []*types.ReputationEvent
	for _, event := range m.events {
		if event.UserID == userID {
			userEvents = append(userEvents, event)
		}
	}

	return types.SumPoints(userEvents)
}

func (m *memoryStore) userEvents(userID uuid.UUID) []*types.ReputationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*types.ReputationEvent
	for _, event := range m.events {
		if event.UserID == userID {
			clone := *event
			result = append(result, &clone)
		}
	}

	return result
}

func (m *memoryStore) hasAchievement(userID uuid.UUID, id types.AchievementID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.unlocked[userID][id]

	return ok
}

func (m *memoryStore) achievementCount(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.unlocked[userID])
}

func (m *memoryStore) EnsureUser(_ context.Context, user *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.users[user.ID]; ok {
		existing.Username = user.Username
		existing.DisplayName = user.DisplayName
		existing.AvatarURL = user.AvatarURL

		return nil
	}

	now := time.Now()
	m.users[user.ID] = &types.User{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return nil
}

func (m *memoryStore) GetUser(_ context.Context, userID uuid.UUID) (*types.User, error) {
	user := m.user(userID)
	if user == nil {
		return nil, types.NewUserNotFound(userID)
	}

	return user, nil
}

func (m *memoryStore) ListUserIDs(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(m.users))
	for id := range m.users {
		if bytes.Compare(id[:], after[:]) > 0 {
			ids = append(ids, id)
		}
	}

	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	if len(ids) > limit {
		ids = ids[:limit]
	}

	return ids, nil
}

func (m *memoryStore) ApplyEvent(
	_ context.Context, event *types.ReputationEvent, counter types.CounterColumn, counterDelta int64,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.applyLocked(event, counter, counterDelta)
}

func (m *memoryStore) RevokeEvent(_ context.Context, event *types.ReputationEvent, counter types.CounterColumn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[event.UserID]; !ok {
		return types.NewUserNotFound(event.UserID)
	}

	var balance int64
	for _, existing := range m.events {
		if existing.UserID == event.UserID && existing.Type == event.Type && existing.SourceID == event.SourceID {
			balance += existing.Points
		}
	}

	if balance <= 0 {
		return types.ErrNoMatchingAward
	}

	return m.applyLocked(event, counter, -1)
}

func (m *memoryStore) applyLocked(event *types.ReputationEvent, counter types.CounterColumn, counterDelta int64) error {
	user, ok := m.users[event.UserID]
	if !ok {
		return types.NewUserNotFound(event.UserID)
	}

	user.Reputation += event.Points
	user.Counters.Apply(counter, counterDelta)
	user.UpdatedAt = event.OccurredAt

	m.nextEventID++
	event.ID = m.nextEventID
	clone := *event
	m.events = append(m.events, &clone)

	return nil
}

func (m *memoryStore) GetHistory(_ context.Context, userID uuid.UUID, limit int) ([]*types.ReputationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*types.ReputationEvent
	for i := len(m.events) - 1; i >= 0 && len(result) < limit; i-- {
		if m.events[i].UserID == userID {
			clone := *m.events[i]
			result = append(result, &clone)
		}
	}

	return result, nil
}

func (m *memoryStore) ApplyHistoricalMigration(
	_ context.Context, tally *types.HistoricalTally, reputation int64, events []*types.ReputationEvent, at time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tally.UserID == m.failMigrateFor {
		return errStoreDown
	}

	user, ok := m.users[tally.UserID]
	if !ok {
		return types.NewUserNotFound(tally.UserID)
	}

	user.Reputation = reputation
	user.Counters = tally.Counters()
	user.UpdatedAt = at

	kept := m.events[:0]
	for _, event := range m.events {
		if event.UserID == tally.UserID {
			if event.IsMigration() {
				continue
			}

			event.Superseded = true
		}

		kept = append(kept, event)
	}
	m.events = kept

	for _, event := range events {
		m.nextEventID++
		event.ID = m.nextEventID
		clone := *event
		m.events = append(m.events, &clone)
	}

	return nil
}

func (m *memoryStore) GetCounters(_ context.Context, userID uuid.UUID) (types.Counters, error) {
	if m.failCounters != nil {
		return types.Counters{}, m.failCounters
	}

	user := m.user(userID)
	if user == nil {
		return types.Counters{}, types.NewUserNotFound(userID)
	}

	return user.Counters, nil
}

func (m *memoryStore) GetUnlocked(_ context.Context, userID uuid.UUID) ([]*types.UserAchievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*types.UserAchievement, 0, len(m.unlocked[userID]))
	for _, achievement := range m.unlocked[userID] {
		clone := *achievement
		result = append(result, &clone)
	}

	slices.SortFunc(result, func(a, b *types.UserAchievement) int {
		return a.UnlockedAt.Compare(b.UnlockedAt)
	})

	return result, nil
}

func (m *memoryStore) Unlock(_ context.Context, achievements []*types.UserAchievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, achievement := range achievements {
		set, ok := m.unlocked[achievement.UserID]
		if !ok {
			set = make(map[types.AchievementID]*types.UserAchievement)
			m.unlocked[achievement.UserID] = set
		}

		if _, exists := set[achievement.AchievementID]; exists {
			continue
		}

		clone := *achievement
		set[achievement.AchievementID] = &clone
	}

	return nil
}

func (m *memoryStore) GetRankedUsers(_ context.Context, limit int) ([]*types.User, error) {
	if m.failRanked != nil {
		return nil, m.failRanked
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var users []*types.User
	for _, user := range m.users {
		if user.Reputation > 0 {
			clone := *user
			users = append(users, &clone)
		}
	}

	slices.SortFunc(users, types.CompareRanking)

	if len(users) > limit {
		users = users[:limit]
	}

	return users, nil
}

func (m *memoryStore) CountPublicProjects(_ context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if m.failProjects != nil {
		return nil, m.failProjects
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[uuid.UUID]int64)
	for _, project := range m.projects {
		if project.IsDeleted || project.Visibility != types.ProjectVisibilityPublic {
			continue
		}

		if slices.Contains(ownerIDs, project.OwnerID) {
			counts[project.OwnerID]++
		}
	}

	return counts, nil
}

func (m *memoryStore) SetTopRanked(_ context.Context, userID uuid.UUID) error {
	if m.failSetTop != nil {
		return m.failSetTop
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, user := range m.users {
		user.IsTopRanked = id == userID
	}

	return nil
}

func (m *memoryStore) GetTopRankedIDs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []uuid.UUID
	for id, user := range m.users {
		if user.IsTopRanked {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (m *memoryStore) ListOwnedProjectIDs(_ context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []uuid.UUID
	for _, project := range m.projects {
		if project.OwnerID == ownerID && !project.IsDeleted {
			ids = append(ids, project.ID)
		}
	}

	return ids, nil
}

func (m *memoryStore) CountProjectLikes(_ context.Context, projectID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.likes[projectID], nil
}

func (m *memoryStore) CountProjectComments(_ context.Context, projectID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.comments[projectID], nil
}

func (m *memoryStore) CountFollowers(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.followers[userID], nil
}

// memoryLocker is an in-process Locker.
type memoryLocker struct {
	mu      sync.Mutex
	held    map[string]string
	extends int
	refuse  bool
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: make(map[string]string)}
}

func (l *memoryLocker) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return "", false, nil
	}

	token := uuid.NewString()
	l.held[key] = token

	return token, true, nil
}

func (l *memoryLocker) Extend(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.extends++

	return !l.refuse && l.held[key] == token, nil
}

func (l *memoryLocker) extendCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.extends
}

func (l *memoryLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] == token {
		delete(l.held, key)
	}

	return nil
}

type awarder interface {
	AwardEvent(ctx context.Context, userID uuid.UUID, eventType enum.EventType, sourceID string) error
}

func awardMany(ctx context.Context, ledger awarder, userID uuid.UUID, eventType enum.EventType, n int) error {
	for range n {
		if err := ledger.AwardEvent(ctx, userID, eventType, uuid.NewString()); err != nil {
			return err
		}
	}

	return nil
}
