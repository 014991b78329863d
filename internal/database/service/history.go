package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MigrationLockKey is the lock held while a historical migration runs.
const MigrationLockKey = "reputation:historical_migration"

var errLockLost = errors.New("migration lock lost")

// HistoryConfig tunes the historical migration.
type HistoryConfig struct {
	BatchSize   int
	Concurrency int
	LockTTL     time.Duration
}

// HistoryService recomputes reputation from the source activity tables.
type HistoryService struct {
	users      UserStore
	reputation ReputationStore
	source     SourceStore
	locker     Locker
	evaluator  *AchievementService
	points     types.PointTable
	config     HistoryConfig
	logger     *zap.Logger
}

// NewHistory creates a new history service.
func NewHistory(
	users UserStore,
	reputation ReputationStore,
	source SourceStore,
	locker Locker,
	evaluator *AchievementService,
	config HistoryConfig,
	logger *zap.Logger,
) *HistoryService {
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}

	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}

	if config.LockTTL <= 0 {
		config.LockTTL = 10 * time.Minute
	}

	return &HistoryService{
		users:      users,
		reputation: reputation,
		source:     source,
		locker:     locker,
		evaluator:  evaluator,
		points:     types.DefaultPointTable(),
		config:     config,
		logger:     logger.Named("history_service"),
	}
}

// MigrateAll recomputes every user's reputation and counters from projects,
// likes, comments and followers, replacing the ledger history with one
// aggregate entry per event type. Users are processed one at a time in ID
// order and each user is written in its own transaction, so a failure leaves
// earlier users migrated; the partial report is returned with the error.
// Running it again yields the same state.
func (s *HistoryService) MigrateAll(ctx context.Context) (*types.MigrationReport, error) {
	token, acquired, err := s.locker.Acquire(ctx, MigrationLockKey, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		return nil, types.ErrMigrationRunning
	}

	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), MigrationLockKey, token); err != nil {
			s.logger.Error("Failed to release migration lock", zap.Error(err))
		}
	}()

	report := &types.MigrationReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	s.logger.Info("Starting historical migration",
		zap.String("runID", report.RunID.String()),
		zap.Int("batchSize", s.config.BatchSize))

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	stopHeartbeat := s.keepLock(runCtx, cancel, token)
	err = s.migrateBatches(runCtx, report)
	stopHeartbeat()

	report.Duration = time.Since(report.StartedAt)

	if err != nil {
		s.logger.Error("Historical migration stopped",
			zap.String("runID", report.RunID.String()),
			zap.Int("usersMigrated", report.UsersMigrated),
			zap.String("failedUserID", report.FailedUserID.String()),
			zap.Error(err))

		return report, err
	}

	s.logger.Info("Historical migration completed",
		zap.String("runID", report.RunID.String()),
		zap.Int("usersMigrated", report.UsersMigrated),
		zap.Int64("totalPoints", report.TotalPoints),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// keepLock extends the migration lock every third of its TTL until the
// returned stop function is called. A failed or refused extension cancels ctx
// with errLockLost so no other run can overlap with this one.
func (s *HistoryService) keepLock(ctx context.Context, cancel context.CancelCauseFunc, token string) func() {
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(s.config.LockTTL / 3)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			extended, err := s.locker.Extend(ctx, MigrationLockKey, token, s.config.LockTTL)
			if err != nil {
				s.logger.Error("Failed to extend migration lock", zap.Error(err))
				cancel(fmt.Errorf("%w: %w", errLockLost, err))

				return
			}

			if !extended {
				s.logger.Error("Migration lock was taken over")
				cancel(errLockLost)

				return
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (s *HistoryService) migrateBatches(ctx context.Context, report *types.MigrationReport) error {
	after := uuid.Nil

	for {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", types.ErrMigrationCancelled, context.Cause(ctx))
		}

		userIDs, err := s.users.ListUserIDs(ctx, after, s.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		for _, userID := range userIDs {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", types.ErrMigrationCancelled, context.Cause(ctx))
			}

			points, err := s.MigrateUser(ctx, userID)
			if err != nil {
				if ctx.Err() != nil {
					return fmt.Errorf("%w: %w", types.ErrMigrationCancelled, context.Cause(ctx))
				}

				report.FailedUserID = userID
				return fmt.Errorf("failed to migrate user %s: %w", userID, err)
			}

			report.UsersMigrated++
			report.TotalPoints += points
			report.LastUserID = userID
			migratedUsers.Inc()

			s.evaluator.Evaluate(ctx, userID)
		}

		if len(userIDs) < s.config.BatchSize {
			return nil
		}

		after = userIDs[len(userIDs)-1]

		s.logger.Info("Migrated user batch",
			zap.Int("usersMigrated", report.UsersMigrated),
			zap.String("lastUserID", after.String()))
	}
}

// MigrateUser recomputes a single user and returns the new reputation.
func (s *HistoryService) MigrateUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tally, err := s.Tally(ctx, userID)
	if err != nil {
		return 0, err
	}

	reputation := tally.Reputation(s.points)
	now := time.Now()
	events := tally.AggregateEvents(s.points, now)

	if err := s.reputation.ApplyHistoricalMigration(ctx, tally, reputation, events, now); err != nil {
		return 0, fmt.Errorf("failed to write migrated reputation: %w", err)
	}

	s.logger.Debug("Migrated user",
		zap.String("userID", userID.String()),
		zap.Int64("projects", tally.Projects),
		zap.Int64("likes", tally.Likes),
		zap.Int64("comments", tally.Comments),
		zap.Int64("followers", tally.Followers),
		zap.Int64("reputation", reputation))

	return reputation, nil
}

// Tally counts a user's activity from the source tables. Projects and
// followers are counted side by side; likes and comments are counted per
// project with bounded concurrency.
func (s *HistoryService) Tally(ctx context.Context, userID uuid.UUID) (*types.HistoricalTally, error) {
	tally := &types.HistoricalTally{UserID: userID}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		projectIDs, err := s.source.ListOwnedProjectIDs(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		var (
			mu       sync.Mutex
			likes    int64
			comments int64
		)

		p := pool.New().
			WithContext(ctx).
			WithCancelOnError().
			WithMaxGoroutines(s.config.Concurrency)

		for _, projectID := range projectIDs {
			p.Go(func(ctx context.Context) error {
				projectLikes, err := s.source.CountProjectLikes(ctx, projectID)
				if err != nil {
					return fmt.Errorf("failed to count likes of project %s: %w", projectID, err)
				}

				projectComments, err := s.source.CountProjectComments(ctx, projectID)
				if err != nil {
					return fmt.Errorf("failed to count comments of project %s: %w", projectID, err)
				}

				mu.Lock()
				likes += projectLikes
				comments += projectComments
				mu.Unlock()

				return nil
			})
		}

		if err := p.Wait(); err != nil {
			return err
		}

		tally.Projects = int64(len(projectIDs))
		tally.Likes = likes
		tally.Comments = comments

		return nil
	})

	g.Go(func() error {
		followers, err := s.source.CountFollowers(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count followers: %w", err)
		}

		tally.Followers = followers

		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %w", types.ErrMigrationCancelled, err)
		}

		return nil, err
	}

	return tally, nil
}
