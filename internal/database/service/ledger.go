package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/openshelf/reputation/internal/database/types/enum"
	"go.uber.org/zap"
)

// LedgerService records point-earning events and keeps running totals.
type LedgerService struct {
	users      UserStore
	reputation ReputationStore
	evaluator  *AchievementService
	points     types.PointTable
	logger     *zap.Logger
}

// NewLedger creates a new ledger service.
func NewLedger(
	users UserStore,
	reputation ReputationStore,
	evaluator *AchievementService,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		users:      users,
		reputation: reputation,
		evaluator:  evaluator,
		points:     types.DefaultPointTable(),
		logger:     logger.Named("ledger_service"),
	}
}

// EnsureUser creates the reputation record for a new account. Calling it for an
// existing account only refreshes the profile fields.
func (s *LedgerService) EnsureUser(ctx context.Context, user *types.User) error {
	if user.ID == uuid.Nil {
		return types.ErrInvalidUserID
	}

	if err := s.users.EnsureUser(ctx, user); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	return nil
}

// AwardEvent adds the points of the event to the user's reputation, bumps the
// matching counter and appends a history entry. Unknown users are logged and
// ignored. Achievements are evaluated for the user once the write succeeded;
// evaluation problems never fail the award.
func (s *LedgerService) AwardEvent(ctx context.Context, userID uuid.UUID, eventType enum.EventType, sourceID string) error {
	applied, err := s.record(ctx, userID, eventType, sourceID, 1)
	if err != nil || !applied {
		return err
	}

	s.evaluator.Evaluate(ctx, userID)

	return nil
}

// RevokeEvent reverses a previously awarded event by appending an entry with
// negated points and decrementing the counter. A revocation without a matching
// award for the same source, such as a second unlike, is logged and ignored.
// Unlocked achievements are kept.
func (s *LedgerService) RevokeEvent(ctx context.Context, userID uuid.UUID, eventType enum.EventType, sourceID string) error {
	_, err := s.record(ctx, userID, eventType, sourceID, -1)
	return err
}

// record writes one ledger entry. sign is 1 for awards and -1 for revocations.
func (s *LedgerService) record(
	ctx context.Context, userID uuid.UUID, eventType enum.EventType, sourceID string, sign int64,
) (bool, error) {
	points, err := s.points.Points(eventType)
	if err != nil {
		return false, err
	}

	action := "award"
	if sign < 0 {
		action = "revoke"
	}

	event := &types.ReputationEvent{
		UserID:     userID,
		Type:       eventType,
		Points:     points * sign,
		SourceID:   sourceID,
		OccurredAt: time.Now(),
	}

	counter := types.CounterFor(eventType)
	if sign < 0 {
		err = s.reputation.RevokeEvent(ctx, event, counter)
	} else {
		err = s.reputation.ApplyEvent(ctx, event, counter, sign)
	}

	if err != nil {
		fields := []zap.Field{
			zap.String("userID", userID.String()),
			zap.String("type", eventType.String()),
			zap.String("action", action),
			zap.String("sourceID", sourceID),
		}

		switch {
		case errors.Is(err, types.ErrUserNotFound):
			s.logger.Warn("Dropped reputation event for unknown user", fields...)
			eventsDropped.WithLabelValues(eventType.String(), "unknown_user").Inc()

			return false, nil
		case errors.Is(err, types.ErrNoMatchingAward):
			s.logger.Warn("Ignored revocation without a matching award", fields...)
			eventsDropped.WithLabelValues(eventType.String(), "no_matching_award").Inc()

			return false, nil
		}

		return false, fmt.Errorf("failed to %s %s event: %w", action, eventType, err)
	}

	eventsRecorded.WithLabelValues(eventType.String(), action).Inc()

	s.logger.Debug("Recorded reputation event",
		zap.String("userID", userID.String()),
		zap.String("type", eventType.String()),
		zap.String("action", action),
		zap.Int64("points", event.Points),
		zap.String("sourceID", sourceID))

	return true, nil
}
