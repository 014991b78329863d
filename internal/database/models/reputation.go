package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/dbretry"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ReputationModel handles the reputation ledger: running totals and history.
type ReputationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReputation creates a ReputationModel.
func NewReputation(db *bun.DB, logger *zap.Logger) *ReputationModel {
	return &ReputationModel{
		db:     db,
		logger: logger.Named("db_reputation"),
	}
}

// ApplyEvent adds the event's points to the user's total, moves the given
// counter by counterDelta (never below zero) and appends the event to the
// history, all in one transaction. Every update is an SQL increment so
// concurrent events for the same user cannot lose writes.
func (r *ReputationModel) ApplyEvent(
	ctx context.Context, event *types.ReputationEvent, counter types.CounterColumn, counterDelta int64,
) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	return dbretry.Transaction(ctx, r.db, "apply reputation event", func(ctx context.Context, tx bun.Tx) error {
		return applyEvent(ctx, tx, event, counter, counterDelta)
	})
}

// RevokeEvent writes a revocation entry for the user, type and source of the
// event. The user's row is locked first so concurrent revocations of the same
// source are serialized. When the earlier entries for that source no longer
// leave a positive balance, nothing is written and ErrNoMatchingAward is
// returned. Superseded entries still count: a migration folds awards into its
// aggregate, it does not undo them.
func (r *ReputationModel) RevokeEvent(
	ctx context.Context, event *types.ReputationEvent, counter types.CounterColumn,
) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	return dbretry.Transaction(ctx, r.db, "revoke reputation event", func(ctx context.Context, tx bun.Tx) error {
		var lockedID uuid.UUID

		err := tx.NewSelect().
			Model((*types.User)(nil)).
			Column("id").
			Where("id = ?", event.UserID).
			For("UPDATE").
			Scan(ctx, &lockedID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.NewUserNotFound(event.UserID)
			}

			return fmt.Errorf("failed to lock user: %w", err)
		}

		var balance int64

		err = tx.NewSelect().
			Model((*types.ReputationEvent)(nil)).
			ColumnExpr("COALESCE(SUM(points), 0)").
			Where("user_id = ?", event.UserID).
			Where("type = ?", event.Type).
			Where("source_id = ?", event.SourceID).
			Scan(ctx, &balance)
		if err != nil {
			return fmt.Errorf("failed to read source balance: %w", err)
		}

		if balance <= 0 {
			return types.ErrNoMatchingAward
		}

		return applyEvent(ctx, tx, event, counter, -1)
	})
}

// applyEvent runs the ledger write inside an open transaction.
func applyEvent(
	ctx context.Context, tx bun.Tx, event *types.ReputationEvent, counter types.CounterColumn, counterDelta int64,
) error {
	query := tx.NewUpdate().
		Model((*types.User)(nil)).
		Set("reputation = reputation + ?", event.Points).
		Set("updated_at = ?", event.OccurredAt).
		Where("id = ?", event.UserID)

	if counter != types.CounterNone {
		query = query.Set("? = GREATEST(? + ?, 0)", bun.Ident(counter), bun.Ident(counter), counterDelta)
	}

	result, err := query.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update reputation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return types.NewUserNotFound(event.UserID)
	}

	_, err = tx.NewInsert().
		Model(event).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append reputation event: %w", err)
	}

	return nil
}

// GetHistory returns the most recent history entries of a user, newest first.
func (r *ReputationModel) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ReputationEvent, error) {
	events, err := dbretry.Operation(ctx, "get history", func(ctx context.Context) ([]*types.ReputationEvent, error) {
		var events []*types.ReputationEvent

		err := r.db.NewSelect().
			Model(&events).
			Where("user_id = ?", userID).
			Order("id DESC").
			Limit(limit).
			Scan(ctx)

		return events, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation history: %w", err)
	}

	return events, nil
}

// SumActivePoints returns the sum of points over the user's non-superseded
// history entries.
func (r *ReputationModel) SumActivePoints(ctx context.Context, userID uuid.UUID) (int64, error) {
	total, err := dbretry.Operation(ctx, "sum history", func(ctx context.Context) (int64, error) {
		var total int64

		err := r.db.NewSelect().
			Model((*types.ReputationEvent)(nil)).
			ColumnExpr("COALESCE(SUM(points), 0)").
			Where("user_id = ?", userID).
			Where("superseded = false").
			Scan(ctx, &total)

		return total, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sum reputation history: %w", err)
	}

	return total, nil
}

// ApplyHistoricalMigration replaces a user's reputation with the recomputed
// tally in one transaction. Earlier ledger entries are marked superseded,
// entries from a previous migration are removed and the new aggregate entries
// take their place, so running the migration twice gives the same result.
func (r *ReputationModel) ApplyHistoricalMigration(
	ctx context.Context, tally *types.HistoricalTally, reputation int64, events []*types.ReputationEvent, at time.Time,
) error {
	counters := tally.Counters()

	return dbretry.Transaction(ctx, r.db, "apply historical migration", func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*types.User)(nil)).
			Set("reputation = ?", reputation).
			Set("project_count = ?", counters.ProjectCount).
			Set("followers_count = ?", counters.FollowersCount).
			Set("likes_received = ?", counters.LikesReceived).
			Set("comments_received = ?", counters.CommentsReceived).
			Set("updated_at = ?", at).
			Where("id = ?", tally.UserID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to overwrite reputation: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		if affected == 0 {
			return types.NewUserNotFound(tally.UserID)
		}

		_, err = tx.NewUpdate().
			Model((*types.ReputationEvent)(nil)).
			Set("superseded = true").
			Where("user_id = ?", tally.UserID).
			Where("source_id != ?", types.HistoricalMigrationSource).
			Where("superseded = false").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to supersede history: %w", err)
		}

		_, err = tx.NewDelete().
			Model((*types.ReputationEvent)(nil)).
			Where("user_id = ?", tally.UserID).
			Where("source_id = ?", types.HistoricalMigrationSource).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete previous migration entries: %w", err)
		}

		if len(events) > 0 {
			_, err = tx.NewInsert().
				Model(&events).
				Returning("id").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to insert migration entries: %w", err)
			}
		}

		return nil
	})
}
