package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/dbretry"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// RankingModel handles leaderboard queries and the top-rank flag.
type RankingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewRanking creates a RankingModel.
func NewRanking(db *bun.DB, logger *zap.Logger) *RankingModel {
	return &RankingModel{
		db:     db,
		logger: logger.Named("db_ranking"),
	}
}

// GetRankedUsers returns up to limit users with positive reputation in
// leaderboard order.
func (r *RankingModel) GetRankedUsers(ctx context.Context, limit int) ([]*types.User, error) {
	users, err := dbretry.Operation(ctx, "get ranked users", func(ctx context.Context) ([]*types.User, error) {
		var users []*types.User

		err := r.db.NewSelect().
			Model(&users).
			Where("reputation > 0").
			Order("reputation DESC", "updated_at ASC", "id ASC").
			Limit(limit).
			Scan(ctx)

		return users, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ranked users: %w", err)
	}

	return users, nil
}

// CountPublicProjects counts the public, non-deleted projects of each owner in
// a single grouped query. Owners without projects are absent from the map.
func (r *RankingModel) CountPublicProjects(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(ownerIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}

	type projectCount struct {
		OwnerID uuid.UUID `bun:"owner_id"`
		Count   int64     `bun:"count"`
	}

	rows, err := dbretry.Operation(ctx, "count public projects", func(ctx context.Context) ([]projectCount, error) {
		var rows []projectCount

		err := r.db.NewSelect().
			Model((*types.Project)(nil)).
			Column("owner_id").
			ColumnExpr("COUNT(*) AS count").
			Where("owner_id IN (?)", bun.In(ownerIDs)).
			Where("is_deleted = false").
			Where("visibility = ?", types.ProjectVisibilityPublic).
			Group("owner_id").
			Scan(ctx, &rows)

		return rows, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count public projects: %w", err)
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.OwnerID] = row.Count
	}

	return counts, nil
}

// topRankLockKey is the advisory lock serializing moves of the top-rank flag.
const topRankLockKey = 7_310_001

// SetTopRanked moves the top-rank flag to userID in one transaction, clearing
// it on every other user. Passing uuid.Nil clears the flag everywhere.
// Concurrent calls are serialized so at most one row ends up flagged.
func (r *RankingModel) SetTopRanked(ctx context.Context, userID uuid.UUID) error {
	err := dbretry.Transaction(ctx, r.db, "set top ranked", func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(?)", topRankLockKey).Exec(ctx); err != nil {
			return fmt.Errorf("failed to lock top rank: %w", err)
		}

		_, err := tx.NewUpdate().
			Model((*types.User)(nil)).
			Set("is_top_ranked = false").
			Where("is_top_ranked = true").
			Where("id != ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear top rank: %w", err)
		}

		if userID == uuid.Nil {
			return nil
		}

		_, err = tx.NewUpdate().
			Model((*types.User)(nil)).
			Set("is_top_ranked = true").
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set top rank: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update top rank: %w", err)
	}

	r.logger.Debug("Updated top ranked user", zap.String("userID", userID.String()))

	return nil
}

// GetTopRankedIDs returns every user currently carrying the top-rank flag.
func (r *RankingModel) GetTopRankedIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := dbretry.Operation(ctx, "get top ranked", func(ctx context.Context) ([]uuid.UUID, error) {
		var ids []uuid.UUID

		err := r.db.NewSelect().
			Model((*types.User)(nil)).
			Column("id").
			Where("is_top_ranked = true").
			Order("id ASC").
			Scan(ctx, &ids)

		return ids, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get top ranked users: %w", err)
	}

	return ids, nil
}
