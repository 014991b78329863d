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

// SourceModel reads the activity tables owned by the project and social
// services. It never writes to them.
type SourceModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSource creates a SourceModel.
func NewSource(db *bun.DB, logger *zap.Logger) *SourceModel {
	return &SourceModel{
		db:     db,
		logger: logger.Named("db_source"),
	}
}

// ListOwnedProjectIDs returns the non-deleted projects owned by a user.
func (r *SourceModel) ListOwnedProjectIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := dbretry.Operation(ctx, "list owned projects", func(ctx context.Context) ([]uuid.UUID, error) {
		var ids []uuid.UUID

		err := r.db.NewSelect().
			Model((*types.Project)(nil)).
			Column("id").
			Where("owner_id = ?", ownerID).
			Where("is_deleted = false").
			Order("id ASC").
			Scan(ctx, &ids)

		return ids, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list owned projects: %w", err)
	}

	return ids, nil
}

// CountProjectLikes returns the number of likes a project received.
func (r *SourceModel) CountProjectLikes(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return r.count(ctx, "count project likes", (*types.ProjectLike)(nil), "project_id", projectID)
}

// CountProjectComments returns the number of comments left on a project.
func (r *SourceModel) CountProjectComments(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return r.count(ctx, "count project comments", (*types.ProjectComment)(nil), "project_id", projectID)
}

// CountFollowers returns the number of followers of a user.
func (r *SourceModel) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, "count followers", (*types.UserFollower)(nil), "user_id", userID)
}

func (r *SourceModel) count(ctx context.Context, op string, model any, column string, id uuid.UUID) (int64, error) {
	count, err := dbretry.Operation(ctx, op, func(ctx context.Context) (int, error) {
		return r.db.NewSelect().
			Model(model).
			Where("? = ?", bun.Ident(column), id).
			Count(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}

	return int64(count), nil
}
