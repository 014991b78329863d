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

// UserModel handles database operations for user reputation records.
type UserModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewUser creates a UserModel.
func NewUser(db *bun.DB, logger *zap.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger.Named("db_user"),
	}
}

// EnsureUser creates the reputation record for an account if it does not exist
// yet and refreshes the profile fields if it does. Reputation and counters are
// never touched here.
func (r *UserModel) EnsureUser(ctx context.Context, user *types.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	err := dbretry.NoResult(ctx, "ensure user", func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(user).
			On("CONFLICT (id) DO UPDATE").
			Set("username = EXCLUDED.username").
			Set("display_name = EXCLUDED.display_name").
			Set("avatar_url = EXCLUDED.avatar_url").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	r.logger.Debug("Ensured user record", zap.String("userID", user.ID.String()))

	return nil
}

// GetUser retrieves a user's reputation record.
func (r *UserModel) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := dbretry.Operation(ctx, "get user", func(ctx context.Context) (*types.User, error) {
		var user types.User

		err := r.db.NewSelect().
			Model(&user).
			Where("id = ?", userID).
			Scan(ctx)

		return &user, err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewUserNotFound(userID)
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUsers retrieves the reputation records of several users keyed by ID.
func (r *UserModel) GetUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*types.User, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID]*types.User{}, nil
	}

	users, err := dbretry.Operation(ctx, "get users", func(ctx context.Context) ([]*types.User, error) {
		var users []*types.User

		err := r.db.NewSelect().
			Model(&users).
			Where("id IN (?)", bun.In(userIDs)).
			Scan(ctx)

		return users, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	result := make(map[uuid.UUID]*types.User, len(users))
	for _, user := range users {
		result[user.ID] = user
	}

	return result, nil
}

// ListUserIDs returns up to limit user IDs greater than after, in ID order.
// Pass uuid.Nil to start from the beginning.
func (r *UserModel) ListUserIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	ids, err := dbretry.Operation(ctx, "list user ids", func(ctx context.Context) ([]uuid.UUID, error) {
		var ids []uuid.UUID

		err := r.db.NewSelect().
			Model((*types.User)(nil)).
			Column("id").
			Where("id > ?", after).
			Order("id ASC").
			Limit(limit).
			Scan(ctx, &ids)

		return ids, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list user IDs: %w", err)
	}

	return ids, nil
}

// CountUsers returns the number of reputation records.
func (r *UserModel) CountUsers(ctx context.Context) (int, error) {
	count, err := dbretry.Operation(ctx, "count users", func(ctx context.Context) (int, error) {
		return r.db.NewSelect().
			Model((*types.User)(nil)).
			Count(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
