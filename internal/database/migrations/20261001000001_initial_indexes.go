package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Leaderboard ordering
			CREATE INDEX IF NOT EXISTS idx_users_ranking
			ON users (reputation DESC, updated_at ASC, id ASC)
			WHERE reputation > 0;

			CREATE INDEX IF NOT EXISTS idx_users_top_ranked
			ON users (is_top_ranked)
			WHERE is_top_ranked = true;

			-- Reputation history indexes
			CREATE INDEX IF NOT EXISTS idx_reputation_events_user_time
			ON reputation_events (user_id, occurred_at DESC, id DESC);

			CREATE INDEX IF NOT EXISTS idx_reputation_events_user_source
			ON reputation_events (user_id, source_id)
			WHERE superseded = false;

			-- Source table indexes used by the historical migration
			CREATE INDEX IF NOT EXISTS idx_projects_owner
			ON projects (owner_id)
			WHERE is_deleted = false;

			CREATE INDEX IF NOT EXISTS idx_project_likes_project
			ON project_likes (project_id);

			CREATE INDEX IF NOT EXISTS idx_project_comments_project
			ON project_comments (project_id);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_users_ranking;
			DROP INDEX IF EXISTS idx_users_top_ranked;
			DROP INDEX IF EXISTS idx_reputation_events_user_time;
			DROP INDEX IF EXISTS idx_reputation_events_user_source;
			DROP INDEX IF EXISTS idx_projects_owner;
			DROP INDEX IF EXISTS idx_project_likes_project;
			DROP INDEX IF EXISTS idx_project_comments_project;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
