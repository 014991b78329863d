package migrations

import (
	"context"
	"fmt"

	"github.com/openshelf/reputation/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []struct {
			model       any
			name        string
			foreignKeys []string
		}{
			{(*types.User)(nil), "users", nil},
			{(*types.ReputationEvent)(nil), "reputation_events", []string{
				`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			}},
			{(*types.UserAchievement)(nil), "user_achievements", []string{
				`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			}},
			// Source tables owned by the project and social services
			{(*types.Project)(nil), "projects", []string{
				`("owner_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			}},
			{(*types.ProjectLike)(nil), "project_likes", []string{
				`("project_id") REFERENCES "projects" ("id") ON DELETE CASCADE`,
			}},
			{(*types.ProjectComment)(nil), "project_comments", []string{
				`("project_id") REFERENCES "projects" ("id") ON DELETE CASCADE`,
			}},
			{(*types.UserFollower)(nil), "user_followers", []string{
				`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			}},
		}

		for _, table := range tables {
			query := db.NewCreateTable().
				Model(table.model).
				ModelTableExpr(table.name).
				IfNotExists()

			for _, fk := range table.foreignKeys {
				query = query.ForeignKey(fk)
			}

			if _, err := query.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table %s: %w", table.name, err)
			}
		}

		_, err := db.NewRaw(`
			ALTER TABLE projects DROP CONSTRAINT IF EXISTS chk_projects_visibility;
			ALTER TABLE projects ADD CONSTRAINT chk_projects_visibility
			CHECK (visibility IN ('public', 'private'));

			ALTER TABLE reputation_events DROP CONSTRAINT IF EXISTS chk_reputation_events_type;
			ALTER TABLE reputation_events ADD CONSTRAINT chk_reputation_events_type
			CHECK (type IN ('like_received', 'comment_received', 'project_published', 'follower_gained'));
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add check constraints: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP TABLE IF EXISTS
				user_followers,
				project_comments,
				project_likes,
				projects,
				user_achievements,
				reputation_events,
				users
			CASCADE
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}

		return nil
	})
}
