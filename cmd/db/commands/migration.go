package commands

import (
	"context"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MigrationCommands returns the schema migration commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "init",
			Usage:  "Initialize migration tables",
			Action: handleInit(deps),
		},
		{
			Name:   "migrate",
			Usage:  "Apply pending schema migrations",
			Action: handleMigrate(deps),
		},
		{
			Name:   "rollback",
			Usage:  "Roll back the last migration group",
			Action: handleRollback(deps),
		},
		{
			Name:   "status",
			Usage:  "Show schema migration status",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Create a new Go migration file",
			ArgsUsage: "NAME",
			Action:    handleCreate(deps),
		},
	}
}

func handleInit(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		return deps.Migrator.Init(ctx)
	}
}

func handleMigrate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Lock(ctx); err != nil {
			return err
		}
		defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

		group, err := deps.Migrator.Migrate(ctx)
		if err != nil {
			return err
		}

		if group.IsZero() {
			deps.Logger.Info("Schema is up to date")
			return nil
		}

		deps.Logger.Info("Applied migrations", zap.String("group", group.String()))

		return nil
	}
}

func handleRollback(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Lock(ctx); err != nil {
			return err
		}
		defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

		group, err := deps.Migrator.Rollback(ctx)
		if err != nil {
			return err
		}

		if group.IsZero() {
			deps.Logger.Info("Nothing to roll back")
			return nil
		}

		deps.Logger.Info("Rolled back migrations", zap.String("group", group.String()))

		return nil
	}
}

func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return err
		}

		deps.Logger.Info("Schema migration status",
			zap.Int("total", len(ms)),
			zap.Int("pending", len(ms.Unapplied())),
			zap.String("unapplied", ms.Unapplied().String()),
			zap.String("lastGroup", ms.LastGroup().String()))

		return nil
	}
}

func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrNameRequired
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, c.Args().First())
		if err != nil {
			return err
		}

		deps.Logger.Info("Created Go migration",
			zap.String("name", mf.Name),
			zap.String("path", mf.Path))

		return nil
	}
}
