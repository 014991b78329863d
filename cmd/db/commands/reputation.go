package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types/enum"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ReputationCommands returns the commands that write reputation.
func ReputationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "recompute-reputation",
			Usage: "Rebuild every user's reputation from projects, likes, comments and followers",
			Description: `Recount each user's activity from the source tables and overwrite their
reputation and counters. Older history entries are superseded by one aggregate
entry per event type, so running the command again gives the same result.

Only one recompute can run at a time across all machines.

Examples:
  db recompute-reputation --yes`,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "yes",
					Usage: "Confirm that reputation for every user should be overwritten",
				},
			},
			Action: handleRecompute(deps),
		},
		{
			Name:      "award",
			Usage:     "Award a reputation event to a user",
			ArgsUsage: "USER TYPE SOURCE",
			Action:    handleEvent(deps, false),
		},
		{
			Name:      "revoke",
			Usage:     "Revoke a previously awarded reputation event",
			ArgsUsage: "USER TYPE SOURCE",
			Action:    handleEvent(deps, true),
		},
	}
}

func handleRecompute(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if !c.Bool("yes") {
			return ErrConfirmationRequired
		}

		report, err := deps.Services.History().MigrateAll(ctx)
		if report != nil {
			p := message.NewPrinter(language.English)
			p.Printf("Migrated %d users for %d total points in %s\n",
				report.UsersMigrated, report.TotalPoints, report.Duration)

			if report.FailedUserID != uuid.Nil {
				p.Printf("Stopped at user %s\n", report.FailedUserID)
			}
		}

		if err != nil {
			return fmt.Errorf("recompute failed: %w", err)
		}

		if err := deps.Cache.Invalidate(ctx); err != nil {
			deps.Logger.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
		}

		return nil
	}
}

func handleEvent(deps *CLIDependencies, revoke bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 3 {
			return ErrEventArgsRequired
		}

		userID, err := uuid.Parse(c.Args().Get(0))
		if err != nil {
			return fmt.Errorf("invalid user ID: %w", err)
		}

		eventType, err := enum.EventTypeString(c.Args().Get(1))
		if err != nil {
			return fmt.Errorf("invalid event type: %w", err)
		}

		sourceID := c.Args().Get(2)
		ledger := deps.Services.Ledger()

		if revoke {
			err = ledger.RevokeEvent(ctx, userID, eventType, sourceID)
		} else {
			err = ledger.AwardEvent(ctx, userID, eventType, sourceID)
		}

		if err != nil {
			return err
		}

		if err := deps.Cache.Invalidate(ctx); err != nil {
			deps.Logger.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
		}

		deps.Logger.Info("Recorded event",
			zap.String("userID", userID.String()),
			zap.String("type", eventType.String()),
			zap.Bool("revoke", revoke),
			zap.String("sourceID", sourceID))

		return nil
	}
}
