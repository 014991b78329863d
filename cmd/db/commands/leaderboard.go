package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/openshelf/reputation/internal/database/types"
	"github.com/openshelf/reputation/internal/export"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LeaderboardCommands returns the ranking commands.
func LeaderboardCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "leaderboard",
			Usage: "Print the reputation leaderboard",
			Flags: []cli.Flag{
				newLimitFlag(),
				&cli.BoolFlag{
					Name:  "recalc-top",
					Usage: "Move the top-rank flag to the current rank 1 user",
				},
			},
			Action: handleLeaderboard(deps),
		},
		{
			Name:   "check-top-rank",
			Usage:  "Verify that at most one user carries the top-rank flag",
			Action: handleCheckTopRank(deps),
		},
		{
			Name:  "export-leaderboard",
			Usage: "Export a leaderboard snapshot",
			Description: `Write the current leaderboard to a file.

Examples:
  db export-leaderboard --format sqlite --output leaderboard.db
  db export-leaderboard --format png --output leaderboard.png --limit 25`,
			Flags: []cli.Flag{
				newLimitFlag(),
				&cli.StringFlag{
					Name:  "format",
					Usage: "Output format: sqlite, csv, json or png",
					Value: string(export.FormatSQLite),
				},
				&cli.StringFlag{
					Name:     "output",
					Usage:    "Output file path (required)",
					Required: true,
				},
			},
			Action: handleExportLeaderboard(deps),
		},
	}
}

func newLimitFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "limit",
		Usage: "Number of users to rank (0 uses the configured default)",
	}
}

func handleLeaderboard(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		recalc := c.Bool("recalc-top")

		entries, err := deps.Services.Ranking().ComputeRanking(ctx, int(c.Int("limit")), recalc)
		if err != nil {
			return err
		}

		if recalc {
			if err := deps.Cache.Invalidate(ctx); err != nil {
				deps.Logger.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
			}
		}

		printLeaderboard(entries)

		return nil
	}
}

// printLeaderboard writes a table of ranked users to stdout.
func printLeaderboard(entries []*types.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Println("No users with positive reputation")
		return
	}

	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "RANK\tUSER\tREPUTATION\tPROJECTS\tTOP")
	for _, entry := range entries {
		top := ""
		if entry.User.IsTopRanked {
			top = "*"
		}

		_, _ = p.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n",
			entry.Rank, entry.User.Username, entry.User.Reputation, entry.User.ProjectCount, top)
	}

	_ = w.Flush()
}

func handleCheckTopRank(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Services.Ranking().CheckTopRank(ctx); err != nil {
			return err
		}

		deps.Logger.Info("Top-rank flag is consistent")

		return nil
	}
}

func handleExportLeaderboard(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		format, err := export.ParseFormat(c.String("format"))
		if err != nil {
			return err
		}

		entries, err := deps.Services.Ranking().ComputeRanking(ctx, int(c.Int("limit")), false)
		if err != nil {
			return err
		}

		output := c.String("output")
		if err := export.Export(format, output, export.NewSnapshot(entries, time.Now())); err != nil {
			return fmt.Errorf("failed to export leaderboard: %w", err)
		}

		deps.Logger.Info("Exported leaderboard",
			zap.String("format", string(format)),
			zap.String("output", output),
			zap.Int("entries", len(entries)))

		return nil
	}
}
