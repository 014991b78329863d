package sqlite

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openshelf/reputation/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Exporter writes leaderboard snapshots to a SQLite database.
type Exporter struct {
	path string
}

// New creates a new SQLite exporter writing to path.
func New(path string) *Exporter {
	return &Exporter{path: path}
}

// Export replaces the database at the exporter's path with the snapshot.
func (e *Exporter) Export(snapshot *types.Snapshot) (err error) {
	if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove existing file %s: %w", e.path, err)
	}

	conn, err := sqlite.OpenConn(e.path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	err = sqlitex.ExecuteScript(conn, `
		CREATE TABLE snapshot (
			generated_at TEXT NOT NULL
		);
		CREATE TABLE leaderboard (
			rank INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL,
			display_name TEXT NOT NULL,
			reputation INTEGER NOT NULL,
			project_count INTEGER NOT NULL,
			is_top_ranked INTEGER NOT NULL
		);
	`, nil)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	err = sqlitex.Execute(conn, "INSERT INTO snapshot (generated_at) VALUES (?)", &sqlitex.ExecOptions{
		Args: []any{snapshot.GeneratedAt.UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, record := range snapshot.Records {
		topRanked := 0
		if record.IsTopRanked {
			topRanked = 1
		}

		err = sqlitex.Execute(conn, `
			INSERT INTO leaderboard
				(rank, user_id, username, display_name, reputation, project_count, is_top_ranked)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, &sqlitex.ExecOptions{
			Args: []any{
				record.Rank,
				record.UserID.String(),
				record.Username,
				record.DisplayName,
				record.Reputation,
				record.ProjectCount,
				topRanked,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to insert rank %d: %w", record.Rank, err)
		}
	}

	return nil
}
