package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/openshelf/reputation/internal/export/types"
)

// Header is the first row of every exported file.
var Header = []string{"rank", "user_id", "username", "display_name", "reputation", "project_count", "is_top_ranked"} //nolint:gochecknoglobals // fixed layout

// Exporter writes leaderboard snapshots to csv files.
type Exporter struct {
	path string
}

// New creates a new csv exporter writing to path.
func New(path string) *Exporter {
	return &Exporter{path: path}
}

// Export overwrites the file at the exporter's path with the snapshot.
func (e *Exporter) Export(snapshot *types.Snapshot) error {
	file, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range snapshot.Records {
		if err := writer.Write([]string{
			strconv.Itoa(record.Rank),
			record.UserID.String(),
			record.Username,
			record.DisplayName,
			strconv.FormatInt(record.Reputation, 10),
			strconv.FormatInt(record.ProjectCount, 10),
			strconv.FormatBool(record.IsTopRanked),
		}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv file: %w", err)
	}

	return nil
}
