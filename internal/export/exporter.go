package export

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	dbTypes "github.com/openshelf/reputation/internal/database/types"
	"github.com/openshelf/reputation/internal/export/chart"
	"github.com/openshelf/reputation/internal/export/csv"
	"github.com/openshelf/reputation/internal/export/sqlite"
	"github.com/openshelf/reputation/internal/export/types"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatPNG    Format = "png"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatSQLite, FormatCSV, FormatJSON, FormatPNG}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	for _, format := range Formats() {
		if string(format) == name {
			return format, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// NewSnapshot converts computed leaderboard entries into an export snapshot.
func NewSnapshot(entries []*dbTypes.LeaderboardEntry, at time.Time) *types.Snapshot {
	records := make([]*types.LeaderboardRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, &types.LeaderboardRecord{
			Rank:         entry.Rank,
			UserID:       entry.User.ID,
			Username:     entry.User.Username,
			DisplayName:  entry.User.DisplayName,
			Reputation:   entry.User.Reputation,
			ProjectCount: entry.User.ProjectCount,
			IsTopRanked:  entry.User.IsTopRanked,
		})
	}

	return &types.Snapshot{
		GeneratedAt: at,
		Records:     records,
	}
}

// Export writes the snapshot to path in the given format.
func Export(format Format, path string, snapshot *types.Snapshot) error {
	var exporter interface {
		Export(snapshot *types.Snapshot) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(path)
	case FormatCSV:
		exporter = csv.New(path)
	case FormatPNG:
		exporter = chart.New(path)
	case FormatJSON:
		return writeJSON(path, snapshot)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(snapshot)
}

func writeJSON(path string, snapshot *types.Snapshot) error {
	data, err := sonic.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}
