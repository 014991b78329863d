package chart_test

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/export/chart"
	"github.com/openshelf/reputation/internal/export/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPNG(t *testing.T) {
	t.Parallel()

	snapshot := &types.Snapshot{GeneratedAt: time.Now()}
	for i := range 12 {
		snapshot.Records = append(snapshot.Records, &types.LeaderboardRecord{
			Rank:        i + 1,
			UserID:      uuid.New(),
			Username:    "user",
			Reputation:  int64(500 - i*30),
			IsTopRanked: i == 0,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, chart.Render(snapshot, &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, img.Bounds().Dx(), 640)
}

func TestRenderSingleEntry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "leaderboard.png")
	snapshot := &types.Snapshot{
		GeneratedAt: time.Now(),
		Records: []*types.LeaderboardRecord{
			{Rank: 1, UserID: uuid.New(), Username: "ada", Reputation: 10, IsTopRanked: true},
		},
	}

	require.NoError(t, chart.New(path).Export(snapshot))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderEmptyLeaderboard(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.ErrorIs(t, chart.Render(&types.Snapshot{GeneratedAt: time.Now()}, &buf), chart.ErrEmptyLeaderboard)
}
