package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/openshelf/reputation/internal/worker/core"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTest(t *testing.T) (*miniredis.Miniredis, rueidis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return mr, client
}

func TestMonitorReportAndList(t *testing.T) {
	t.Parallel()

	mr, client := setupTest(t)
	monitor := core.NewMonitor(client, zaptest.NewLogger(t))
	ctx := t.Context()

	require.NoError(t, monitor.ReportStatus(ctx, core.Status{
		WorkerID:   "a",
		WorkerType: "leaderboard",
		IsHealthy:  true,
	}))
	require.NoError(t, monitor.ReportStatus(ctx, core.Status{
		WorkerID:   "b",
		WorkerType: "leaderboard",
		LastError:  "boom",
	}))

	assert.True(t, mr.Exists(core.StatusKey("leaderboard", "a")))
	assert.Equal(t, core.HeartbeatTTL, mr.TTL(core.StatusKey("leaderboard", "a")))

	statuses, err := monitor.GetAllStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	for _, status := range statuses {
		assert.False(t, status.IsStale(time.Now()))
		assert.Equal(t, "leaderboard", status.WorkerType)
	}
}

func TestMonitorSkipsCorruptEntries(t *testing.T) {
	t.Parallel()

	mr, client := setupTest(t)
	monitor := core.NewMonitor(client, zaptest.NewLogger(t))

	require.NoError(t, mr.Set(core.StatusKey("leaderboard", "broken"), "{not json"))

	statuses, err := monitor.GetAllStatuses(t.Context())
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestStatusIsStale(t *testing.T) {
	t.Parallel()

	now := time.Now()
	assert.False(t, core.Status{LastSeen: now.Add(-30 * time.Second)}.IsStale(now))
	assert.True(t, core.Status{LastSeen: now.Add(-2 * time.Minute)}.IsStale(now))
}

func TestStatusReporterRecordsRuns(t *testing.T) {
	t.Parallel()

	mr, client := setupTest(t)
	reporter := core.NewStatusReporter(client, "leaderboard", "", zaptest.NewLogger(t))
	require.NotEmpty(t, reporter.GetWorkerID())

	now := time.Now()
	reporter.RecordRun(now, errors.New("database down"))
	assert.False(t, reporter.Status().IsHealthy)
	assert.Equal(t, "database down", reporter.Status().LastError)

	reporter.RecordRun(now, nil)
	assert.True(t, reporter.Status().IsHealthy)
	assert.Empty(t, reporter.Status().LastError)

	reporter.Start(t.Context())
	reporter.Stop()
	reporter.Stop()

	assert.True(t, mr.Exists(core.StatusKey("leaderboard", reporter.GetWorkerID())))
}
