package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openshelf/reputation/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	commonTOML = `
[common]
version = 1

[common.postgresql]
host = "db"
port = 5433

[common.reputation]
default_leaderboard_limit = 15
max_leaderboard_limit = 50
`
	apiTOML = `
[api]
version = 1

[api.server]
port = 9090

[api.cache]
leaderboard_ttl = 45
`
	workerTOML = `
[worker]
version = 1

[worker.leaderboard]
interval = 120
limit = 5
`
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".toml"), []byte(content), 0o600))
}

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "common", commonTOML)
	writeConfig(t, dir, "api", apiTOML)
	writeConfig(t, dir, "worker", workerTOML)

	cfg, usedPath, err := config.LoadConfigFrom([]string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)
	assert.Equal(t, dir, usedPath)

	assert.Equal(t, "db", cfg.Common.PostgreSQL.Host)
	assert.Equal(t, 5433, cfg.Common.PostgreSQL.Port)
	assert.Equal(t, 15, cfg.Common.Reputation.DefaultLeaderboardLimit)
	assert.Equal(t, 50, cfg.Common.Reputation.MaxLeaderboardLimit)
	assert.Equal(t, 9090, cfg.API.Server.Port)
	assert.Equal(t, 45, cfg.API.Cache.LeaderboardTTL)
	assert.Equal(t, 120, cfg.Worker.Leaderboard.Interval)
	assert.Equal(t, 5, cfg.Worker.Leaderboard.Limit)
}

func TestLoadConfigFromMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "common", commonTOML)

	_, _, err := config.LoadConfigFrom([]string{dir})
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func TestLoadConfigFromVersionChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		worker string
		want   error
	}{
		{name: "missing", worker: "[worker]\nstartup_delay = 1\n", want: config.ErrConfigVersionMissing},
		{name: "mismatch", worker: "[worker]\nversion = 99\n", want: config.ErrConfigVersionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, "common", commonTOML)
			writeConfig(t, dir, "api", apiTOML)
			writeConfig(t, dir, "worker", tt.worker)

			_, _, err := config.LoadConfigFrom([]string{dir})
			require.ErrorIs(t, err, tt.want)
		})
	}
}
