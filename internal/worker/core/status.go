package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// HeartbeatInterval is how often workers report their status.
	HeartbeatInterval = 10 * time.Second

	// HeartbeatTTL is how long a worker's status remains valid.
	HeartbeatTTL = 10 * time.Minute

	// StaleThreshold is how long before a worker is considered offline.
	StaleThreshold = time.Minute

	// StatusKeyPrefix namespaces worker status keys.
	StatusKeyPrefix = "worker:"
)

// Status represents a worker's current state.
type Status struct {
	WorkerID    string    `json:"workerId"`
	WorkerType  string    `json:"workerType"`
	LastSeen    time.Time `json:"lastSeen"`
	CurrentTask string    `json:"currentTask,omitempty"`
	LastRun     time.Time `json:"lastRun"`
	LastError   string    `json:"lastError,omitempty"`
	IsHealthy   bool      `json:"isHealthy"`
}

// IsStale reports whether the worker missed its heartbeats.
func (s Status) IsStale(now time.Time) bool {
	return now.Sub(s.LastSeen) > StaleThreshold
}

// StatusKey returns the Redis key holding a worker's status.
func StatusKey(workerType, workerID string) string {
	return fmt.Sprintf("%s%s:%s", StatusKeyPrefix, workerType, workerID)
}

// Monitor handles worker status reporting and querying.
type Monitor struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewMonitor creates a new worker status monitor.
func NewMonitor(client rueidis.Client, logger *zap.Logger) *Monitor {
	return &Monitor{
		client: client,
		logger: logger.Named("worker_monitor"),
	}
}

// ReportStatus stores a worker's status with a fresh LastSeen.
func (m *Monitor) ReportStatus(ctx context.Context, status Status) error {
	status.LastSeen = time.Now()

	data, err := sonic.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	key := StatusKey(status.WorkerType, status.WorkerID)

	err = m.client.Do(ctx, m.client.B().Set().Key(key).Value(rueidis.BinaryString(data)).Ex(HeartbeatTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}

	return nil
}

// GetAllStatuses retrieves the status of every worker that reported recently.
func (m *Monitor) GetAllStatuses(ctx context.Context) ([]Status, error) {
	var (
		statuses []Status
		cursor   uint64
	)

	for {
		entry, err := m.client.Do(ctx, m.client.B().Scan().
			Cursor(cursor).
			Match(StatusKeyPrefix+"*").
			Count(100).
			Build()).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker keys: %w", err)
		}

		for _, key := range entry.Elements {
			data, err := m.client.Do(ctx, m.client.B().Get().Key(key).Build()).AsBytes()
			if err != nil {
				if !rueidis.IsRedisNil(err) {
					m.logger.Error("Failed to get worker status", zap.String("key", key), zap.Error(err))
				}

				continue
			}

			var status Status
			if err := sonic.Unmarshal(data, &status); err != nil {
				m.logger.Error("Failed to unmarshal worker status", zap.String("key", key), zap.Error(err))
				continue
			}

			statuses = append(statuses, status)
		}

		if entry.Cursor == 0 {
			break
		}

		cursor = entry.Cursor
	}

	return statuses, nil
}
