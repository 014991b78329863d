package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// StatusReporter periodically publishes a worker's status.
type StatusReporter struct {
	monitor  *Monitor
	status   Status
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewStatusReporter creates a new status reporter. An empty workerID is
// replaced by a random one.
func NewStatusReporter(client rueidis.Client, workerType, workerID string, logger *zap.Logger) *StatusReporter {
	if workerID == "" {
		workerID = uuid.NewString()
	}

	return &StatusReporter{
		monitor: NewMonitor(client, logger),
		status: Status{
			WorkerID:   workerID,
			WorkerType: workerType,
			IsHealthy:  true,
		},
		interval: HeartbeatInterval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Named("status_reporter"),
	}
}

// Start begins periodic status reporting until ctx ends or Stop is called.
func (r *StatusReporter) Start(ctx context.Context) {
	r.mu.Lock()
	if r.stopped || r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.Report(ctx)

		for {
			select {
			case <-ticker.C:
				r.Report(ctx)
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			}
		}
	}()
}

// Report publishes the current status once.
func (r *StatusReporter) Report(ctx context.Context) {
	if err := r.monitor.ReportStatus(ctx, r.Status()); err != nil {
		r.logger.Error("Failed to report status", zap.Error(err))
	}
}

// Stop ends status reporting and waits for the reporting goroutine.
func (r *StatusReporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	close(r.stopChan)
	r.mu.Unlock()

	if started {
		<-r.done
	}
}

// UpdateStatus sets the task the worker is busy with.
func (r *StatusReporter) UpdateStatus(task string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.CurrentTask = task
}

// RecordRun stores the outcome of a completed cycle and updates health.
func (r *StatusReporter) RecordRun(at time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.LastRun = at
	r.status.IsHealthy = err == nil
	r.status.LastError = ""

	if err != nil {
		r.status.LastError = err.Error()
	}
}

// Status returns a copy of the current status.
func (r *StatusReporter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// GetWorkerID returns the unique worker ID.
func (r *StatusReporter) GetWorkerID() string {
	return r.status.WorkerID
}
