package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/setup/config"
	"github.com/openshelf/reputation/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceType represents the type of service being initialized.
type ServiceType int

const (
	ServiceAPI ServiceType = iota
	ServiceWorker
	ServiceCLI
)

// Manager handles the creation and management of log files and directories.
// Every run writes into its own timestamped session directory.
type Manager struct {
	instanceID        string // Unique identifier for this program instance
	componentName     string // Component identifier for this instance
	currentSessionDir string // Path to the current session's log directory
	logDir            string // Base directory for all logs
	level             string // Logging level (debug, info, warn, error)
	maxLogsToKeep     int    // Maximum number of log sessions to retain
	maxLogLines       int    // Maximum number of lines to keep in each log file
	tracing           bool   // Forward error logs as OpenTelemetry spans
}

// NewManager creates a new Manager instance.
func NewManager(serviceType ServiceType, logDir string, debugCfg *config.Debug, workerType, workerID string) *Manager {
	var componentName string

	switch serviceType {
	case ServiceAPI:
		componentName = "api"
	case ServiceWorker:
		switch {
		case workerType != "" && workerID != "":
			componentName = fmt.Sprintf("%s_worker_%s", workerType, workerID)
		case workerType != "":
			componentName = workerType + "_worker"
		default:
			componentName = "worker"
		}
	case ServiceCLI:
		componentName = "cli"
	default:
		componentName = "unknown"
	}

	level := debugCfg.LogLevel
	if level == "" {
		level = "info"
	}

	return &Manager{
		instanceID:    uuid.New().String(),
		componentName: componentName,
		logDir:        logDir,
		level:         level,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
	}
}

// EnableTracing makes loggers created afterwards forward error entries to
// OpenTelemetry.
func (lm *Manager) EnableTracing() {
	lm.tracing = true
}

// GetLoggers initializes the main and database loggers.
func (lm *Manager) GetLoggers() (*zap.Logger, *zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, nil, err
	}

	mainLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, "main.log"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	dbLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, "database.log"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database logger: %w", err)
	}

	fields := []zap.Field{
		zap.String("component", lm.componentName),
		zap.String("instanceID", lm.instanceID),
	}

	return mainLogger.With(fields...), dbLogger.With(fields...), nil
}

// GetWorkerLogger creates a logger for a background worker in its own file.
func (lm *Manager) GetWorkerLogger(name string) *zap.Logger {
	logger, err := lm.initLogger(filepath.Join(lm.getOrCreateSessionDir(), name+".log"))
	if err != nil {
		return zap.NewNop()
	}

	return logger
}

// GetCurrentSessionDir returns the current session directory.
func (lm *Manager) GetCurrentSessionDir() string {
	return lm.getOrCreateSessionDir()
}

// GetInstanceID returns the unique instance identifier for this program run.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// GetComponentName returns the component this manager logs for.
func (lm *Manager) GetComponentName() string {
	return lm.componentName
}

// setupLogDirectories ensures the base directory exists, rotates old sessions
// and creates a new session directory.
func (lm *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	lm.currentSessionDir = lm.newSessionDir()
	if err := os.MkdirAll(lm.currentSessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	return nil
}

func (lm *Manager) newSessionDir() string {
	return filepath.Join(lm.logDir, fmt.Sprintf("%s_%s", time.Now().Format("2006-01-02_15-04-05"), lm.componentName))
}

// getOrCreateSessionDir returns the current session directory or creates a new
// one, falling back to the base log directory.
func (lm *Manager) getOrCreateSessionDir() string {
	if lm.currentSessionDir != "" {
		return lm.currentSessionDir
	}

	sessionDir := lm.newSessionDir()
	if err := os.MkdirAll(sessionDir, os.ModePerm); err != nil {
		return lm.logDir
	}

	lm.currentSessionDir = sessionDir

	return sessionDir
}

// initLogger creates a zap logger writing to the given file.
func (lm *Manager) initLogger(logPath string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", logPath, err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var writer zapcore.WriteSyncer = file
	if lm.maxLogLines > 0 {
		writer = zapcore.AddSync(logger.NewLogRotator(file, lm.maxLogLines, logPath))
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), writer, zapLevel),
	}

	if lm.tracing {
		cores = append(cores, NewCore(zapcore.ErrorLevel))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// rotateLogSessions removes the oldest sessions so that at most maxLogsToKeep
// remain, leaving room for the session about to be created.
func (lm *Manager) rotateLogSessions() error {
	if lm.maxLogsToKeep <= 0 {
		return nil
	}

	sessions, err := filepath.Glob(filepath.Join(lm.logDir, "*"))
	if err != nil {
		return err
	}

	if len(sessions) < lm.maxLogsToKeep {
		return nil
	}

	sort.Slice(sessions, func(i, j int) bool {
		iInfo, iErr := os.Stat(sessions[i])
		jInfo, jErr := os.Stat(sessions[j])

		if iErr != nil || jErr != nil {
			return sessions[i] < sessions[j]
		}

		return iInfo.ModTime().Before(jInfo.ModTime())
	})

	toDelete := len(sessions) - lm.maxLogsToKeep + 1
	for i := range toDelete {
		if err := os.RemoveAll(sessions[i]); err != nil {
			return err
		}
	}

	return nil
}
