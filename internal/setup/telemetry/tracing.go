package telemetry

import (
	"context"

	"github.com/openshelf/reputation/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
)

// ConfigureTracing sets up the global OpenTelemetry providers to export to
// Uptrace. It reports false and does nothing when no DSN is configured.
func ConfigureTracing(cfg *config.Telemetry, version string) bool {
	if cfg.UptraceDSN == "" {
		return false
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "openshelf-reputation"
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(serviceName),
		uptrace.WithServiceVersion(version),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
	)

	return true
}

// ShutdownTracing flushes buffered spans.
func ShutdownTracing(ctx context.Context) error {
	return uptrace.Shutdown(ctx)
}
