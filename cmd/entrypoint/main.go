// Package main provides the Docker container entrypoint
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

func main() {
	runType := getEnvWithDefault("RUN_TYPE", "rest")

	switch runType {
	case "rest":
		execBinary("/app/bin/rest")
	case "worker":
		execBinary("/app/bin/worker", getEnvWithDefault("WORKER_TYPE", "leaderboard"))
	case "db":
		execBinary("/app/bin/db", os.Args[1:]...)
	default:
		fmt.Fprintf(os.Stderr, "Invalid RUN_TYPE %q. Must be one of 'rest', 'worker' or 'db'\n", runType)
		fmt.Fprintf(os.Stderr, "Usage: RUN_TYPE=worker [WORKER_TYPE=leaderboard]\n")
		os.Exit(1)
	}
}

// getEnvWithDefault returns the environment variable value or the default if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// execBinary runs the binary and exits with its failure.
func execBinary(path string, args ...string) {
	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute %s: %v\n", filepath.Base(path), err)
		os.Exit(1)
	}
}
