// Package main builds, tests and ships the OpenShelf reputation service.
package main

import (
	"context"
	"dagger/reputation/internal/dagger"
	"fmt"
	"strings"
)

const (
	goImage      = "golang:1.24.2-alpine"
	runtimeImage = "gcr.io/distroless/static-debian12:latest"
	apiPort      = 8080
)

// binaries are the commands shipped in the image. The entrypoint picks one by RUN_TYPE.
var binaries = []string{"rest", "worker", "db", "entrypoint"}

type Reputation struct{}

// goBase returns a Go toolchain container with the source mounted and module
// caches shared between runs.
func goBase(src *dagger.Directory) *dagger.Container {
	return dag.Container().
		From(goImage).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("reputation-go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("reputation-go-build")).
		WithDirectory("/src", src).
		WithWorkdir("/src").
		WithEnvVariable("CGO_ENABLED", "0")
}

// Test runs the unit tests. Integration tests need a Docker daemon and are
// run outside of Dagger with -tags integration.
func (m *Reputation) Test(
	ctx context.Context,
	// +required
	src *dagger.Directory,
) (string, error) {
	// -race needs cgo
	return goBase(src).
		WithExec([]string{"apk", "add", "--no-cache", "build-base"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}

// BuildContainer builds the runtime image for one platform. The config
// directory, when given, is baked in at /app/config.
func (m *Reputation) BuildContainer(
	// +required
	src *dagger.Directory,
	// +optional
	configDir *dagger.Directory,
	// +optional
	// +default="linux/amd64"
	platform dagger.Platform,
	// +optional
	// +default="dev"
	version string,
) (*dagger.Container, error) {
	osName, arch, ok := strings.Cut(string(platform), "/")
	if !ok {
		return nil, fmt.Errorf("invalid platform %q", platform)
	}

	build := goBase(src).
		WithEnvVariable("GOOS", osName).
		WithEnvVariable("GOARCH", arch).
		WithExec([]string{"mkdir", "-p", "/src/bin", "/src/logs"})

	ldflags := "-s -w -X github.com/openshelf/reputation/internal/setup.Version=" + version
	for _, binary := range binaries {
		build = build.WithExec([]string{"go", "build", "-ldflags=" + ldflags, "-o", "/src/bin/" + binary, "./cmd/" + binary})
	}

	image := dag.Container(dagger.ContainerOpts{Platform: platform}).
		From(runtimeImage).
		WithDirectory("/app/bin", build.Directory("/src/bin")).
		WithDirectory("/app/logs", build.Directory("/src/logs")).
		WithWorkdir("/app").
		WithEntrypoint([]string{"/app/bin/entrypoint"}).
		WithEnvVariable("RUN_TYPE", "rest").
		WithEnvVariable("WORKER_TYPE", "leaderboard").
		WithExposedPort(apiPort)

	if configDir != nil {
		image = image.WithDirectory("/app/config", configDir)
	}

	return image, nil
}

// Publish builds the image for every platform and pushes a multi-arch manifest.
func (m *Reputation) Publish(
	ctx context.Context,
	// +required
	src *dagger.Directory,
	// Image reference, e.g. "ghcr.io/openshelf/reputation:1.4.0"
	// +required
	imageName string,
	// Comma-separated platforms
	// +optional
	// +default="linux/amd64,linux/arm64"
	platforms string,
	// +optional
	// +default="dev"
	version string,
) (string, error) {
	var variants []*dagger.Container

	for _, platform := range strings.Split(platforms, ",") {
		image, err := m.BuildContainer(src, nil, dagger.Platform(strings.TrimSpace(platform)), version)
		if err != nil {
			return "", err
		}

		variants = append(variants, image)
	}

	ref, err := dag.Container().Publish(ctx, imageName, dagger.ContainerPublishOpts{
		PlatformVariants: variants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish image: %w", err)
	}

	return ref, nil
}

// Up starts the REST API as a service with the given config directory.
func (m *Reputation) Up(
	// +required
	src *dagger.Directory,
	// +required
	configDir *dagger.Directory,
) (*dagger.Service, error) {
	image, err := m.BuildContainer(src, configDir, "linux/amd64", "dev")
	if err != nil {
		return nil, err
	}

	return image.AsService(), nil
}
