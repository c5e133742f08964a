// Clusterlens CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/clusterlens/internal/dagger"
)

// Clusterlens is the main module for the clusterlens CI/CD pipeline
type Clusterlens struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Clusterlens CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".clusterlens", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Clusterlens {
	return &Clusterlens{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted.
//
// mattn/go-sqlite3 and the sqlite-vec bindings both need CGO, so tests and
// builds share this container.
func (t *Clusterlens) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", t.Source)
}

// Test runs the clusterlens unit tests via "go test"
func (t *Clusterlens) Test(ctx context.Context) (string, error) {
	return t.goContainer().
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}

// Vet runs "go vet" over every package.
//
// +check
func (t *Clusterlens) Vet(ctx context.Context) (string, error) {
	return t.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}
