package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/arenatapes/internal/dagger"
)

// Build returns a directory holding the arenatapes binary for the
// container's native linux architecture.
func (a *Arenatapes) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	const out = "/out/"

	build := a.goContainer().
		WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", out, "./cli/arenatapes"})

	return dag.Directory().WithDirectory("linux", build.Directory(out))
}

// BuildRelease compiles the binary with embedded version info
func (a *Arenatapes) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now().UTC().Format(time.RFC3339)

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/arenatapes/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/arenatapes/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/arenatapes/pkg/utils.Buildtime=%s'", buildtime),
	}

	return a.Build(ctx, strings.Join(ldflags, " "))
}
