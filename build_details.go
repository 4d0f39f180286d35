// Package salve implements an incremental, pausable validator for
// Relax-NG-shaped tree grammars.
package salve

import (
	"fmt"
	"runtime"
)

var (
	// version is set via ldflags during build. For development builds
	// this shows "dev".
	version = "dev"
	// commit is set via ldflags during build to the short git commit hash.
	commit = "unknown"
	// buildTime is set via ldflags during build to an RFC3339 timestamp.
	buildTime = "unknown"
)

// Version returns the compiled version, or "dev" for a build from source.
func Version() string {
	return version
}

// Commit returns the git commit this build was produced from, or
// "unknown" for a build from source.
func Commit() string {
	return commit
}

// BuildTime returns the RFC3339 build timestamp, or "unknown" for a build
// from source.
func BuildTime() string {
	return buildTime
}

// GoVersion returns the Go toolchain version used to build this binary.
func GoVersion() string {
	return runtime.Version()
}

// UserAgent returns an identifying string of the form "salve/<version>",
// for diagnostic output.
func UserAgent() string {
	return fmt.Sprintf("salve/%s", version)
}

// BuildInfo returns a multi-line summary of every build metadata field,
// for the CLI's version subcommand.
func BuildInfo() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild Time: %s\nGo Version: %s",
		Version(), Commit(), BuildTime(), GoVersion())
}
