// SPDX-License-Identifier: MIT
//
// Package build carries build metadata injected at compile time via
// -ldflags: application name, build timestamp, git commit, and semantic
// version. Defaults of "unknown" apply during development builds.
package build

import "fmt"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Populated by -ldflags during compilation, for example:
//
//	go build -ldflags "-X airgap/pkg/build.buildName=airgap -X airgap/pkg/build.buildVersion=0.1.0"
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "unknown",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "unknown",
	}
)

// Initialize validates and copies build information from the ldflags
// variables into the buildFlags struct. Call early in program startup.
// Returns an error if any required build flag is missing.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information. Initialize must be
// called first for the values to be meaningful.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
