// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   ldFlags
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	if buildFlags != nil {
		origFlags = *buildFlags
	}

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	if buildFlags != nil {
		*buildFlags = origFlags
	}

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsg  string
	}{
		{"Missing BuildName", "", "2026-08-29", "abcdef123", "v0.1.0", "BuildName is required"},
		{"Missing BuildTime", "airgap", "", "abcdef123", "v0.1.0", "BuildTime is required"},
		{"Missing BuildCommit", "airgap", "2026-08-29", "", "v0.1.0", "BuildCommit is required"},
		{"Missing BuildVersion", "airgap", "2026-08-29", "abcdef123", "", "BuildVersion is required"},
		{"All present", "airgap", "2026-08-29", "abcdef123", "v0.1.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()
			if tt.wantErrMsg == "" {
				if err != nil {
					t.Fatalf("Initialize() error = %v, want nil", err)
				}
				flags := GetBuildFlags()
				if flags.Name != tt.buildName || flags.Version != tt.buildVer {
					t.Errorf("GetBuildFlags() = %+v, want name %q version %q", flags, tt.buildName, tt.buildVer)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErrMsg {
				t.Errorf("Initialize() error = %v, want %q", err, tt.wantErrMsg)
			}
		})
	}
}
