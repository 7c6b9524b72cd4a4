// SPDX-License-Identifier: MIT
package main

import (
	"os"

	"airgap/cmd"
	applog "airgap/internal/log"
	"airgap/pkg/build"
)

// main wires the pieces together and hands control to the CLI. Each
// subcommand owns its own PortAudio lifecycle, so nothing audio-related
// happens here.
func main() {
	// Build metadata comes from -ldflags; development builds run without it.
	if err := build.Initialize(); err != nil {
		applog.Debugf("build metadata unavailable: %v", err)
	}

	if err := cmd.Execute(); err != nil {
		applog.Errorf("%v", err)
		os.Exit(1)
	}
}
