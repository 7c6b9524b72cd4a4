// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"airgap/internal/audio"
	"airgap/internal/channel"
	"airgap/internal/config"
	"airgap/internal/fsk"
	applog "airgap/internal/log"
	"airgap/internal/monitor"
	"airgap/pkg/build"
)

// cliFlags collects the persistent flags shared by every subcommand.
type cliFlags struct {
	configPath  string
	verbose     bool
	inputDev    int
	outputDev   int
	monitorAddr string
}

// Execute parses the command line and runs the selected subcommand.
func Execute() error {
	buildInfo := build.GetBuildFlags()
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:           "airgap",
		Short:         "Acoustic command link between air-gapped machines",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"Path to YAML configuration file (default config.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().IntVarP(&flags.inputDev, "input-device", "i", config.MinDeviceID,
		"Input device ID. Use 'devices' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&flags.outputDev, "output-device", "o", config.MinDeviceID,
		"Output device ID. Use 'devices' command to see available devices.")
	rootCmd.PersistentFlags().StringVar(&flags.monitorAddr, "monitor", "",
		"Serve link events over WebSocket on this address, e.g. :8080")

	rootCmd.AddCommand(
		newDevicesCmd(flags),
		newSendCmd(flags),
		newListenCmd(flags),
		newPingCmd(flags),
		newTriggerCmd(flags),
		newEncodeCmd(flags),
		newDecodeCmd(flags),
	)

	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

// loadConfig builds the effective configuration for one invocation: the
// YAML file first, then any persistent flags the user actually set.
func loadConfig(cmd *cobra.Command, flags *cliFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.verbose {
		cfg.LogLevel = "debug"
	}
	if cmd.Flags().Changed("input-device") {
		cfg.Audio.InputDevice = flags.inputDev
	}
	if cmd.Flags().Changed("output-device") {
		cfg.Audio.OutputDevice = flags.outputDev
	}
	if flags.monitorAddr != "" {
		cfg.Monitor.Enabled = true
		cfg.Monitor.Addr = flags.monitorAddr
	}

	level := applog.LevelInfo
	if parsed, ok := applog.ParseLevel(cfg.LogLevel); ok {
		level = parsed
	}
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)

	return cfg, nil
}

// withChannel brings up PortAudio, the modem and the optional monitor,
// hands the assembled channel to fn, and tears everything down after.
func withChannel(cfg *config.Config, fn func(*channel.Channel) error) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	dev, err := audio.NewIO(cfg.Audio.InputDevice, cfg.Audio.OutputDevice)
	if err != nil {
		return err
	}

	opts := channel.Options{ChunkSeconds: cfg.Audio.ListenChunkSeconds}
	if cfg.Monitor.Enabled {
		b := monitor.NewBroadcaster(cfg.Monitor.Addr)
		defer b.Close()
		opts.Events = b
	}
	if cfg.Audio.DumpDir != "" {
		opts.OnChunk = chunkDumper(cfg.Audio.DumpDir, cfg.FSK.SampleRate)
	}

	return fn(channel.New(fsk.NewModem(cfg.FSK), dev, opts))
}

// chunkDumper returns an OnChunk hook that writes every captured chunk
// to dir as a numbered WAV file.
func chunkDumper(dir string, sampleRate int) func([]float64) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		applog.Warnf("cannot create dump directory %s: %v", dir, err)
		return nil
	}
	n := 0
	stamp := time.Now().UTC().Format("20060102-150405")
	return func(chunk []float64) {
		n++
		path := filepath.Join(dir, fmt.Sprintf("capture-%s-%03d.wav", stamp, n))
		if err := audio.WriteWAV(path, chunk, sampleRate); err != nil {
			applog.Warnf("failed to dump chunk to %s: %v", path, err)
		}
	}
}

func newDevicesCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, flags); err != nil {
				return err
			}
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()
			return audio.ListDevices()
		},
	}
}

func newSendCmd(flags *cliFlags) *cobra.Command {
	var retries int

	cmd := &cobra.Command{
		Use:   "send COMMAND",
		Short: "Transmit a command over the speaker",
		Long: "Transmit a command over the speaker.\n\n" +
			"COMMAND is one of: CAPTURE, DONE, ERROR, PING, PONG.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := fsk.ParseCommand(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return withChannel(cfg, func(ch *channel.Channel) error {
				if !ch.SendCommand(command, retries) {
					return fmt.Errorf("failed to transmit %v after %d attempts", command, retries)
				}
				fmt.Printf("Sent %v\n", command)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&retries, "retries", channel.DefaultSendRetries,
		"Playback attempts before giving up")
	return cmd
}

func newListenCmd(flags *cliFlags) *cobra.Command {
	var (
		timeout time.Duration
		respond bool
		dumpDir string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen on the microphone for incoming commands",
		Long: "Listen on the microphone for incoming commands.\n\n" +
			"Prints the first command heard and exits. With --respond the\n" +
			"listener answers PING with PONG and keeps listening until the\n" +
			"timeout expires, which turns this rig into the far end of a\n" +
			"'ping' link test.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if dumpDir != "" {
				cfg.Audio.DumpDir = dumpDir
			}
			return withChannel(cfg, func(ch *channel.Channel) error {
				deadline := time.Now().Add(timeout)
				heard := 0
				for {
					remaining := time.Until(deadline)
					if remaining <= 0 {
						break
					}
					command, ok := ch.WaitForCommand(remaining, 0)
					if !ok {
						break
					}
					heard++
					fmt.Printf("Received %v\n", command)
					if respond && command == fsk.CommandPing {
						ch.SendCommand(fsk.CommandPong, 0)
						continue
					}
					if !respond {
						return nil
					}
				}
				if heard == 0 {
					return fmt.Errorf("no command received within %s", timeout)
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second,
		"How long to keep listening")
	cmd.Flags().BoolVar(&respond, "respond", false,
		"Answer PING with PONG and keep listening")
	cmd.Flags().StringVar(&dumpDir, "dump-dir", "",
		"Write every captured chunk to this directory as WAV")
	return cmd
}

func newPingCmd(flags *cliFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Test the acoustic link (send PING, wait for PONG)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return withChannel(cfg, func(ch *channel.Channel) error {
				if !ch.TestConnection(timeout) {
					return fmt.Errorf("no PONG received within %s", timeout)
				}
				fmt.Println("Link OK: PONG received")
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second,
		"How long to wait for the PONG reply")
	return cmd
}

func newTriggerCmd(flags *cliFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a capture on the far rig and wait for completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return withChannel(cfg, func(ch *channel.Channel) error {
				if !ch.TriggerAndWait(timeout) {
					return fmt.Errorf("no DONE received within %s", timeout)
				}
				fmt.Println("Capture complete: DONE received")
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second,
		"How long to wait for the DONE reply")
	return cmd
}

func newEncodeCmd(flags *cliFlags) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "encode COMMAND",
		Short: "Encode a command to a WAV file without playing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := fsk.ParseCommand(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if outFile == "" {
				outFile = strings.ToLower(command.String()) + ".wav"
			}
			modem := fsk.NewModem(cfg.FSK)
			if err := audio.WriteWAV(outFile, modem.EncodeCommand(command), cfg.FSK.SampleRate); err != nil {
				return err
			}
			fmt.Printf("Wrote %v frame (%.1fs) to %s\n", command, modem.FrameDuration(), outFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "",
		"Output WAV path (default <command>.wav)")
	return cmd
}

func newDecodeCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decode FILE",
		Short: "Decode a command from a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			samples, rate, err := audio.ReadWAV(args[0])
			if err != nil {
				return err
			}

			fskCfg := cfg.FSK
			if rate != fskCfg.SampleRate {
				applog.Debugf("using file sample rate %d Hz instead of configured %d Hz",
					rate, fskCfg.SampleRate)
				fskCfg.SampleRate = rate
			}

			command, ok := fsk.NewModem(fskCfg).DecodeCommand(samples)
			if !ok {
				return fmt.Errorf("no decodable command in %s", args[0])
			}
			fmt.Printf("Decoded %v\n", command)
			return nil
		},
	}
}
