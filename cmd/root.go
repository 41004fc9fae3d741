// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/midiscope/pkg/rawport"
)

var (
	// Port flags
	portName      string
	activeSensing bool
	baudRate      int

	// WebSocket bridge flags
	wsUsername    string
	wsNoSSLVerify bool

	// Session flags
	configPath  string
	logLevel    string
	capturePath string

	// Listing actions
	listDevices  bool
	listRawmidis bool

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "midiscope",
	Short: "MIDI byte stream monitor",
	Long: `Midiscope - A CLI tool for watching the raw bytes arriving on a MIDI input.

Every byte is printed as two hex digits, one message per line. Running status
repeats are indented under the message they continue, and real-time bytes
always get a line of their own. Active sensing (FE) is hidden unless -a is given.

Port names:
  ALSA:      default, hw:1,0, hw:1,0,2, hw:CARD=USB,DEV=0
  Device:    /dev/snd/midiC1D0, /dev/midi1
  Serial:    /dev/ttyUSB0, serial:/dev/ttyAMA0 [--baud 31250]
  WebSocket: ws://host/path, wss://host/path [--username user]

For WebSocket authentication, the password is read from the MIDISCOPE_PASSWORD
environment variable, or prompted interactively if not set.

Settings may also come from $XDG_CONFIG_HOME/midiscope/config.toml. Flags given
on the command line take precedence.`,
	Version:           "1.0.0",
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runMonitor,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", rawport.DefaultPortName, "MIDI input port")
	rootCmd.PersistentFlags().BoolVarP(&activeSensing, "active-sensing", "a", false, "Show active sensing bytes")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", rawport.DefaultBaudRate, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/midiscope/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Diagnostics level: trace, debug, info, warn, error, disabled")

	rootCmd.Flags().StringVar(&capturePath, "capture", "", "Record raw input to a capture file")
	rootCmd.Flags().BoolVarP(&listDevices, "list-devices", "l", false, "List all hardware ports")
	rootCmd.Flags().BoolVarP(&listRawmidis, "list-rawmidis", "L", false, "List all RawMIDI definitions")
	rootCmd.MarkFlagsMutuallyExclusive("list-devices", "list-rawmidis")

	rootCmd.Flags().BoolP("version", "V", false, "Print version")
}

// setup applies the config file and initializes diagnostics logging
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	cfg.apply(cmd.Flags())

	level, err := resolveLogLevel(cmd.Flags().Changed("log-level"), logLevel, cfg)
	if err != nil {
		return err
	}
	logger = initLogger(cmd.ErrOrStderr(), level)

	logger.Debug().
		Str("port", portName).
		Bool("active_sensing", activeSensing).
		Str("config", cfg.path).
		Msg("settings loaded")
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
