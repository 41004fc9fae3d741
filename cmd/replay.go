// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/midiscope/pkg/midistream"
	"github.com/Thermoquad/midiscope/pkg/rawport"
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Print a recorded capture file",
	Long: `Replay a capture file written with --capture.

The recorded bytes go through the same active sensing filter and hex
rendering as live input. With --describe, each assembled message is printed
on its own line with a readable description, followed by statistics.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var replayDescribe bool

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVarP(&replayDescribe, "describe", "d", false, "Describe each message instead of printing hex")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("cannot open capture: %w", err)
	}
	defer f.Close()

	return replay(f, cmd.OutOrStdout(), !activeSensing, replayDescribe)
}

// replay renders a capture from r to out
func replay(r io.Reader, out io.Writer, dropActiveSensing, describe bool) error {
	capture, err := midistream.NewCaptureReader(r)
	if err != nil {
		return err
	}
	logger.Info().Str("port", capture.Header().Port).Msg("replaying capture")

	var sink rawport.Consumer
	var decoder *midistream.Decoder
	var printer *midistream.Printer
	if describe {
		decoder = midistream.NewDecoder()
		sink = decoder
	} else {
		printer = midistream.NewPrinter(out, nil)
		sink = printer
	}

	total := 0
	for {
		raw, err := capture.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		chunk := midistream.FilterActiveSensing(raw, dropActiveSensing)
		total += len(chunk)
		if decoder != nil {
			decoder.Dropped(len(raw) - len(chunk))
		}
		if err := sink.Consume(chunk); err != nil {
			return err
		}
		if decoder != nil {
			if err := writeMessages(out, decoder.Messages()); err != nil {
				return err
			}
		}
	}

	if decoder == nil {
		if isTerminal(out) {
			return printer.WriteSummary(total)
		}
		// Terminate the last rendered line
		_, err := fmt.Fprintln(out)
		return err
	}

	decoder.Flush()
	if err := writeMessages(out, decoder.Messages()); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nCapture of %s\n", capture.Header().Port)
	_, err = fmt.Fprint(out, decoder.Statistics().String())
	return err
}

func writeMessages(w io.Writer, msgs []midistream.Message) error {
	for _, m := range msgs {
		if _, err := fmt.Fprintf(w, "%-12s %s\n", m.Category(), m.Describe()); err != nil {
			return err
		}
	}
	return nil
}
