// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thermoquad/midiscope/pkg/midistream"
	"github.com/Thermoquad/midiscope/pkg/rawport"
)

func runMonitor(cmd *cobra.Command, args []string) error {
	switch {
	case listDevices:
		return runListDevices(cmd.OutOrStdout(), cmd.ErrOrStderr(), rawport.DefaultProcRoot)
	case listRawmidis:
		home, _ := os.UserHomeDir()
		return runListRawmidis(cmd.OutOrStdout(), rawport.ConfigPaths(home))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := OpenPort(portName)
	if err != nil {
		return err
	}

	capture, err := createCapture(capturePath)
	if err != nil {
		_ = h.Close()
		return err
	}
	if capture == nil {
		return monitor(ctx, h, cmd.OutOrStdout(), nil)
	}
	defer capture.Close()

	return monitor(ctx, h, cmd.OutOrStdout(), capture)
}

// createCapture creates the --capture file, or returns nil when path is empty
func createCapture(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create capture file: %w", err)
	}
	return f, nil
}

// monitor prints the port's bytes to out until ctx is cancelled or the port
// goes away. The handle is always closed.
func monitor(ctx context.Context, h rawport.Handle, out io.Writer, capture io.Writer) error {
	printer := midistream.NewPrinter(out, nil)

	opts := rawport.ReaderOptions{
		DropActiveSensing: !activeSensing,
		Logger:            &logger,
	}
	if capture != nil {
		cw, err := midistream.NewCaptureWriter(capture, h.Name())
		if err != nil {
			h.Close()
			return err
		}
		opts.Raw = cw
	}

	sum, err := rawport.NewReader(h, printer, opts).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Stringer("stop", sum.Stop).
		Int("bytes", sum.BytesRead).
		Int("active_sensing_dropped", sum.ActiveSensingDropped).
		Msg("monitor finished")

	if isTerminal(out) {
		return printer.WriteSummary(sum.BytesRead)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
