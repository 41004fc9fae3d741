// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/Thermoquad/midiscope/pkg/rawport"
)

// runListDevices prints ALSA rawmidi devices followed by serial ports
func runListDevices(out, errOut io.Writer, procRoot string) error {
	devices, err := rawport.ListDevices(procRoot)
	switch {
	case errors.Is(err, rawport.ErrNoSoundCard):
		fmt.Fprintln(errOut, err)
	case err != nil:
		return err
	default:
		if err := rawport.FormatDevices(out, devices); err != nil {
			return err
		}
	}

	ports, err := rawport.ListSerialPorts()
	if err != nil {
		logger.Warn().Err(err).Msg("cannot list serial ports")
		return nil
	}
	if len(ports) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nSerial ports:")
	for _, p := range ports {
		fmt.Fprintf(out, "  %s\n", p)
	}
	return nil
}

// runListRawmidis prints the rawmidi definitions of the ALSA config files
func runListRawmidis(out io.Writer, paths []string) error {
	defs, err := rawport.ListRawMIDIs(paths)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		logger.Info().Strs("paths", paths).Msg("no rawmidi definitions found")
	}
	return rawport.FormatRawMIDIs(out, defs)
}
