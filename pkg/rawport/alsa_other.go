// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux

package rawport

import (
	"fmt"
	"runtime"
)

// OpenRawMIDI is only available on Linux
func OpenRawMIDI(addr Address, devRoot string) (Handle, error) {
	return nil, fmt.Errorf("ALSA rawmidi is not supported on %s", runtime.GOOS)
}

// OpenDevice is only available on Linux
func OpenDevice(path string) (Handle, error) {
	return nil, fmt.Errorf("raw MIDI devices are not supported on %s", runtime.GOOS)
}
