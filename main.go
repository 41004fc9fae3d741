// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Midiscope - MIDI Byte Stream Monitor
//
// A CLI tool that prints the raw bytes arriving on a MIDI input as hex,
// one message per line.

package main

import (
	"os"

	"github.com/Thermoquad/midiscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
