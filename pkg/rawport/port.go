// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrWouldBlock is returned by Read when no bytes are available
	ErrWouldBlock = errors.New("read would block")
	// ErrInterrupted is returned by Poll when the wait was interrupted by a signal
	ErrInterrupted = errors.New("poll interrupted")
	// ErrClosed is returned by operations on a closed handle
	ErrClosed = errors.New("port closed")
)

// Events is the readiness reported for a handle after Poll
type Events uint8

const (
	EventIn Events = 1 << iota
	EventErr
	EventHup
)

func (e Events) String() string {
	if e == 0 {
		return "NONE"
	}
	var parts []string
	if e&EventIn != 0 {
		parts = append(parts, "IN")
	}
	if e&EventErr != 0 {
		parts = append(parts, "ERR")
	}
	if e&EventHup != 0 {
		parts = append(parts, "HUP")
	}
	return strings.Join(parts, "|")
}

// Handle is an open MIDI input in nonblocking mode
type Handle interface {
	// Name returns the port name the handle was opened with
	Name() string
	// Poll waits up to timeout for the handle to become ready
	Poll(timeout time.Duration) (bool, error)
	// Revents reports readiness after a successful Poll
	Revents() (Events, error)
	// Read reads available bytes without blocking, or returns ErrWouldBlock
	Read(p []byte) (int, error)
	// Close releases the handle. Further calls are no-ops.
	Close() error
}

// Default values
const (
	DefaultPortName = "default"
	DefaultBaudRate = 31250 // MIDI DIN current loop
	DefaultProcRoot = "/proc/asound"
	DefaultDevRoot  = "/dev/snd"
)

// Options configures how a port name is opened
type Options struct {
	// BaudRate for serial ports
	BaudRate int

	// ALSA filesystem roots, overridable for tests
	ProcRoot string
	DevRoot  string

	// WebSocket bridge settings
	Username      string
	Password      string
	SkipSSLVerify bool
}

func (o Options) withDefaults() Options {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.ProcRoot == "" {
		o.ProcRoot = DefaultProcRoot
	}
	if o.DevRoot == "" {
		o.DevRoot = DefaultDevRoot
	}
	return o
}

// Open opens the named port for input.
//
// Supported names:
//
//	ws://host/path, wss://host/path   WebSocket MIDI bridge (binary frames)
//	serial:/dev/ttyX, /dev/ttyX       serial MIDI interface
//	/dev/snd/midiC1D0, /dev/midi1     raw MIDI character device
//	default, hw:1,0[,2], hw:CARD=id   ALSA rawmidi address
func Open(name string, opts Options) (Handle, error) {
	opts = opts.withDefaults()

	h, err := open(name, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot open port %q: %w", name, err)
	}
	return h, nil
}

func open(name string, opts Options) (Handle, error) {
	switch {
	case strings.HasPrefix(name, "ws://"), strings.HasPrefix(name, "wss://"):
		return OpenWebSocket(name, opts.Username, opts.Password, opts.SkipSSLVerify)

	case strings.HasPrefix(name, "serial:"):
		return OpenSerial(strings.TrimPrefix(name, "serial:"), opts.BaudRate)

	case strings.HasPrefix(name, "/dev/tty"):
		return OpenSerial(name, opts.BaudRate)

	case strings.HasPrefix(name, "/"):
		return OpenDevice(name)
	}

	addr, err := ParseName(name, opts.ProcRoot)
	if err != nil {
		return nil, err
	}
	return OpenRawMIDI(addr, opts.DevRoot)
}
