// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// serialHandle adapts a serial MIDI interface to the poll/read cycle.
// Poll performs the actual read with a timeout and holds the bytes until Read.
type serialHandle struct {
	name    string
	port    serial.Port
	buf     []byte
	pending []byte
	readErr error

	mu     sync.Mutex
	closed bool
}

// OpenSerial opens a serial port at the given baud rate, 8N1
func OpenSerial(path string, baudRate int) (Handle, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", path, err)
	}

	return newSerialHandle(path, port), nil
}

func newSerialHandle(name string, port serial.Port) *serialHandle {
	return &serialHandle{
		name: name,
		port: port,
		buf:  make([]byte, 256),
	}
}

func (h *serialHandle) Name() string {
	return h.name
}

func (h *serialHandle) Poll(timeout time.Duration) (bool, error) {
	if h.isClosed() {
		return false, ErrClosed
	}
	if len(h.pending) > 0 || h.readErr != nil {
		return true, nil
	}
	if err := h.port.SetReadTimeout(timeout); err != nil {
		return false, err
	}
	n, err := h.port.Read(h.buf)
	if err != nil {
		h.readErr = err
		return true, nil
	}
	if n == 0 {
		return false, nil
	}
	h.pending = h.buf[:n]
	return true, nil
}

func (h *serialHandle) Revents() (Events, error) {
	if h.isClosed() {
		return 0, ErrClosed
	}
	var portErr *serial.PortError
	if errors.As(h.readErr, &portErr) && portErr.Code() == serial.PortClosed {
		return EventHup, nil
	}
	return EventIn, nil
}

func (h *serialHandle) Read(p []byte) (int, error) {
	if h.isClosed() {
		return 0, ErrClosed
	}
	if len(h.pending) > 0 {
		n := copy(p, h.pending)
		h.pending = h.pending[n:]
		return n, nil
	}
	if h.readErr != nil {
		return 0, h.readErr
	}
	return 0, ErrWouldBlock
}

func (h *serialHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.port.Close()
}

func (h *serialHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// ListSerialPorts returns the serial ports present on the system
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
