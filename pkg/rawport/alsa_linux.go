// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux

package rawport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// SNDRV_CTL_IOCTL_RAWMIDI_PREFER_SUBDEVICE, _IOW('U', 0x42, int)
const ioctlRawMIDIPreferSubdevice = 0x40045542

// deviceHandle reads a raw MIDI character device through poll(2)
type deviceHandle struct {
	name string
	fd   int
	pfds []unix.PollFd

	mu     sync.Mutex
	closed bool
}

// OpenRawMIDI opens the input side of an ALSA rawmidi device.
// A non-negative subdevice is requested from the card's control device
// before the rawmidi node is opened.
func OpenRawMIDI(addr Address, devRoot string) (Handle, error) {
	if addr.Subdevice >= 0 {
		ctl, err := unix.Open(addr.ControlPath(devRoot), unix.O_RDWR|unix.O_CLOEXEC, 0)
		if err != nil {
			return nil, fmt.Errorf("cannot open control for card %d: %w", addr.Card, err)
		}
		defer unix.Close(ctl)

		// The preference is held by the open control file, so keep it open
		// until the rawmidi node itself is open
		if err := unix.IoctlSetPointerInt(ctl, ioctlRawMIDIPreferSubdevice, addr.Subdevice); err != nil {
			return nil, fmt.Errorf("cannot select subdevice %d: %w", addr.Subdevice, err)
		}
	}

	h, err := openDevice(addr.DevicePath(devRoot))
	if err != nil {
		return nil, err
	}
	h.name = addr.String()
	return h, nil
}

// OpenDevice opens any character device that behaves like a rawmidi node,
// such as /dev/midi1 or a pseudo-terminal
func OpenDevice(path string) (Handle, error) {
	return openDevice(path)
}

func openDevice(path string) (*deviceHandle, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	// Zero-length read starts the input stream on rawmidi devices
	_, _ = unix.Read(fd, nil)

	// One descriptor per open node, sized once and reused for every poll
	pfds := make([]unix.PollFd, 1)
	pfds[0] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}

	return &deviceHandle{
		name: path,
		fd:   fd,
		pfds: pfds,
	}, nil
}

func (h *deviceHandle) Name() string {
	return h.name
}

func (h *deviceHandle) Poll(timeout time.Duration) (bool, error) {
	if h.isClosed() {
		return false, ErrClosed
	}
	for i := range h.pfds {
		h.pfds[i].Revents = 0
	}
	n, err := unix.Poll(h.pfds, int(timeout/time.Millisecond))
	if errors.Is(err, unix.EINTR) {
		return false, ErrInterrupted
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (h *deviceHandle) Revents() (Events, error) {
	if h.isClosed() {
		return 0, ErrClosed
	}
	var ev Events
	for _, pfd := range h.pfds {
		if pfd.Revents&unix.POLLIN != 0 {
			ev |= EventIn
		}
		if pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			ev |= EventErr
		}
		if pfd.Revents&unix.POLLHUP != 0 {
			ev |= EventHup
		}
	}
	return ev, nil
}

func (h *deviceHandle) Read(p []byte) (int, error) {
	if h.isClosed() {
		return 0, ErrClosed
	}
	n, err := unix.Read(h.fd, p)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return 0, ErrWouldBlock
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (h *deviceHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return unix.Close(h.fd)
}

func (h *deviceHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
