// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Thermoquad/midiscope/pkg/midistream"
)

// Reader loop defaults
const (
	DefaultPollTimeout = 200 * time.Millisecond
	DefaultBufferSize  = 256
)

// Consumer receives each chunk read from the port.
// The chunk is only valid until Consume returns.
type Consumer interface {
	Consume(chunk []byte) error
}

// ConsumerFunc adapts a function to Consumer
type ConsumerFunc func(chunk []byte) error

func (f ConsumerFunc) Consume(chunk []byte) error {
	return f(chunk)
}

// StopReason tells why a reader loop ended without error
type StopReason int

const (
	StopNone StopReason = iota
	StopCancelled
	StopHangup
	StopEOF
)

func (r StopReason) String() string {
	switch r {
	case StopCancelled:
		return "cancelled"
	case StopHangup:
		return "hang-up"
	case StopEOF:
		return "end of stream"
	default:
		return "none"
	}
}

// Summary describes a finished reader loop
type Summary struct {
	BytesRead            int // after filtering
	ActiveSensingDropped int
	Chunks               int
	Stop                 StopReason
}

// ReaderOptions tunes the reader loop
type ReaderOptions struct {
	// DropActiveSensing removes 0xFE bytes before the sink sees them
	DropActiveSensing bool

	PollTimeout time.Duration
	BufferSize  int

	// Raw, when set, receives every chunk before filtering
	Raw Consumer

	Logger *zerolog.Logger
}

// Reader drives one open handle until cancellation, hang-up or a fatal error.
// A Reader owns its handle and closes it when Run returns. It runs once.
type Reader struct {
	handle Handle
	sink   Consumer
	opts   ReaderOptions
	log    zerolog.Logger
	buf    []byte

	started   atomic.Bool
	closeOnce sync.Once
}

// NewReader creates a reader loop over handle that feeds sink
func NewReader(handle Handle, sink Consumer, opts ReaderOptions) *Reader {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("port", handle.Name()).Logger()
	}

	return &Reader{
		handle: handle,
		sink:   sink,
		opts:   opts,
		log:    log,
		buf:    make([]byte, opts.BufferSize),
	}
}

// Run polls and reads the handle until ctx is cancelled or the port goes away.
//
// Cancellation, hang-up and end of stream return a nil error. The handle is
// closed exactly once on every return path.
func (r *Reader) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	if !r.started.CompareAndSwap(false, true) {
		return sum, errors.New("reader already used")
	}
	defer r.release()

	name := r.handle.Name()
	r.log.Debug().
		Dur("poll_timeout", r.opts.PollTimeout).
		Int("buffer", len(r.buf)).
		Bool("drop_active_sensing", r.opts.DropActiveSensing).
		Msg("reader started")

	for {
		if ctx.Err() != nil {
			sum.Stop = StopCancelled
			r.log.Debug().Msg("cancellation observed")
			return sum, nil
		}

		ready, err := r.handle.Poll(r.opts.PollTimeout)
		if ctx.Err() != nil {
			sum.Stop = StopCancelled
			r.log.Debug().Msg("cancellation observed after poll")
			return sum, nil
		}
		if errors.Is(err, ErrInterrupted) {
			// The runtime interrupts syscalls for its own signals too
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("poll failed on port %q: %w", name, err)
		}
		if !ready {
			continue
		}

		ev, err := r.handle.Revents()
		if err != nil {
			return sum, fmt.Errorf("cannot get poll events on port %q: %w", name, err)
		}
		if ev&(EventErr|EventHup) != 0 {
			sum.Stop = StopHangup
			r.log.Info().Stringer("events", ev).Msg("port hung up")
			return sum, nil
		}
		if ev&EventIn == 0 {
			continue
		}

		n, err := r.handle.Read(r.buf)
		if errors.Is(err, ErrWouldBlock) {
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("cannot read from port %q: %w", name, err)
		}
		if n == 0 {
			sum.Stop = StopEOF
			r.log.Info().Msg("end of stream")
			return sum, nil
		}

		if err := r.deliver(r.buf[:n], &sum); err != nil {
			return sum, err
		}
	}
}

func (r *Reader) deliver(raw []byte, sum *Summary) error {
	sum.Chunks++

	// The filter compacts in place, so the raw tap goes first
	if r.opts.Raw != nil {
		if err := r.opts.Raw.Consume(raw); err != nil {
			return fmt.Errorf("cannot record chunk: %w", err)
		}
	}

	n := len(raw)
	chunk := midistream.FilterActiveSensing(raw, r.opts.DropActiveSensing)
	sum.ActiveSensingDropped += n - len(chunk)
	sum.BytesRead += len(chunk)

	r.log.Trace().Int("read", n).Int("kept", len(chunk)).Msg("chunk")

	if len(chunk) == 0 {
		return nil
	}
	if err := r.sink.Consume(chunk); err != nil {
		return fmt.Errorf("cannot write output: %w", err)
	}
	return nil
}

func (r *Reader) release() {
	r.closeOnce.Do(func() {
		if err := r.handle.Close(); err != nil {
			r.log.Warn().Err(err).Msg("close failed")
			return
		}
		r.log.Debug().Msg("port closed")
	})
}
