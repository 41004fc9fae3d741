// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// step scripts one poll/revents/read cycle of a fakeHandle
type step struct {
	pollErr  error
	idle     bool // poll times out
	events   Events
	noEvents bool
	data     []byte
	readErr  error
	reventsE error
}

// fakeHandle replays scripted steps, then idles until the reader stops
type fakeHandle struct {
	mu      sync.Mutex
	steps   []step
	current step
	polls   int
	closes  int
}

func (h *fakeHandle) Name() string { return "fake" }

func (h *fakeHandle) Poll(timeout time.Duration) (bool, error) {
	h.mu.Lock()
	h.polls++
	if len(h.steps) == 0 {
		h.mu.Unlock()
		time.Sleep(timeout)
		return false, nil
	}
	h.current = h.steps[0]
	h.steps = h.steps[1:]
	h.mu.Unlock()

	if h.current.pollErr != nil {
		return false, h.current.pollErr
	}
	if h.current.idle {
		return false, nil
	}
	return true, nil
}

func (h *fakeHandle) Revents() (Events, error) {
	if h.current.reventsE != nil {
		return 0, h.current.reventsE
	}
	if h.current.noEvents {
		return 0, nil
	}
	if h.current.events != 0 {
		return h.current.events, nil
	}
	return EventIn, nil
}

func (h *fakeHandle) Read(p []byte) (int, error) {
	if h.current.readErr != nil {
		return 0, h.current.readErr
	}
	return copy(p, h.current.data), nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return nil
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

func (h *fakeHandle) pollCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.polls
}

// collector records every chunk passed to it
type collector struct {
	buf bytes.Buffer
	err error
}

func (c *collector) Consume(chunk []byte) error {
	if c.err != nil {
		return c.err
	}
	c.buf.Write(chunk)
	return nil
}

var hangup = step{events: EventHup}

// ============================================================
// Delivery Tests
// ============================================================

func TestReader_FiltersActiveSensing(t *testing.T) {
	h := &fakeHandle{steps: []step{
		{data: []byte{0x90, 0xFE, 0x40, 0x7F}},
		{data: []byte{0xFE, 0xFE}},
		hangup,
	}}
	sink := &collector{}

	var raw []byte
	tap := ConsumerFunc(func(chunk []byte) error {
		raw = append(raw, chunk...)
		return nil
	})

	sum, err := NewReader(h, sink, ReaderOptions{DropActiveSensing: true, Raw: tap}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte{0x90, 0x40, 0x7F}, sink.buf.Bytes())
	require.Equal(t, []byte{0x90, 0xFE, 0x40, 0x7F, 0xFE, 0xFE}, raw)
	require.Equal(t, 3, sum.BytesRead)
	require.Equal(t, 3, sum.ActiveSensingDropped)
	require.Equal(t, 2, sum.Chunks)
	require.Equal(t, StopHangup, sum.Stop)
	require.Equal(t, 1, h.closeCount())
}

func TestReader_KeepsActiveSensingWhenDisabled(t *testing.T) {
	h := &fakeHandle{steps: []step{
		{data: []byte{0x90, 0xFE, 0x40, 0x7F}},
		hangup,
	}}
	sink := &collector{}

	sum, err := NewReader(h, sink, ReaderOptions{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte{0x90, 0xFE, 0x40, 0x7F}, sink.buf.Bytes())
	require.Equal(t, 4, sum.BytesRead)
	require.Zero(t, sum.ActiveSensingDropped)
}

func TestReader_RecoverableConditions(t *testing.T) {
	h := &fakeHandle{steps: []step{
		{idle: true},
		{readErr: ErrWouldBlock},
		{pollErr: ErrInterrupted},
		{noEvents: true},
		{data: []byte{0xC0, 0x05}},
		hangup,
	}}
	sink := &collector{}

	sum, err := NewReader(h, sink, ReaderOptions{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte{0xC0, 0x05}, sink.buf.Bytes())
	require.Equal(t, 2, sum.BytesRead)
	require.Equal(t, 6, h.pollCount())
}

func TestReader_BufferSizeBoundsReads(t *testing.T) {
	h := &fakeHandle{steps: []step{
		{data: bytes.Repeat([]byte{0xF8}, 300)},
		hangup,
	}}
	sink := &collector{}

	sum, err := NewReader(h, sink, ReaderOptions{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultBufferSize, sum.BytesRead)
}

// ============================================================
// Termination Tests
// ============================================================

func TestReader_GracefulStops(t *testing.T) {
	tests := []struct {
		name     string
		last     step
		expected StopReason
	}{
		{"hang-up", step{events: EventHup}, StopHangup},
		{"error condition", step{events: EventErr}, StopHangup},
		{"error while readable", step{events: EventIn | EventErr}, StopHangup},
		{"end of stream", step{data: nil}, StopEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandle{steps: []step{{data: []byte{0xF8}}, tt.last}}
			sum, err := NewReader(h, &collector{}, ReaderOptions{}).Run(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.expected, sum.Stop)
			require.Equal(t, 1, sum.BytesRead)
			require.Equal(t, 1, h.closeCount())
		})
	}
}

func TestReader_FatalErrors(t *testing.T) {
	cause := errors.New("device gone")

	tests := []struct {
		name   string
		step   step
		prefix string
	}{
		{"poll", step{pollErr: cause}, `poll failed on port "fake"`},
		{"revents", step{reventsE: cause}, `cannot get poll events on port "fake"`},
		{"read", step{readErr: cause}, `cannot read from port "fake"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandle{steps: []step{tt.step}}
			_, err := NewReader(h, &collector{}, ReaderOptions{}).Run(context.Background())
			require.Error(t, err)
			require.ErrorIs(t, err, cause)
			require.Contains(t, err.Error(), tt.prefix)
			require.Equal(t, 1, h.closeCount())
		})
	}
}

func TestReader_SinkErrorIsFatal(t *testing.T) {
	cause := errors.New("broken pipe")
	h := &fakeHandle{steps: []step{{data: []byte{0x90}}}}

	_, err := NewReader(h, &collector{err: cause}, ReaderOptions{}).Run(context.Background())
	require.ErrorIs(t, err, cause)
	require.Equal(t, 1, h.closeCount())
}

func TestReader_CancelledBeforeStart(t *testing.T) {
	h := &fakeHandle{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := NewReader(h, &collector{}, ReaderOptions{}).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, StopCancelled, sum.Stop)
	require.Zero(t, h.pollCount())
	require.Equal(t, 1, h.closeCount())
}

func TestReader_CancelledWhileRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := &fakeHandle{steps: []step{
		{data: []byte{0x90, 0x40}},
		{data: []byte{0x7F}},
	}}
	sink := ConsumerFunc(func([]byte) error {
		cancel()
		return nil
	})

	sum, err := NewReader(h, sink, ReaderOptions{}).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, StopCancelled, sum.Stop)
	require.Equal(t, 2, sum.BytesRead)
	require.Equal(t, 1, h.closeCount())
}

func TestReader_CancellationLatency(t *testing.T) {
	h := &fakeHandle{}
	ctx, cancel := context.WithCancel(context.Background())

	type result struct {
		at  time.Time
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, err := NewReader(h, &collector{}, ReaderOptions{}).Run(ctx)
		done <- result{time.Now(), err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancelled := time.Now()
	cancel()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		// One poll timeout plus scheduling slack
		require.Less(t, res.at.Sub(cancelled), DefaultPollTimeout+100*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop after cancellation")
	}
	require.Equal(t, 1, h.closeCount())
}

func TestReader_RunsOnce(t *testing.T) {
	h := &fakeHandle{steps: []step{hangup}}
	r := NewReader(h, &collector{}, ReaderOptions{})

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, h.closeCount())
}

func TestStopReason_String(t *testing.T) {
	require.Equal(t, "cancelled", StopCancelled.String())
	require.Equal(t, "hang-up", StopHangup.String())
	require.Equal(t, "end of stream", StopEOF.String())
	require.Equal(t, "none", StopNone.String())
}

func TestEvents_String(t *testing.T) {
	require.Equal(t, "NONE", Events(0).String())
	require.Equal(t, "IN", EventIn.String())
	require.Equal(t, "ERR|HUP", (EventErr | EventHup).String())
}
