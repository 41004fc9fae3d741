// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

import "testing"

func TestDecoder_AcrossChunks(t *testing.T) {
	d := NewDecoder()

	// Note-On split over three reads, then a running status repeat
	for _, chunk := range [][]byte{{0x90}, {0x40, 0x7F, 0x41}, {0x7F, 0xC0}} {
		if err := d.Consume(chunk); err != nil {
			t.Fatalf("Consume failed: %v", err)
		}
	}

	msgs := d.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].String() != "90 40 7F" || msgs[0].Implied {
		t.Errorf("unexpected first message %q (implied %v)", msgs[0].String(), msgs[0].Implied)
	}
	if msgs[1].String() != "90 41 7F" || !msgs[1].Implied {
		t.Errorf("unexpected second message %q (implied %v)", msgs[1].String(), msgs[1].Implied)
	}

	if len(d.Messages()) != 0 {
		t.Error("Messages should be drained after a call")
	}

	// Program Change waits for its data byte
	d.Flush()
	msgs = d.Messages()
	if len(msgs) != 1 || msgs[0].Complete {
		t.Fatalf("expected one incomplete message after Flush, got %v", msgs)
	}

	s := d.Statistics()
	if s.TotalBytes != 6 {
		t.Errorf("expected 6 bytes, got %d", s.TotalBytes)
	}
	if s.TotalMessages != 3 || s.RunningStatus != 1 || s.Incomplete != 1 {
		t.Errorf("unexpected counters: messages %d, running %d, incomplete %d",
			s.TotalMessages, s.RunningStatus, s.Incomplete)
	}
}

func TestDecoder_Dropped(t *testing.T) {
	d := NewDecoder()
	d.Dropped(4)
	if d.Statistics().DroppedBytes != 4 || d.Statistics().TotalBytes != 0 {
		t.Errorf("unexpected byte counters: %+v", d.Statistics())
	}
}
