// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

import (
	"bytes"
	"testing"
)

func TestFilterActiveSensing(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		drop     bool
		expected []byte
	}{
		{"drops between note bytes", []byte{0x90, 0xFE, 0x40, 0x7F}, true, []byte{0x90, 0x40, 0x7F}},
		{"keeps when disabled", []byte{0x90, 0xFE, 0x40, 0x7F}, false, []byte{0x90, 0xFE, 0x40, 0x7F}},
		{"only active sensing", []byte{0xFE, 0xFE, 0xFE}, true, []byte{}},
		{"leading and trailing", []byte{0xFE, 0xF8, 0xFE}, true, []byte{0xF8}},
		{"no active sensing", []byte{0xF0, 0x7E, 0xF7}, true, []byte{0xF0, 0x7E, 0xF7}},
		{"empty", []byte{}, true, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]byte(nil), tt.input...)
			got := FilterActiveSensing(input, tt.drop)
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("expected % X, got % X", tt.expected, got)
			}
		})
	}
}

func TestFilterActiveSensing_FramerNeverSeesDroppedByte(t *testing.T) {
	filtered := Render(FilterActiveSensing([]byte{0x90, 0xFE, 0x40, 0x7F}, true))
	direct := Render([]byte{0x90, 0x40, 0x7F})
	if filtered != direct {
		t.Errorf("filtered render %q != direct render %q", filtered, direct)
	}

	// Unfiltered, 0xFE is a real-time byte on its own line with no state change
	f := NewFramer()
	f.Classify(0x90)
	d := f.Classify(ActiveSensing)
	if d.Boundary != StartLine || f.State() != StateTwoParamFirst {
		t.Errorf("active sensing: got %s in state %s", d.Boundary, f.State())
	}
	if got := Render([]byte{0x90, 0xFE, 0x40, 0x7F}); got != "\n90\nFE 40 7F" {
		t.Errorf("unexpected unfiltered render %q", got)
	}
}

func TestFilterActiveSensing_Idempotent(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		chunk := make([]byte, rng.Intn(300))
		for j := range chunk {
			b := byte(rng.Intn(256))
			if b == ActiveSensing {
				b = 0x00
			}
			chunk[j] = b
		}
		original := append([]byte(nil), chunk...)

		got := FilterActiveSensing(chunk, true)
		if !bytes.Equal(got, original) {
			t.Fatalf("round %d: chunk without active sensing changed", i)
		}

		// Filtering an already filtered chunk changes nothing either
		again := FilterActiveSensing(got, true)
		if !bytes.Equal(again, original) {
			t.Fatalf("round %d: second pass changed chunk", i)
		}
	}
}
