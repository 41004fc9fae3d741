// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package midistream frames a raw MIDI byte stream into messages without
// seeing explicit boundaries.
//
// The Framer classifies each byte as the start of a new message, a
// continuation of the current one, or a running status repeat, and the
// Printer renders that decision as hex text:
//
//	90 40 7F
//	   41 7F
//	F0 41 10 F7
//	F8
//
// Real-time bytes (0xF8 and above) always start their own line and never
// disturb the framer state, so they may appear anywhere, including inside a
// system exclusive message. Active sensing bytes (0xFE) are usually removed
// with FilterActiveSensing before they reach the framer.
package midistream
