// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

// Byte class boundaries
const (
	StatusMin   = 0x80 // first status byte
	SystemMin   = 0xF0 // first system common / exclusive byte
	RealTimeMin = 0xF8 // first system real-time byte

	// Program Change and Channel Pressure carry a single data byte
	OneParamMin = 0xC0
	OneParamMax = 0xDF
)

// System Common / Exclusive
const (
	SysExStart      = 0xF0
	MTCQuarterFrame = 0xF1
	SongPosition    = 0xF2
	SongSelect      = 0xF3
	Undefined4      = 0xF4
	Undefined5      = 0xF5
	TuneRequest     = 0xF6
	SysExEnd        = 0xF7
)

// System Real-Time
const (
	RTTimingClock = 0xF8
	RTStart       = 0xFA
	RTContinue    = 0xFB
	RTStop        = 0xFC
	ActiveSensing = 0xFE
	RTSystemReset = 0xFF
)

// Rendering
const (
	lineBreak      = '\n'
	separator      = ' '
	runningIndent  = "  "
	hexDigitsUpper = "0123456789ABCDEF"
)
