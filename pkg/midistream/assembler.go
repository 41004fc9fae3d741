// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

import (
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Category groups messages by their status byte class
type Category uint8

const (
	CategoryChannel Category = iota
	CategorySystemCommon
	CategorySysEx
	CategoryRealTime
	CategoryStray
)

func (c Category) String() string {
	switch c {
	case CategoryChannel:
		return "CHANNEL"
	case CategorySystemCommon:
		return "SYSTEM_COMMON"
	case CategorySysEx:
		return "SYSEX"
	case CategoryRealTime:
		return "REAL_TIME"
	case CategoryStray:
		return "STRAY"
	default:
		return "UNKNOWN"
	}
}

// Message is one framed MIDI message
type Message struct {
	Data []byte
	// Implied is set when the status byte was restored from running status
	Implied bool
	// Complete is false for messages cut short by a new status byte or by Flush
	Complete bool
}

// Category returns the message's class
func (m Message) Category() Category {
	if len(m.Data) == 0 {
		return CategoryStray
	}
	switch s := m.Data[0]; {
	case s >= RealTimeMin:
		return CategoryRealTime
	case s == SysExStart:
		return CategorySysEx
	case s >= SystemMin:
		return CategorySystemCommon
	case s >= StatusMin:
		return CategoryChannel
	default:
		return CategoryStray
	}
}

// String returns the message bytes as space separated hex
func (m Message) String() string {
	var sb strings.Builder
	for i, b := range m.Data {
		if i > 0 {
			sb.WriteByte(separator)
		}
		sb.WriteString(hexTable[b])
	}
	return sb.String()
}

// Describe returns a human-readable description of the message
func (m Message) Describe() string {
	switch {
	case m.Category() == CategoryStray:
		return "stray data: " + m.String()
	case !m.Complete:
		return "incomplete: " + m.String()
	}
	desc := m.String()
	if msg := gomidi.Message(m.Data); msg.Type() != gomidi.UnknownMsg {
		desc = msg.String()
	}
	if m.Implied {
		desc += " (running status)"
	}
	return desc
}

// Assembler groups the framer's directive stream into whole messages.
//
// It mirrors the framer's view of running status: a data byte rendered as
// RunningStatusIndent starts a new message that repeats the last status byte.
type Assembler struct {
	emit     func(Message)
	pending  []byte
	implied  bool
	expected int
	running  byte
}

// NewAssembler creates an assembler that hands every finished message to emit
func NewAssembler(emit func(Message)) *Assembler {
	return &Assembler{
		emit:    emit,
		pending: make([]byte, 0, 16),
	}
}

// Feed consumes one byte together with the directive the framer produced for it
func (a *Assembler) Feed(b byte, d Directive) {
	if b >= RealTimeMin {
		a.emit(Message{Data: []byte{b}, Complete: true})
		return
	}

	switch d.Boundary {
	case StartLine:
		a.Flush()
		if b < StatusMin {
			a.emit(Message{Data: []byte{b}})
			return
		}
		switch {
		case b < SystemMin, b == MTCQuarterFrame, b == SongPosition, b == SongSelect:
			a.running = b
		default:
			a.running = 0
		}
		a.start(b, false)

	case RunningStatusIndent:
		a.Flush()
		if a.running == 0 {
			a.emit(Message{Data: []byte{b}})
			return
		}
		a.start(a.running, true)
		a.append(b)

	case Continue:
		if len(a.pending) == 0 {
			a.emit(Message{Data: []byte{b}})
			return
		}
		a.append(b)
	}
}

// Flush emits the pending message, if any
func (a *Assembler) Flush() {
	if len(a.pending) == 0 {
		return
	}
	complete := len(a.pending) == a.expected
	if a.expected == 0 {
		complete = a.pending[len(a.pending)-1] == SysExEnd
	}
	data := make([]byte, len(a.pending))
	copy(data, a.pending)
	a.pending = a.pending[:0]
	a.emit(Message{Data: data, Implied: a.implied, Complete: complete})
}

func (a *Assembler) start(status byte, implied bool) {
	a.pending = append(a.pending[:0], status)
	a.implied = implied
	a.expected = expectedLength(status)
	if a.expected == 1 {
		a.Flush()
	}
}

func (a *Assembler) append(b byte) {
	a.pending = append(a.pending, b)
	if (a.expected == 0 && b == SysExEnd) || (a.expected > 0 && len(a.pending) >= a.expected) {
		a.Flush()
	}
}

// expectedLength returns the full length of a message starting with status,
// or 0 for system exclusive which runs until SysExEnd
func expectedLength(status byte) int {
	switch {
	case status == SysExStart:
		return 0
	case status == MTCQuarterFrame, status == SongSelect:
		return 2
	case status == SongPosition:
		return 3
	case status >= SystemMin:
		return 1
	case status >= OneParamMin && status <= OneParamMax:
		return 2
	default:
		return 3
	}
}
