// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

import (
	"bufio"
	"fmt"
	"io"
)

// Printer renders a byte stream as hex text, one MIDI message per line
type Printer struct {
	framer *Framer
	w      *bufio.Writer
	line   []byte
}

// NewPrinter creates a printer that renders through framer into w
func NewPrinter(w io.Writer, framer *Framer) *Printer {
	if framer == nil {
		framer = NewFramer()
	}
	return &Printer{
		framer: framer,
		w:      bufio.NewWriter(w),
		line:   make([]byte, 0, 64),
	}
}

// Framer returns the framer driving this printer
func (p *Printer) Framer() *Framer {
	return p.framer
}

// Consume renders every byte of chunk in order and flushes the output
func (p *Printer) Consume(chunk []byte) error {
	for _, b := range chunk {
		p.line = p.framer.Classify(b).AppendTo(p.line[:0])
		if _, err := p.w.Write(p.line); err != nil {
			return err
		}
	}
	return p.w.Flush()
}

// WriteSummary appends the final byte count line
func (p *Printer) WriteSummary(total int) error {
	if _, err := fmt.Fprintf(p.w, "\n%d bytes read\n", total); err != nil {
		return err
	}
	return p.w.Flush()
}

// Render is a convenience that runs bytes through a fresh framer and returns
// the rendered text
func Render(data []byte) string {
	framer := NewFramer()
	out := make([]byte, 0, len(data)*3)
	for _, b := range data {
		out = framer.Classify(b).AppendTo(out)
	}
	return string(out)
}
