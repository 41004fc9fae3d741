// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

// Decoder runs chunks through a framer and an assembler, collecting whole
// messages and statistics. It is not safe for concurrent use.
type Decoder struct {
	framer   *Framer
	asm      *Assembler
	stats    *Statistics
	messages []Message
}

// NewDecoder creates a decoder with fresh framing state
func NewDecoder() *Decoder {
	d := &Decoder{
		framer: NewFramer(),
		stats:  NewStatistics(),
	}
	d.asm = NewAssembler(func(m Message) {
		d.stats.Update(m)
		d.messages = append(d.messages, m)
	})
	return d
}

// Consume feeds every byte of chunk through the framer and assembler
func (d *Decoder) Consume(chunk []byte) error {
	d.stats.AddBytes(len(chunk), 0)
	for _, b := range chunk {
		d.asm.Feed(b, d.framer.Classify(b))
	}
	return nil
}

// Dropped records active sensing bytes removed before Consume
func (d *Decoder) Dropped(n int) {
	d.stats.AddBytes(0, n)
}

// Flush emits a partially received message at end of stream
func (d *Decoder) Flush() {
	d.asm.Flush()
}

// Messages returns the messages completed since the last call
func (d *Decoder) Messages() []Message {
	out := d.messages
	d.messages = nil
	return out
}

// Statistics returns the running counters
func (d *Decoder) Statistics() *Statistics {
	return d.stats
}
