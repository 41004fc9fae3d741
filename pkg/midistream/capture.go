// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// CaptureVersion is the capture file format version written by CaptureWriter
const CaptureVersion = 1

// CaptureHeader is the first item of a capture file
type CaptureHeader struct {
	Version uint   `cbor:"0,keyasint"`
	Port    string `cbor:"1,keyasint"`
}

// CaptureChunk is one raw read from the port, before filtering
type CaptureChunk struct {
	Seq  uint64 `cbor:"0,keyasint"`
	Data []byte `cbor:"1,keyasint"`
}

// CaptureWriter records raw chunks as a CBOR sequence
type CaptureWriter struct {
	enc *cbor.Encoder
	seq uint64
}

// NewCaptureWriter writes the capture header for port and returns a writer
// ready to record chunks
func NewCaptureWriter(w io.Writer, port string) (*CaptureWriter, error) {
	enc := cbor.NewEncoder(w)
	if err := enc.Encode(CaptureHeader{Version: CaptureVersion, Port: port}); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return &CaptureWriter{enc: enc}, nil
}

// Consume records one chunk
func (c *CaptureWriter) Consume(chunk []byte) error {
	if err := c.enc.Encode(CaptureChunk{Seq: c.seq, Data: chunk}); err != nil {
		return fmt.Errorf("failed to write capture chunk %d: %w", c.seq, err)
	}
	c.seq++
	return nil
}

// Chunks returns the number of chunks recorded so far
func (c *CaptureWriter) Chunks() uint64 {
	return c.seq
}

// CaptureReader reads back a capture file written by CaptureWriter
type CaptureReader struct {
	dec    *cbor.Decoder
	header CaptureHeader
	seq    uint64
}

// NewCaptureReader reads and validates the capture header
func NewCaptureReader(r io.Reader) (*CaptureReader, error) {
	dec := cbor.NewDecoder(r)
	var header CaptureHeader
	if err := dec.Decode(&header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty capture file")
		}
		return nil, fmt.Errorf("failed to decode capture header: %w", err)
	}
	if header.Version != CaptureVersion {
		return nil, fmt.Errorf("unsupported capture version: %d (want %d)", header.Version, CaptureVersion)
	}
	return &CaptureReader{dec: dec, header: header}, nil
}

// Header returns the capture header
func (c *CaptureReader) Header() CaptureHeader {
	return c.header
}

// Next returns the next raw chunk, or io.EOF after the last one
func (c *CaptureReader) Next() ([]byte, error) {
	var chunk CaptureChunk
	if err := c.dec.Decode(&chunk); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode capture chunk %d: %w", c.seq, err)
	}
	if chunk.Seq != c.seq {
		return nil, fmt.Errorf("capture chunk out of sequence: got %d, want %d", chunk.Seq, c.seq)
	}
	c.seq++
	return chunk.Data, nil
}
