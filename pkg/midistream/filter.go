// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

// FilterActiveSensing removes every active sensing byte from chunk when drop
// is set, keeping the order of the remaining bytes. The result shares chunk's
// backing array. With drop unset the chunk is returned unchanged.
func FilterActiveSensing(chunk []byte, drop bool) []byte {
	if !drop {
		return chunk
	}
	n := 0
	for _, b := range chunk {
		if b != ActiveSensing {
			chunk[n] = b
			n++
		}
	}
	return chunk[:n]
}
