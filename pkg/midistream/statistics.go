// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

import (
	"fmt"
	"time"
)

// Statistics tracks byte and message counts for a monitoring session
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalBytes      uint64
	DroppedBytes    uint64 // active sensing removed by the filter
	TotalMessages   uint64
	ChannelMessages uint64
	SystemCommon    uint64
	SysExMessages   uint64
	RealTime        uint64
	ActiveSensing   uint64
	RunningStatus   uint64
	Incomplete      uint64
	StrayBytes      uint64

	// Rates (calculated)
	ByteRate    float64 // bytes/sec
	MessageRate float64 // messages/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// AddBytes records n bytes that passed the filter and dropped bytes that did not
func (s *Statistics) AddBytes(n, dropped int) {
	s.TotalBytes += uint64(n)
	s.DroppedBytes += uint64(dropped)
	s.LastUpdateTime = time.Now()
}

// Update records one assembled message
func (s *Statistics) Update(m Message) {
	if m.Category() == CategoryStray {
		s.StrayBytes += uint64(len(m.Data))
		return
	}

	s.TotalMessages++
	switch m.Category() {
	case CategoryChannel:
		s.ChannelMessages++
	case CategorySystemCommon:
		s.SystemCommon++
	case CategorySysEx:
		s.SysExMessages++
	case CategoryRealTime:
		s.RealTime++
		if m.Data[0] == ActiveSensing {
			s.ActiveSensing++
		}
	}
	if m.Implied {
		s.RunningStatus++
	}
	if !m.Complete {
		s.Incomplete++
	}
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates byte and message rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ByteRate = float64(s.TotalBytes) / elapsed
		s.MessageRate = float64(s.TotalMessages) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var runningPercent float64
	if s.ChannelMessages > 0 {
		runningPercent = float64(s.RunningStatus) * 100.0 / float64(s.ChannelMessages)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Bytes:           %8d\n", s.TotalBytes)
	if s.DroppedBytes > 0 {
		result += fmt.Sprintf("  Filtered:         %5d\n", s.DroppedBytes)
	}
	result += fmt.Sprintf("Messages:        %8d\n", s.TotalMessages)
	result += fmt.Sprintf("  Channel:          %5d\n", s.ChannelMessages)
	if s.RunningStatus > 0 {
		result += fmt.Sprintf("  Running Status:   %5d (%.1f%%)\n", s.RunningStatus, runningPercent)
	}
	if s.SystemCommon > 0 {
		result += fmt.Sprintf("  System Common:    %5d\n", s.SystemCommon)
	}
	if s.SysExMessages > 0 {
		result += fmt.Sprintf("  System Exclusive: %5d\n", s.SysExMessages)
	}
	if s.RealTime > 0 {
		result += fmt.Sprintf("  Real-Time:        %5d\n", s.RealTime)
		if s.ActiveSensing > 0 {
			result += fmt.Sprintf("    Active Sensing: %5d\n", s.ActiveSensing)
		}
	}
	if s.Incomplete > 0 {
		result += fmt.Sprintf("Incomplete:      %8d\n", s.Incomplete)
	}
	if s.StrayBytes > 0 {
		result += fmt.Sprintf("Stray Bytes:     %8d\n", s.StrayBytes)
	}

	result += fmt.Sprintf("Byte Rate:       %8.1f bytes/sec\n", s.ByteRate)
	result += fmt.Sprintf("Message Rate:    %8.1f msgs/sec\n", s.MessageRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
