// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/midiscope/pkg/midistream"
	"github.com/Thermoquad/midiscope/pkg/rawport"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{90 * time.Second, "1 minute and 30 seconds"},
		{time.Hour, "1 hour"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2 hours, 3 minutes, and 4 seconds"},
	}

	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.expected {
			t.Errorf("formatElapsed(%s): expected %q, got %q", tt.d, tt.expected, got)
		}
	}
}

func assembled(data []byte) []midistream.Message {
	d := midistream.NewDecoder()
	_ = d.Consume(data)
	d.Flush()
	return d.Messages()
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func TestModel_ChunkUpdatesStatsAndLog(t *testing.T) {
	m := initialModel("hw:1,0", false, 3)

	data := []byte{0x90, 0x40, 0x7F, 0x41, 0x7F, 0xF8}
	m = update(t, m, chunkMsg{messages: assembled(data), bytes: len(data)})
	m = update(t, m, droppedMsg(2))

	require.Equal(t, uint64(6), m.stats.TotalBytes)
	require.Equal(t, uint64(2), m.stats.DroppedBytes)
	require.Equal(t, uint64(3), m.stats.TotalMessages)
	require.Equal(t, uint64(1), m.stats.RunningStatus)
	require.Len(t, m.log, 3)
	require.Equal(t, "90 41 7F", m.log[1].raw)
	require.Equal(t, midistream.CategoryRealTime, m.log[2].category)

	// The log keeps only the newest entries
	m = update(t, m, chunkMsg{messages: assembled([]byte{0xFA}), bytes: 1})
	require.Len(t, m.log, 3)
	require.Equal(t, "FA", m.log[2].raw)
}

func TestModel_Keys(t *testing.T) {
	m := initialModel("hw:1,0", true, 10)
	m = update(t, m, chunkMsg{messages: assembled([]byte{0xC0, 0x05}), bytes: 2})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	require.True(t, m.paused)
	m = update(t, m, chunkMsg{messages: assembled([]byte{0xC0, 0x06}), bytes: 2})
	require.Len(t, m.log, 1)
	require.Equal(t, uint64(2), m.stats.TotalMessages)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.Empty(t, m.log)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.Zero(t, m.stats.TotalMessages)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.True(t, next.(model).quitting)
	require.NotNil(t, cmd)
}

func TestModel_View(t *testing.T) {
	m := initialModel("hw:1,0", false, 10)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = update(t, m, chunkMsg{messages: assembled([]byte{0x01}), bytes: 1})

	view := m.View()
	require.Contains(t, view, "MIDISCOPE - LIVE MONITOR")
	require.Contains(t, view, "Port: hw:1,0")
	require.Contains(t, view, "Active sensing: hidden")
	require.Contains(t, view, "Listening")
	require.Contains(t, view, "stray data: 01")

	m = update(t, m, readerDoneMsg{summary: rawport.Summary{Stop: rawport.StopHangup}})
	require.Contains(t, m.View(), "Port stopped (hang-up)")
}
