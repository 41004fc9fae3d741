// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/midiscope/pkg/midistream"
	"github.com/Thermoquad/midiscope/pkg/rawport"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live message view with statistics",
	Long: `Monitor a MIDI input in a full screen view.

Incoming bytes are grouped into messages and listed with a readable
description, under a running statistics box.

Keys:
  q, ctrl+c   quit
  r           reset statistics
  c           clear the message log
  p           pause the message log (statistics keep counting)
  up/down     scroll`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

var tuiMaxEntries int

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().IntVar(&tuiMaxEntries, "history", 500, "Number of messages kept in the log")
}

// Log entry
type logEntry struct {
	timestamp time.Time
	category  midistream.Category
	text      string
	raw       string
}

// TUI model
type model struct {
	portName      string
	activeSensing bool
	stats         *midistream.Statistics
	log           []logEntry
	maxLogEntries int
	paused        bool
	viewport      viewport.Model
	width         int
	height        int
	quitting      bool
	stopped       *readerDoneMsg
}

// Messages
type tickMsg time.Time
type chunkMsg struct {
	messages []midistream.Message
	bytes    int
}
type droppedMsg int
type readerDoneMsg struct {
	summary rawport.Summary
	err     error
}

// Rows used by everything above the message log
const tuiHeaderHeight = 14

// formatElapsed formats a session duration as a human-friendly string
func formatElapsed(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total / 60) % 60
	seconds := total % 60

	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(portName string, activeSensing bool, maxEntries int) model {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	return model{
		portName:      portName,
		activeSensing: activeSensing,
		stats:         midistream.NewStatistics(),
		log:           make([]logEntry, 0),
		maxLogEntries: maxEntries,
		viewport:      viewport.New(76, 10),
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			return m, nil
		case "c":
			m.log = m.log[:0]
			m.refreshLog()
			return m, nil
		case "p":
			m.paused = !m.paused
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-tuiHeaderHeight, 5)
		m.refreshLog()

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case chunkMsg:
		m.stats.AddBytes(msg.bytes, 0)
		for _, message := range msg.messages {
			m.stats.Update(message)
			if !m.paused {
				m.addLogEntry(message)
			}
		}
		if !m.paused && len(msg.messages) > 0 {
			m.refreshLog()
		}
		return m, nil

	case droppedMsg:
		m.stats.AddBytes(0, int(msg))
		return m, nil

	case readerDoneMsg:
		m.stopped = &msg
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) addLogEntry(message midistream.Message) {
	entry := logEntry{
		timestamp: time.Now(),
		category:  message.Category(),
		text:      message.Describe(),
		raw:       message.String(),
	}
	m.log = append(m.log, entry)

	// Keep only last N entries
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

// refreshLog re-renders the message log, following the tail when the view
// was already at the bottom
func (m *model) refreshLog() {
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderLog())
	if follow {
		m.viewport.GotoBottom()
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	realTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m model) renderLog() string {
	if len(m.log) == 0 {
		return headerStyle.Render("  (no messages yet)")
	}

	var s strings.Builder
	for _, entry := range m.log {
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		raw := fmt.Sprintf("%-12s", entry.raw)
		switch entry.category {
		case midistream.CategoryRealTime:
			s.WriteString(fmt.Sprintf("%s %s %s\n", timestamp, realTimeStyle.Render(raw), realTimeStyle.Render(entry.text)))
		case midistream.CategoryStray:
			s.WriteString(fmt.Sprintf("%s %s %s\n", timestamp, errorStyle.Render(raw), errorStyle.Render("✗ "+entry.text)))
		default:
			s.WriteString(fmt.Sprintf("%s %s %s\n", timestamp, statsValueStyle.Render(raw), entry.text))
		}
	}
	return strings.TrimSuffix(s.String(), "\n")
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("MIDISCOPE - LIVE MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Port: %s | Active sensing: %s | q quit, r reset, c clear, p pause",
		m.portName, func() string {
			if m.activeSensing {
				return "shown"
			}
			return "hidden"
		}())))
	s.WriteString("\n\n")

	// Port status
	switch {
	case m.stopped == nil && m.paused:
		s.WriteString(warningStyle.Render("⏸ Log paused"))
	case m.stopped == nil:
		s.WriteString(statsValueStyle.Render("● Listening"))
	case m.stopped.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %v", m.stopped.err)))
	default:
		s.WriteString(warningStyle.Render(fmt.Sprintf("■ Port stopped (%s)", m.stopped.summary.Stop)))
	}
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	var runningPercent float64
	if m.stats.ChannelMessages > 0 {
		runningPercent = float64(m.stats.RunningStatus) * 100.0 / float64(m.stats.ChannelMessages)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Bytes:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalBytes)),
		statsLabelStyle.Render("Messages:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalMessages)),
		statsLabelStyle.Render("Filtered:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.DroppedBytes)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Channel:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.ChannelMessages)),
		statsLabelStyle.Render("Running:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.RunningStatus, runningPercent)),
		statsLabelStyle.Render("SysEx:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.SysExMessages)),
		statsLabelStyle.Render("Real-Time:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.RealTime)),
	))

	if m.stats.Incomplete > 0 || m.stats.StrayBytes > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Incomplete:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.Incomplete)),
			statsLabelStyle.Render("Stray bytes:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.StrayBytes)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Byte Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f B/s", m.stats.ByteRate)),
		statsLabelStyle.Render("Message Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f msg/s", m.stats.MessageRate)),
		statsLabelStyle.Render("Elapsed:"), statsValueStyle.Render(formatElapsed(time.Since(m.stats.StartTime))),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Message log
	s.WriteString(statsLabelStyle.Render("Recent Messages:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 2).Render(m.viewport.View()))

	return s.String()
}

// tuiSink assembles messages on the reader goroutine and hands them to the program
type tuiSink struct {
	p      *tea.Program
	framer *midistream.Framer
	asm    *midistream.Assembler
	batch  []midistream.Message
}

func newTUISink(p *tea.Program) *tuiSink {
	s := &tuiSink{
		p:      p,
		framer: midistream.NewFramer(),
	}
	s.asm = midistream.NewAssembler(func(m midistream.Message) {
		s.batch = append(s.batch, m)
	})
	return s
}

func (s *tuiSink) Consume(chunk []byte) error {
	for _, b := range chunk {
		s.asm.Feed(b, s.framer.Classify(b))
	}
	s.p.Send(s.take(len(chunk)))
	return nil
}

// flush sends a message left incomplete when the port stopped
func (s *tuiSink) flush() {
	s.asm.Flush()
	if len(s.batch) > 0 {
		s.p.Send(s.take(0))
	}
}

func (s *tuiSink) take(n int) chunkMsg {
	msg := chunkMsg{messages: s.batch, bytes: n}
	s.batch = nil
	return msg
}

// countDropped reports the active sensing bytes the filter will remove
func countDropped(p *tea.Program) rawport.Consumer {
	return rawport.ConsumerFunc(func(raw []byte) error {
		if n := bytes.Count(raw, []byte{midistream.ActiveSensing}); n > 0 {
			p.Send(droppedMsg(n))
		}
		return nil
	})
}

func runTUI(cmd *cobra.Command, args []string) error {
	h, err := OpenPort(portName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := initialModel(h.Name(), activeSensing, tuiMaxEntries)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Diagnostics stay off: stderr shares the terminal with the view
	sink := newTUISink(p)
	opts := rawport.ReaderOptions{DropActiveSensing: !activeSensing}
	if !activeSensing {
		opts.Raw = countDropped(p)
	}

	readerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		sum, err := rawport.NewReader(h, sink, opts).Run(readerCtx)
		sink.flush()
		p.Send(readerDoneMsg{summary: sum, err: err})
		done <- err
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, runErr := p.Run()
	cancel()
	readErr := <-done

	if runErr != nil {
		return fmt.Errorf("TUI error: %v", runErr)
	}
	return readErr
}
