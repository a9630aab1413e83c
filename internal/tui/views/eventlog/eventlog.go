// Package eventlog provides the scrollable log of claims, purchases and sync
// events shown under the reward track.
package eventlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/cardastika/battlepass/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

const maxEntries = 200

// Entry kinds.
const (
	KindClaim    = "clm"
	KindVIP      = "vip"
	KindExchange = "xchg"
	KindSync     = "sync"
	KindError    = "err"
)

// Entry is a single event log line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds event log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
}

// New creates an empty log.
func New() Model {
	return Model{}
}

// Add appends a log entry and caps the buffer.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// Last returns the newest entry, if any.
func (m Model) Last() (Entry, bool) {
	if len(m.Entries) == 0 {
		return Entry{}, false
	}
	return m.Entries[len(m.Entries)-1], true
}

// ScrollUp moves the viewport up.
func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(0, len(m.Entries)-1))
}

// ScrollDown moves the viewport down.
func (m *Model) ScrollDown(n int) {
	m.Offset = max(0, m.Offset-n)
}

// View renders the newest lines that fit in height.
func (m Model) View(width, height int) string {
	innerW := max(20, width-4)
	visible := max(1, height)

	if len(m.Entries) == 0 {
		return theme.StyleDimmed.Render("  Nothing happened yet.")
	}

	end := max(0, len(m.Entries)-m.Offset)
	start := max(0, end-visible)

	var lines []string
	for i := start; i < end; i++ {
		e := m.Entries[i]
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
		kind := lipgloss.NewStyle().Foreground(kindToColor(e.Kind)).Width(4).Render(e.Kind)
		msg := e.Message
		if len(msg) > innerW-16 && innerW > 20 {
			msg = msg[:innerW-19] + "..."
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s", ts, kind, msg))
	}
	if m.Offset > 0 {
		lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf("  ↓ %d more", m.Offset)))
	}
	return strings.Join(lines, "\n")
}

func kindToColor(kind string) lipgloss.Color {
	switch kind {
	case KindClaim:
		return theme.ColorReady
	case KindVIP:
		return theme.ColorVIP
	case KindExchange:
		return theme.ColorDiamond
	case KindSync:
		return theme.ColorAccent
	case KindError:
		return theme.ColorDanger
	default:
		return theme.ColorDimmed
	}
}
