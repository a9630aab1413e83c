// Package pass renders the battle pass screen: season header, animated
// progress bar, the two-track reward list and the diamond exchange offers.
package pass

import (
	"fmt"
	"strings"

	"github.com/cardastika/battlepass/internal/battlepass"
	"github.com/cardastika/battlepass/internal/catalog"
	"github.com/cardastika/battlepass/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth     = 30
	visibleTiers = 9
	cellWidth    = 26
)

// Model holds the battle pass view state.
type Model struct {
	State    battlepass.View
	Selected int // index into State.Tiers
	Track    catalog.Track
	Width    int

	bar Bar
}

// New returns an empty Model with the free track selected.
func New() Model {
	return Model{Track: catalog.TrackFree, bar: NewBar()}
}

// SetView replaces the rendered state and retargets the progress bar.
func (m *Model) SetView(v battlepass.View) {
	m.State = v
	m.bar.SetTarget(v.Percent)
	m.Selected = max(0, min(m.Selected, len(v.Tiers)-1))
}

// SnapBar skips the fill animation.
func (m *Model) SnapBar() {
	m.bar.Snap()
}

// Animate advances the bar one frame; false once it has settled.
func (m *Model) Animate() bool {
	return m.bar.Step()
}

// MoveUp selects the previous tier.
func (m *Model) MoveUp() {
	if len(m.State.Tiers) > 0 {
		m.Selected = (m.Selected - 1 + len(m.State.Tiers)) % len(m.State.Tiers)
	}
}

// MoveDown selects the next tier.
func (m *Model) MoveDown() {
	if len(m.State.Tiers) > 0 {
		m.Selected = (m.Selected + 1) % len(m.State.Tiers)
	}
}

// ToggleTrack switches between the free and VIP track.
func (m *Model) ToggleTrack() {
	if m.Track == catalog.TrackVIP {
		m.Track = catalog.TrackFree
	} else {
		m.Track = catalog.TrackVIP
	}
}

// SelectNext jumps to the first tier with a claimable slot, or failing that
// the nearest unreached tier.
func (m *Model) SelectNext() {
	for i, row := range m.State.Tiers {
		for _, track := range catalog.Tracks {
			if s := row.Slot(track); s != nil && s.Status == battlepass.StatusReady {
				m.Selected, m.Track = i, track
				return
			}
		}
	}
	for i, row := range m.State.Tiers {
		if row.Next {
			m.Selected = i
			return
		}
	}
}

// Selection returns the highlighted slot. ok is false when the tier has no
// reward on the selected track.
func (m Model) Selection() (tier int, track catalog.Track, ok bool) {
	if m.Selected < 0 || m.Selected >= len(m.State.Tiers) {
		return 0, m.Track, false
	}
	row := m.State.Tiers[m.Selected]
	return row.Tier, m.Track, row.Slot(m.Track) != nil
}

// View renders the full panel.
func (m Model) View() string {
	width := m.Width
	if width < 60 {
		width = 80
	}
	v := m.State

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderProgress())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderTiers())
	sb.WriteString("\n")
	sb.WriteString(renderOffers(v.Offers))

	return lipgloss.NewStyle().
		Width(width-2).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(sb.String())
}

func (m Model) renderHeader() string {
	v := m.State
	title := theme.StyleHeader.Render("BATTLE PASS")
	cycle := lipgloss.NewStyle().Foreground(theme.ColorGold).
		Render(fmt.Sprintf("Cycle %d/%d", v.Cycle, v.MaxCycle))

	var countdown string
	if v.SeasonEnded {
		countdown = theme.StyleError.Render(v.Countdown)
	} else {
		countdown = theme.StyleDimmed.Render("ends in " + v.Countdown)
	}

	var vip string
	switch {
	case v.VIP:
		vip = lipgloss.NewStyle().Foreground(theme.ColorVIP).Bold(true).Render("★ VIP")
	case v.CanBuyVIP:
		vip = lipgloss.NewStyle().Foreground(theme.ColorVIP).Render(fmt.Sprintf("[v] VIP for %d 💎", v.VIPPrice))
	default:
		vip = theme.StyleDimmed.Render(fmt.Sprintf("VIP %d 💎", v.VIPPrice))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" │ ")
	return title + "  " + cycle + sep + countdown + sep + vip
}

func (m Model) renderProgress() string {
	v := m.State
	bar := renderBar(m.bar.Fill(barWidth), barWidth)
	counts := lipgloss.NewStyle().Foreground(theme.ColorBright).
		Render(fmt.Sprintf("%d/%d", v.Progress, v.MaxProgress))
	pct := fmt.Sprintf("%d%%", v.Percent)

	var next string
	if v.NextTier > 0 {
		next = theme.StyleDimmed.Render(fmt.Sprintf("next tier %d in %d", v.NextTier, v.NeedForNext))
	} else {
		next = theme.StyleSuccess.Render("all tiers reached")
	}

	line := bar + "  " + counts + "  " + pct + "   " + next
	if v.Claimable > 0 {
		line += "   " + lipgloss.NewStyle().Foreground(theme.ColorReady).Bold(true).
			Render(fmt.Sprintf("%d to claim", v.Claimable))
	}
	return line
}

func (m Model) renderTiers() string {
	tiers := m.State.Tiers
	if len(tiers) == 0 {
		return theme.StyleDimmed.Render("  No rewards this season")
	}

	start := max(0, m.Selected-visibleTiers/2)
	end := min(len(tiers), start+visibleTiers)
	start = max(0, end-visibleTiers)

	header := theme.StyleDimmed.Render(fmt.Sprintf("       %-*s %s", cellWidth, "FREE", "VIP"))
	lines := []string{header}
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(i, tiers[i]))
	}
	if end < len(tiers) {
		lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf("  ↓ %d more", len(tiers)-end)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(i int, row battlepass.TierView) string {
	selected := i == m.Selected
	prefix := "  "
	if selected {
		prefix = "> "
	}

	label := fmt.Sprintf("%3d", row.Tier)
	switch {
	case row.Next:
		label = lipgloss.NewStyle().Foreground(theme.ColorGold).Bold(true).Render(label)
	case row.Unlocked:
		label = theme.StyleSuccess.Render(label)
	default:
		label = theme.StyleDimmed.Render(label)
	}

	free := renderCell(row.Free, selected && m.Track == catalog.TrackFree)
	vip := renderCell(row.VIP, selected && m.Track == catalog.TrackVIP)
	return prefix + label + "  " + free + " " + vip
}

func renderCell(s *battlepass.Slot, highlight bool) string {
	style := lipgloss.NewStyle().Width(cellWidth)
	if s == nil {
		return style.Foreground(theme.ColorClaimed).Render("  ·")
	}

	text := statusGlyph(s.Status) + " " + s.Preview
	if r := []rune(text); len(r) > cellWidth-1 {
		text = string(r[:cellWidth-2]) + "…"
	}
	style = style.Foreground(theme.StatusColor(s.Status.String()))
	if s.Status == battlepass.StatusReady {
		style = style.Foreground(theme.CurrencyColor(string(s.Reward.Type))).Bold(true)
	}
	if highlight {
		style = style.Reverse(true)
	}
	return style.Render(text)
}

func statusGlyph(s battlepass.SlotStatus) string {
	switch s {
	case battlepass.StatusReady:
		return "●"
	case battlepass.StatusClaimed:
		return "✓"
	case battlepass.StatusVIPLocked:
		return "◆"
	default:
		return "○"
	}
}

func renderOffers(offers []battlepass.Offer) string {
	if len(offers) == 0 {
		return ""
	}
	parts := []string{theme.StyleDimmed.Render("Exchange:")}
	for i, o := range offers {
		text := fmt.Sprintf("[%d] %d 💎", i+1, o.Cost)
		if o.Enabled {
			parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorDiamond).Render(text))
		} else {
			parts = append(parts, theme.StyleDimmed.Render(text))
		}
	}
	return strings.Join(parts, "  ")
}

// renderBar renders a filled/empty progress bar using block characters.
func renderBar(fill, total int) string {
	if total <= 0 {
		return "[]"
	}
	filled := strings.Repeat("█", fill)
	empty := strings.Repeat("░", total-fill)
	bar := lipgloss.NewStyle().Foreground(theme.ColorDiamond).Render(filled) +
		lipgloss.NewStyle().Foreground(theme.ColorDimmed).Render(empty)
	return "[" + bar + "]"
}

// Settled reports whether the progress bar animation has finished.
func (m Model) Settled() bool {
	return m.bar.Settled()
}
