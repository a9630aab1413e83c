// Package status renders the wallet HUD shown above the battle pass.
package status

import (
	"github.com/cardastika/battlepass/internal/battlepass"
	"github.com/cardastika/battlepass/internal/tui/theme"
	"github.com/cardastika/battlepass/internal/wallet"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the status bar state.
type Model struct {
	Wallet  wallet.Balances
	Account string // active account name, empty when none
	Width   int

	format *battlepass.Formatter
}

// New creates a status bar model that formats numbers with f.
func New(f *battlepass.Formatter) Model {
	if f == nil {
		f = battlepass.NewFormatter(battlepass.DefaultLocale)
	}
	return Model{format: f}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	silver := lipgloss.NewStyle().Foreground(theme.ColorSilver).Render("⛀ " + m.format.Number(m.Wallet.Silver))
	gold := lipgloss.NewStyle().Foreground(theme.ColorGold).Render("⛁ " + m.format.Number(m.Wallet.Gold))
	diamonds := lipgloss.NewStyle().Foreground(theme.ColorDiamond).Render("💎 " + m.format.Number(m.Wallet.Diamonds))

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := silver + sep + gold + sep + diamonds
	if m.Account != "" {
		content = theme.StyleHeader.Render(m.Account) + sep + content
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
