// Package theme provides the Lip Gloss color palette and reusable styles
// for the battle pass TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Currency colors.
var (
	ColorSilver  = lipgloss.Color("#9ca3af")
	ColorGold    = lipgloss.Color("#f59e0b")
	ColorDiamond = lipgloss.Color("#67e8f9")
	ColorItem    = lipgloss.Color("#a855f7")
)

// Slot status colors.
var (
	ColorReady     = lipgloss.Color("#22c55e")
	ColorClaimed   = lipgloss.Color("#374151")
	ColorLocked    = lipgloss.Color("#4b5563")
	ColorVIPLocked = lipgloss.Color("#854d0e")
	ColorVIP       = lipgloss.Color("#eab308")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorAccent  = lipgloss.Color("#3b82f6")
)

// CurrencyColor returns the color for a reward type or currency name.
func CurrencyColor(name string) lipgloss.Color {
	switch name {
	case "silver":
		return ColorSilver
	case "gold":
		return ColorGold
	case "diamonds":
		return ColorDiamond
	case "item":
		return ColorItem
	default:
		return ColorBright
	}
}

// StatusColor returns the color for a slot status name.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "ready":
		return ColorReady
	case "claimed":
		return ColorClaimed
	case "vip-locked":
		return ColorVIPLocked
	default:
		return ColorLocked
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorHealthy)
)
