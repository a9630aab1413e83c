package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Track    key.Binding
	Claim    key.Binding
	ClaimAll key.Binding
	BuyVIP   key.Binding
	Exchange key.Binding
	Next     key.Binding
	Resync   key.Binding
	Help     key.Binding
	Confirm  key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev tier"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next tier"),
		),
		Track: key.NewBinding(
			key.WithKeys("tab", "h", "l", "left", "right"),
			key.WithHelp("tab", "free/vip"),
		),
		Claim: key.NewBinding(
			key.WithKeys("enter", "c"),
			key.WithHelp("enter", "claim"),
		),
		ClaimAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "claim all"),
		),
		BuyVIP: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "buy VIP"),
		),
		Exchange: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "exchange"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "jump to reward"),
		),
		Resync: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "sync"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc", "n", "N"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
