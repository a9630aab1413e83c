// Package app is the root Bubble Tea model of the battle pass TUI.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardastika/battlepass/internal/battlepass"
	"github.com/cardastika/battlepass/internal/tui/theme"
	"github.com/cardastika/battlepass/internal/tui/views/eventlog"
	"github.com/cardastika/battlepass/internal/tui/views/pass"
	"github.com/cardastika/battlepass/internal/tui/views/status"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayConfirmVIP
)

const logLines = 5

// Options configures the model.
type Options struct {
	// Poller is ticked on every refresh; nil falls back to Ledger.Sync.
	Poller    *battlepass.Poller
	Formatter *battlepass.Formatter
	Interval  time.Duration // refresh period, battlepass.DefaultSyncInterval if zero
	Account   string
}

type tickMsg time.Time

type frameMsg time.Time

// Model is the root Bubble Tea model.
type Model struct {
	ledger   *battlepass.Ledger
	poller   *battlepass.Poller
	interval time.Duration

	keys   KeyMap
	width  int
	height int

	overlay Overlay
	prompt  string // VIP confirmation text

	pass   pass.Model
	status status.Model
	log    eventlog.Model

	toast    string
	toastErr bool

	help      string
	helpWidth int

	animating bool
}

// New creates the root model over l.
func New(l *battlepass.Ledger, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = battlepass.DefaultSyncInterval
	}
	m := Model{
		ledger:   l,
		poller:   opts.Poller,
		interval: opts.Interval,
		keys:     DefaultKeyMap(),
		pass:     pass.New(),
		status:   status.New(opts.Formatter),
		log:      eventlog.New(),
	}
	m.status.Account = opts.Account
	m.refresh()
	m.pass.SelectNext()
	return m
}

// Init schedules the refresh timer and the opening bar animation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), frame())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func frame() tea.Cmd {
	return tea.Tick(pass.FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.status.Width = msg.Width
		m.pass.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.poll(false)
		anim := m.animate()
		return m, tea.Batch(m.tick(), anim)

	case frameMsg:
		if m.pass.Animate() {
			return m, frame()
		}
		m.animating = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case OverlayHelp:
		if key.Matches(msg, m.keys.Escape, m.keys.Help, m.keys.Quit) {
			m.overlay = OverlayNone
		}
		return m, nil

	case OverlayConfirmVIP:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.overlay = OverlayNone
			m.buyVIP()
			anim := m.animate()
			return m, anim
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
			m.setToast("VIP purchase cancelled", false)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.pass.MoveUp()

	case key.Matches(msg, m.keys.Down):
		m.pass.MoveDown()

	case key.Matches(msg, m.keys.Track):
		m.pass.ToggleTrack()

	case key.Matches(msg, m.keys.Next):
		m.pass.SelectNext()

	case key.Matches(msg, m.keys.Claim):
		m.claimSelected()

	case key.Matches(msg, m.keys.ClaimAll):
		m.claimAll()

	case key.Matches(msg, m.keys.BuyVIP):
		m.askVIP()

	case key.Matches(msg, m.keys.Exchange):
		m.exchange(int(msg.Runes[0] - '1'))
		anim := m.animate()
		return m, anim

	case key.Matches(msg, m.keys.Resync):
		m.poll(true)
		anim := m.animate()
		return m, anim

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		if m.help == "" || m.helpWidth != m.width {
			m.help = renderHelp(m.width)
			m.helpWidth = m.width
		}
	}

	return m, nil
}

// animate starts the bar animation unless it is already running or idle.
func (m *Model) animate() tea.Cmd {
	if m.animating || m.pass.Settled() {
		return nil
	}
	m.animating = true
	return frame()
}

func (m *Model) refresh() {
	v := m.ledger.View()
	m.pass.SetView(v)
	m.status.Wallet = v.Wallet
}

// poll runs one sync pass. Background polls only touch the log; explicit
// ones also report through the toast line.
func (m *Model) poll(loud bool) {
	var (
		res battlepass.SyncResult
		err error
	)
	if m.poller != nil {
		res, err = m.poller.Tick()
	} else {
		res, err = m.ledger.Sync()
	}
	m.refresh()

	if err != nil {
		m.log.Add(eventlog.KindError, err.Error())
		if loud {
			m.setToast("Sync failed: "+err.Error(), true)
		}
		return
	}
	if res.RolledOver {
		m.log.Add(eventlog.KindSync, "season ended, a new season has started")
	}
	if res.Gained > 0 {
		m.log.Add(eventlog.KindSync, fmt.Sprintf("+%d progress from earned diamonds", res.Gained))
	}
	if loud {
		if res.Gained > 0 {
			m.setToast(fmt.Sprintf("Synced: +%d progress", res.Gained), false)
		} else {
			m.setToast("Synced, nothing new", false)
		}
	}
}

func (m *Model) claimSelected() {
	tier, track, ok := m.pass.Selection()
	if !ok {
		m.setToast("No reward in this slot", true)
		return
	}
	g, err := m.ledger.Claim(tier, track)
	m.refresh()
	if err != nil {
		m.fail(err)
		return
	}
	m.log.Add(eventlog.KindClaim, fmt.Sprintf("tier %d %s", g.Tier, g))
	m.setToast("Claimed "+g.String(), false)
}

func (m *Model) claimAll() {
	grants, err := m.ledger.ClaimAll()
	m.refresh()
	for _, g := range grants {
		m.log.Add(eventlog.KindClaim, fmt.Sprintf("tier %d %s", g.Tier, g))
	}
	if err != nil && len(grants) == 0 {
		m.fail(err)
		return
	}
	if err != nil {
		m.log.Add(eventlog.KindError, err.Error())
	}
	m.setToast(fmt.Sprintf("Claimed %d rewards", len(grants)), false)
}

// askVIP runs the purchase checks and, when they pass, opens the
// confirmation overlay instead of buying.
func (m *Model) askVIP() {
	var prompt string
	err := m.ledger.BuyVIP(func(p string) bool {
		prompt = p
		return false
	})
	if errors.Is(err, battlepass.ErrCancelled) && prompt != "" {
		m.prompt = prompt
		m.overlay = OverlayConfirmVIP
		return
	}
	m.fail(err)
}

func (m *Model) buyVIP() {
	err := m.ledger.BuyVIP(battlepass.AutoConfirm)
	m.refresh()
	if err != nil {
		m.fail(err)
		return
	}
	m.log.Add(eventlog.KindVIP, "VIP track unlocked")
	m.setToast("VIP unlocked", false)
}

func (m *Model) exchange(idx int) {
	offers := m.pass.State.Offers
	if idx < 0 || idx >= len(offers) {
		return
	}
	cost := offers[idx].Cost
	gained, err := m.ledger.Exchange(cost)
	m.refresh()
	if err != nil {
		m.fail(err)
		return
	}
	m.log.Add(eventlog.KindExchange, fmt.Sprintf("%d diamonds → +%d progress", cost, gained))
	m.setToast(fmt.Sprintf("+%d progress", gained), false)
}

func (m *Model) fail(err error) {
	if err == nil {
		return
	}
	m.log.Add(eventlog.KindError, err.Error())
	m.setToast(capitalize(err.Error()), true)
}

func (m *Model) setToast(text string, isErr bool) {
	m.toast = text
	m.toastErr = isErr
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	switch m.overlay {
	case OverlayHelp:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.help,
			theme.StyleDimmed.Render("  esc:close"),
		)
	case OverlayConfirmVIP:
		return m.renderConfirm()
	}

	sections := []string{
		m.status.View(),
		m.pass.View(),
		m.renderToast(),
		m.log.View(m.width, logLines),
		theme.StyleDimmed.Render("  j/k:tier  tab:track  enter:claim  a:all  1-9:exchange  v:vip  ?:help  q:quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderToast() string {
	if m.toast == "" {
		return ""
	}
	if m.toastErr {
		return theme.StyleError.Render("  " + m.toast)
	}
	return theme.StyleSuccess.Render("  " + m.toast)
}

func (m Model) renderConfirm() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render("UNLOCK VIP"),
		"",
		m.prompt,
		"",
		theme.StyleDimmed.Render("y:confirm  n/esc:cancel"),
	)
	box := lipgloss.NewStyle().
		Padding(1, 3).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorVIP).
		Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
