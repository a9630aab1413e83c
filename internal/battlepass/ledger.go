// Package battlepass implements the season reward ledger: two reward tracks
// over a list of progress tiers, claim-once redemption, the VIP purchase,
// diamond-to-progress exchange and the passive sync that turns newly earned
// diamonds into progress.
//
// A Ledger owns one player's State. Every mutating operation runs to
// completion under the ledger lock and persists the whole record before
// returning; rejected operations leave the state untouched.
package battlepass

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/cardastika/battlepass/internal/catalog"
	"github.com/cardastika/battlepass/internal/wallet"
)

var (
	// ErrNotClaimable is matched by every claim rejection.
	ErrNotClaimable = errors.New("reward not claimable")
	// ErrUnknownReward means the (tier, track) slot has no reward.
	ErrUnknownReward = fmt.Errorf("%w: no such reward", ErrNotClaimable)
	// ErrAlreadyClaimed means the slot was redeemed before.
	ErrAlreadyClaimed = fmt.Errorf("%w: already claimed", ErrNotClaimable)
	// ErrLocked means progress has not reached the tier yet.
	ErrLocked = fmt.Errorf("%w: tier not reached", ErrNotClaimable)
	// ErrVIPRequired means the slot is on the VIP track and VIP is not owned.
	ErrVIPRequired = fmt.Errorf("%w: VIP access required", ErrNotClaimable)

	// ErrNothingToClaim is returned by ClaimAll when no slot is claimable.
	ErrNothingToClaim = errors.New("no rewards available")
	// ErrVIPOwned is returned by BuyVIP when VIP is already active.
	ErrVIPOwned = errors.New("VIP already active")
	// ErrInsufficientDiamonds is returned when the wallet cannot cover a cost.
	ErrInsufficientDiamonds = errors.New("not enough diamonds")
	// ErrCancelled is returned when the player declines a confirmation.
	ErrCancelled = errors.New("cancelled")
	// ErrPassFull is returned by Exchange when progress is already capped.
	ErrPassFull = errors.New("season progress already full")
	// ErrInvalidAmount is returned by Exchange for a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// SlotStatus is the claim state of one (tier, track) slot.
type SlotStatus int

const (
	StatusLocked SlotStatus = iota
	StatusReady
	StatusVIPLocked
	StatusClaimed
)

func (s SlotStatus) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusReady:
		return "ready"
	case StatusVIPLocked:
		return "vip-locked"
	case StatusClaimed:
		return "claimed"
	}
	return "unknown"
}

// Grant describes one successful claim.
type Grant struct {
	Tier        int
	Track       catalog.Track
	Reward      catalog.Reward
	Description string
}

func (g Grant) String() string {
	return TrackName(g.Track) + ": " + g.Description
}

// SyncResult reports what a passive sync or reload changed.
type SyncResult struct {
	Gained     int  // progress added from newly earned diamonds
	Changed    bool // state was modified and saved
	RolledOver bool // the season expired and was reset
}

// Options configures a Ledger. Zero values select the defaults.
type Options struct {
	VIPPrice  int
	Notifier  Notifier
	Formatter *Formatter
	Clock     func() time.Time
}

// Ledger is the battle pass controller for one player.
type Ledger struct {
	repo     Repository
	catalog  *catalog.Catalog
	notifier Notifier
	format   *Formatter
	now      func() time.Time
	vipPrice int

	mu    sync.Mutex
	state State
}

// New loads the player's state (creating or resetting it as needed), folds
// in any diamonds earned since the last visit, and persists the result.
func New(repo Repository, cat *catalog.Catalog, opts Options) (*Ledger, error) {
	l := &Ledger{
		repo:     repo,
		catalog:  cat,
		notifier: opts.Notifier,
		format:   opts.Formatter,
		now:      opts.Clock,
		vipPrice: opts.VIPPrice,
	}
	if l.catalog == nil {
		l.catalog = catalog.Default()
	}
	if l.notifier == nil {
		l.notifier = NopNotifier{}
	}
	if l.format == nil {
		l.format = NewFormatter(DefaultLocale)
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.vipPrice <= 0 {
		l.vipPrice = DefaultVIPPrice
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadLocked()
	res, err := l.syncLocked()
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		if err := l.saveLocked(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Catalog returns the tier catalog the ledger was built with.
func (l *Ledger) Catalog() *catalog.Catalog {
	return l.catalog
}

// VIPPrice returns the diamond cost of VIP access.
func (l *Ledger) VIPPrice() int {
	return l.vipPrice
}

// State returns a copy of the current record.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// Wallet returns the current balances.
func (l *Ledger) Wallet() wallet.Balances {
	return l.repo.ReadWallet()
}

// Status returns the claim state of the slot. Slots without a reward report
// StatusLocked.
func (l *Ledger) Status(tier int, track catalog.Track) SlotStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusLocked(tier, track)
}

func (l *Ledger) statusLocked(tier int, track catalog.Track) SlotStatus {
	switch {
	case l.state.IsClaimed(track, tier):
		return StatusClaimed
	case l.state.Progress < tier:
		return StatusLocked
	case track == catalog.TrackVIP && !l.state.VIP:
		return StatusVIPLocked
	}
	return StatusReady
}

// checkClaimable returns the slot's reward if it can be claimed right now.
func (l *Ledger) checkClaimable(tier int, track catalog.Track) (*catalog.Reward, error) {
	t, ok := l.catalog.Tier(tier)
	if !ok || !track.Valid() || t.Reward(track) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReward, ClaimKey(track, tier))
	}
	switch l.statusLocked(tier, track) {
	case StatusClaimed:
		return nil, fmt.Errorf("%w: %s", ErrAlreadyClaimed, ClaimKey(track, tier))
	case StatusLocked:
		return nil, fmt.Errorf("%w: need %d, have %d", ErrLocked, tier, l.state.Progress)
	case StatusVIPLocked:
		return nil, ErrVIPRequired
	}
	return t.Reward(track), nil
}

// Claim redeems the reward in the (tier, track) slot. Rejections match
// ErrNotClaimable and leave the state unchanged.
func (l *Ledger) Claim(tier int, track catalog.Track) (Grant, error) {
	l.mu.Lock()
	g, wal, err := l.claimLocked(tier, track)
	view := l.viewLocked()
	l.mu.Unlock()

	if err != nil && g.Description == "" {
		return Grant{}, err
	}
	l.notify(wal, view)
	return g, err
}

// claimLocked applies one claim. The returned balances are non-nil when the
// wallet was written.
func (l *Ledger) claimLocked(tier int, track catalog.Track) (Grant, *wallet.Balances, error) {
	reward, err := l.checkClaimable(tier, track)
	if err != nil {
		return Grant{}, nil, err
	}

	wal, err := l.applyRewardLocked(*reward)
	if err != nil {
		return Grant{}, nil, err
	}
	l.state.Claimed[ClaimKey(track, tier)] = true

	g := Grant{
		Tier:        tier,
		Track:       track,
		Reward:      *reward,
		Description: l.format.Reward(*reward),
	}
	return g, wal, l.saveLocked()
}

// applyRewardLocked credits the reward to the wallet or the item ledger.
func (l *Ledger) applyRewardLocked(r catalog.Reward) (*wallet.Balances, error) {
	if r.Type == catalog.RewardItem {
		if err := l.repo.GrantItem(r.ItemID, r.ItemName, r.Amount, l.now()); err != nil {
			return nil, fmt.Errorf("granting item: %w", err)
		}
		return nil, nil
	}

	w, err := l.repo.ReadWallet().Add(wallet.Currency(r.Type), r.Amount)
	if err != nil {
		return nil, err
	}
	w = w.Clamped()
	if err := l.repo.WriteWallet(w); err != nil {
		return nil, fmt.Errorf("writing wallet: %w", err)
	}
	if r.Type == catalog.RewardDiamonds {
		// Granted diamonds are not earned diamonds: keep them out of the
		// next passive sync.
		l.state.TrackedDiamonds = w.Diamonds
	}
	return &w, nil
}

// ClaimAll claims every slot that is currently claimable, lowest tier
// first, free before VIP. Unclaimable slots are skipped. It returns
// ErrNothingToClaim when there was nothing to do.
func (l *Ledger) ClaimAll() ([]Grant, error) {
	l.mu.Lock()
	var (
		grants []Grant
		wal    *wallet.Balances
		err    error
	)
	for _, t := range l.catalog.Tiers {
		for _, track := range catalog.Tracks {
			if _, cerr := l.checkClaimable(t.Tier, track); cerr != nil {
				continue
			}
			g, w, cerr := l.claimLocked(t.Tier, track)
			if g.Description != "" {
				grants = append(grants, g)
			}
			if w != nil {
				wal = w
			}
			if cerr != nil {
				err = cerr
				break
			}
		}
		if err != nil {
			break
		}
	}
	view := l.viewLocked()
	l.mu.Unlock()

	if len(grants) > 0 {
		l.notify(wal, view)
	}
	if err != nil {
		return grants, err
	}
	if len(grants) == 0 {
		return nil, ErrNothingToClaim
	}
	return grants, nil
}

// BuyVIP unlocks the VIP track for VIPPrice diamonds after confirm approves.
// A nil confirm declines.
func (l *Ledger) BuyVIP(confirm Confirmer) error {
	l.mu.Lock()
	err := l.checkBuyVIPLocked()
	l.mu.Unlock()
	if err != nil {
		return err
	}

	// Ask without holding the lock; the player may take a while.
	prompt := fmt.Sprintf("Buy VIP access for %s diamonds?", l.format.Number(l.vipPrice))
	if confirm == nil || !confirm(prompt) {
		return ErrCancelled
	}

	l.mu.Lock()
	if err := l.checkBuyVIPLocked(); err != nil {
		l.mu.Unlock()
		return err
	}
	w := l.repo.ReadWallet()
	w.Diamonds -= l.vipPrice
	if err := l.repo.WriteWallet(w); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("writing wallet: %w", err)
	}
	l.state.VIP = true
	l.state.TrackedDiamonds = w.Diamonds
	err = l.saveLocked()
	view := l.viewLocked()
	l.mu.Unlock()

	l.notify(&w, view)
	return err
}

func (l *Ledger) checkBuyVIPLocked() error {
	if l.state.VIP {
		return ErrVIPOwned
	}
	if have := l.repo.ReadWallet().Diamonds; have < l.vipPrice {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientDiamonds, l.vipPrice, have)
	}
	return nil
}

// Exchange spends amount diamonds for the same amount of progress, capped at
// MaxProgress. The full amount is charged even when the cap absorbs part of
// it. It returns the progress actually gained.
func (l *Ledger) Exchange(amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	if l.state.Progress >= MaxProgress {
		l.mu.Unlock()
		return 0, ErrPassFull
	}
	w := l.repo.ReadWallet()
	if w.Diamonds < amount {
		l.mu.Unlock()
		return 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientDiamonds, amount, w.Diamonds)
	}

	w.Diamonds -= amount
	if err := l.repo.WriteWallet(w); err != nil {
		l.mu.Unlock()
		return 0, fmt.Errorf("writing wallet: %w", err)
	}
	before := l.state.Progress
	l.state.Progress = min(MaxProgress, before+amount)
	l.state.TrackedDiamonds = w.Diamonds
	err := l.saveLocked()
	view := l.viewLocked()
	l.mu.Unlock()

	l.notify(&w, view)
	return view.Progress - before, err
}

// Sync converts diamonds earned since the last sync into progress and
// resyncs the tracked balance. It also resets an expired season.
func (l *Ledger) Sync() (SyncResult, error) {
	l.mu.Lock()
	res, err := l.syncLocked()
	view := l.viewLocked()
	l.mu.Unlock()

	if res.Changed {
		l.notify(nil, view)
	}
	return res, err
}

func (l *Ledger) syncLocked() (SyncResult, error) {
	var res SyncResult
	now := l.now()
	w := l.repo.ReadWallet()

	if l.state.expired(now) {
		l.state.resetSeason(w.Diamonds, now)
		res.RolledOver = true
		res.Changed = true
	}

	delta := w.Diamonds - max(0, l.state.TrackedDiamonds)
	if delta > 0 {
		next := min(MaxProgress, l.state.Progress+delta)
		if next != l.state.Progress {
			res.Gained = next - l.state.Progress
			l.state.Progress = next
			res.Changed = true
		}
	}
	if l.state.TrackedDiamonds != w.Diamonds {
		l.state.TrackedDiamonds = w.Diamonds
		res.Changed = true
	}

	if res.Changed {
		return res, l.saveLocked()
	}
	return res, nil
}

// Rebase adopts the current wallet diamonds as the sync baseline without
// granting progress. Used when the wallet is replaced wholesale, e.g. on an
// account switch, rather than earned into.
func (l *Ledger) Rebase() error {
	l.mu.Lock()
	w := l.repo.ReadWallet()
	if l.state.TrackedDiamonds == w.Diamonds {
		l.mu.Unlock()
		return nil
	}
	l.state.TrackedDiamonds = w.Diamonds
	err := l.saveLocked()
	view := l.viewLocked()
	l.mu.Unlock()

	l.notify(&w, view)
	return err
}

// Reload rereads the persisted state, e.g. after another process changed
// it, then runs a sync. Reloading unchanged data changes nothing.
func (l *Ledger) Reload() (SyncResult, error) {
	l.mu.Lock()
	rolled := l.loadLocked()
	res, err := l.syncLocked()
	if err == nil && rolled && !res.Changed {
		err = l.saveLocked()
	}
	res.RolledOver = res.RolledOver || rolled
	res.Changed = res.Changed || rolled
	view := l.viewLocked()
	l.mu.Unlock()

	l.notify(nil, view)
	return res, err
}

// WatchedKeys are the kv keys whose external modification requires a Reload.
var WatchedKeys = append([]string{StateKey}, wallet.Keys...)

// HandleChanges reloads when any of keys is watched. It reports whether a
// reload happened.
func (l *Ledger) HandleChanges(keys []string) (SyncResult, bool, error) {
	for _, k := range keys {
		if slices.Contains(WatchedKeys, k) {
			res, err := l.Reload()
			return res, true, err
		}
	}
	return SyncResult{}, false, nil
}

// loadLocked replaces the in-memory state with the persisted one and reports
// whether the season rolled over while loading.
func (l *Ledger) loadLocked() bool {
	raw, err := l.repo.LoadState()
	if err != nil {
		log.Printf("[battlepass] loading state, using defaults: %v", err)
		raw = nil
	}
	st, rolled := decodeState(raw, l.repo.ReadWallet().Diamonds, l.now())
	l.state = st
	return rolled
}

func (l *Ledger) saveLocked() error {
	data, err := encodeState(l.state)
	if err != nil {
		return err
	}
	return l.repo.SaveState(data)
}

// notify fans out to the notifier outside the lock.
func (l *Ledger) notify(w *wallet.Balances, view View) {
	if w != nil {
		safeNotify(func() { l.notifier.NotifyWalletChanged(*w) })
	}
	safeNotify(func() { l.notifier.NotifyStateChanged(view) })
}
