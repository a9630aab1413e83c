package battlepass

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/cardastika/battlepass/internal/catalog"
	"github.com/cardastika/battlepass/internal/wallet"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestNew_FreshState(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 100)
	l := f.ledger(t)

	st := l.State()
	if st.Cycle != 1 || st.Progress != StartingProgress || st.VIP {
		t.Errorf("fresh state = %+v", st)
	}
	if st.TrackedDiamonds != 100 {
		t.Errorf("TrackedDiamonds = %d, want wallet balance 100", st.TrackedDiamonds)
	}
	if want := testStart.Add(SeasonDuration).UnixMilli(); st.SeasonEndsAt != want {
		t.Errorf("SeasonEndsAt = %d, want %d", st.SeasonEndsAt, want)
	}
	if _, ok := f.store.Get(StateKey); !ok {
		t.Error("fresh state should be persisted on load")
	}
}

func TestClaim_ExchangeUnlocksTier(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 100)
	l := f.ledger(t)

	_, err := l.Claim(10, catalog.TrackFree)
	if !errors.Is(err, ErrLocked) || !errors.Is(err, ErrNotClaimable) {
		t.Fatalf("Claim() at progress 6 error = %v, want ErrLocked", err)
	}

	gained, err := l.Exchange(4)
	if err != nil {
		t.Fatalf("Exchange(4) error: %v", err)
	}
	if gained != 4 || l.State().Progress != 10 {
		t.Fatalf("after exchange gained=%d progress=%d, want 4 and 10", gained, l.State().Progress)
	}
	if d := f.wallet.Read().Diamonds; d != 96 {
		t.Errorf("diamonds = %d, want 96", d)
	}

	g, err := l.Claim(10, catalog.TrackFree)
	if err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	if g.Description != "+50 silver" {
		t.Errorf("Description = %q, want +50 silver", g.Description)
	}
	if g.String() != "Free: +50 silver" {
		t.Errorf("String() = %q", g.String())
	}
	if s := f.wallet.Read().Silver; s != 50 {
		t.Errorf("silver = %d, want 50", s)
	}
	if !l.State().Claimed["free:10"] {
		t.Error("claimed set should contain free:10")
	}

	if _, err := l.Claim(10, catalog.TrackFree); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("second Claim() error = %v, want ErrAlreadyClaimed", err)
	}
	if s := f.wallet.Read().Silver; s != 50 {
		t.Errorf("silver after rejected claim = %d, want 50", s)
	}
}

func TestClaim_UnknownSlot(t *testing.T) {
	f := newFixture(t)
	f.putState(t, 400, 0, true)
	l := f.ledger(t)

	tests := []struct {
		tier  int
		track catalog.Track
	}{
		{15, catalog.TrackFree},
		{30, catalog.TrackFree}, // empty slot
		{10, "gold"},
	}
	for _, tt := range tests {
		if _, err := l.Claim(tt.tier, tt.track); !errors.Is(err, ErrUnknownReward) {
			t.Errorf("Claim(%d, %s) error = %v, want ErrUnknownReward", tt.tier, tt.track, err)
		}
	}
}

func TestClaim_VIPRequiresPurchase(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 1300)
	l := f.ledger(t)

	if _, err := l.Exchange(4); err != nil {
		t.Fatal(err)
	}
	if got := l.Status(10, catalog.TrackVIP); got != StatusVIPLocked {
		t.Errorf("Status(10, vip) = %v, want vip-locked", got)
	}
	if _, err := l.Claim(10, catalog.TrackVIP); !errors.Is(err, ErrVIPRequired) {
		t.Fatalf("Claim(vip) error = %v, want ErrVIPRequired", err)
	}

	if err := l.BuyVIP(AutoConfirm); err != nil {
		t.Fatalf("BuyVIP() error: %v", err)
	}
	st := l.State()
	if !st.VIP {
		t.Fatal("VIP should be active")
	}
	if d := f.wallet.Read().Diamonds; d != 1296-DefaultVIPPrice {
		t.Errorf("diamonds = %d, want %d", d, 1296-DefaultVIPPrice)
	}
	if st.TrackedDiamonds != 1296-DefaultVIPPrice {
		t.Errorf("TrackedDiamonds = %d, want resynced %d", st.TrackedDiamonds, 1296-DefaultVIPPrice)
	}

	g, err := l.Claim(10, catalog.TrackVIP)
	if err != nil {
		t.Fatalf("Claim(vip) after purchase error: %v", err)
	}
	if g.String() != "VIP: +5 gold" {
		t.Errorf("grant = %q", g.String())
	}
	if gold := f.wallet.Read().Gold; gold != 5 {
		t.Errorf("gold = %d, want 5", gold)
	}
}

func TestBuyVIP_Rejections(t *testing.T) {
	t.Run("insufficient", func(t *testing.T) {
		f := newFixture(t)
		f.setDiamonds(t, DefaultVIPPrice-1)
		l := f.ledger(t)
		if err := l.BuyVIP(AutoConfirm); !errors.Is(err, ErrInsufficientDiamonds) {
			t.Errorf("BuyVIP() error = %v, want ErrInsufficientDiamonds", err)
		}
	})

	t.Run("declined", func(t *testing.T) {
		f := newFixture(t)
		f.setDiamonds(t, 2000)
		l := f.ledger(t)

		var prompt string
		decline := func(p string) bool { prompt = p; return false }
		if err := l.BuyVIP(decline); !errors.Is(err, ErrCancelled) {
			t.Errorf("BuyVIP(decline) error = %v, want ErrCancelled", err)
		}
		if prompt == "" {
			t.Error("confirmer should have been asked")
		}
		if err := l.BuyVIP(nil); !errors.Is(err, ErrCancelled) {
			t.Errorf("BuyVIP(nil) error = %v, want ErrCancelled", err)
		}
		if l.State().VIP || f.wallet.Read().Diamonds != 2000 {
			t.Error("declined purchase must not change state")
		}
	})

	t.Run("owned", func(t *testing.T) {
		f := newFixture(t)
		f.setDiamonds(t, 5000)
		f.putState(t, 10, 5000, true)
		l := f.ledger(t)
		if err := l.BuyVIP(AutoConfirm); !errors.Is(err, ErrVIPOwned) {
			t.Errorf("BuyVIP() error = %v, want ErrVIPOwned", err)
		}
		if d := f.wallet.Read().Diamonds; d != 5000 {
			t.Errorf("diamonds = %d, want untouched 5000", d)
		}
	})

	t.Run("custom price", func(t *testing.T) {
		f := newFixture(t)
		f.setDiamonds(t, 100)
		l, err := New(NewKVRepository(f.store, f.wallet, f.items), testCatalog(t), Options{
			VIPPrice: 100,
			Clock:    f.clock.Now,
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := l.BuyVIP(AutoConfirm); err != nil {
			t.Errorf("BuyVIP() at custom price error: %v", err)
		}
		if d := f.wallet.Read().Diamonds; d != 0 {
			t.Errorf("diamonds = %d, want 0", d)
		}
	})
}

func TestExchange_Rejections(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 3)
	l := f.ledger(t)

	if _, err := l.Exchange(0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Exchange(0) error = %v, want ErrInvalidAmount", err)
	}
	if _, err := l.Exchange(4); !errors.Is(err, ErrInsufficientDiamonds) {
		t.Errorf("Exchange(4) error = %v, want ErrInsufficientDiamonds", err)
	}
	if l.State().Progress != StartingProgress || f.wallet.Read().Diamonds != 3 {
		t.Error("rejected exchange must not change state")
	}
}

func TestExchange_CapsAtMax(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 100)
	f.putState(t, 395, 100, false)
	l := f.ledger(t)

	gained, err := l.Exchange(10)
	if err != nil {
		t.Fatal(err)
	}
	if gained != 5 || l.State().Progress != MaxProgress {
		t.Errorf("gained=%d progress=%d, want 5 and %d", gained, l.State().Progress, MaxProgress)
	}
	if d := f.wallet.Read().Diamonds; d != 90 {
		t.Errorf("diamonds = %d, want full 10 charged", d)
	}

	if _, err := l.Exchange(1); !errors.Is(err, ErrPassFull) {
		t.Errorf("Exchange() at cap error = %v, want ErrPassFull", err)
	}
}

func TestSync_GrantsEarnedDiamondsOnce(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 100)
	f.putState(t, 50, 100, false)
	l := f.ledger(t)

	f.setDiamonds(t, 137)
	res, err := l.Sync()
	if err != nil {
		t.Fatal(err)
	}
	if res.Gained != 37 || !res.Changed {
		t.Errorf("Sync() = %+v, want Gained 37", res)
	}
	if p := l.State().Progress; p != 87 {
		t.Errorf("progress = %d, want 87", p)
	}

	res, err = l.Sync()
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed || res.Gained != 0 || l.State().Progress != 87 {
		t.Errorf("second Sync() = %+v progress=%d, want no change", res, l.State().Progress)
	}
}

func TestSync_ClampsAtMax(t *testing.T) {
	f := newFixture(t)
	f.putState(t, 390, 0, false)
	l := f.ledger(t)

	f.setDiamonds(t, 50)
	res, err := l.Sync()
	if err != nil {
		t.Fatal(err)
	}
	if res.Gained != 10 || l.State().Progress != MaxProgress {
		t.Errorf("Sync() = %+v progress=%d, want +10 to %d", res, l.State().Progress, MaxProgress)
	}
	if l.State().TrackedDiamonds != 50 {
		t.Errorf("TrackedDiamonds = %d, want 50", l.State().TrackedDiamonds)
	}
}

func TestSync_SpendingOnlyResyncs(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 80)
	f.putState(t, 40, 80, false)
	l := f.ledger(t)

	f.setDiamonds(t, 30)
	res, err := l.Sync()
	if err != nil {
		t.Fatal(err)
	}
	if res.Gained != 0 || !res.Changed {
		t.Errorf("Sync() = %+v, want resync without gain", res)
	}
	st := l.State()
	if st.Progress != 40 || st.TrackedDiamonds != 30 {
		t.Errorf("state = %+v, want progress 40 tracked 30", st)
	}
}

func TestClaimDiamonds_NoDoubleGrant(t *testing.T) {
	f := newFixture(t)
	f.putState(t, 20, 0, false)
	l := f.ledger(t)

	if _, err := l.Claim(20, catalog.TrackFree); err != nil {
		t.Fatal(err)
	}
	if d := f.wallet.Read().Diamonds; d != 30 {
		t.Fatalf("diamonds = %d, want 30", d)
	}

	res, err := l.Sync()
	if err != nil {
		t.Fatal(err)
	}
	if res.Gained != 0 || l.State().Progress != 20 {
		t.Errorf("Sync() after diamond grant = %+v progress=%d, want no gain", res, l.State().Progress)
	}
}

func TestClaim_ItemReward(t *testing.T) {
	f := newFixture(t)
	f.putState(t, 25, 0, true)
	l := f.ledger(t)

	if _, err := f.items.Add("stone_shield", "Stone Shield", 1, testStart); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(time.Minute)

	g, err := l.Claim(20, catalog.TrackVIP)
	if err != nil {
		t.Fatal(err)
	}
	if g.Description != "Stone Shield ×2" {
		t.Errorf("Description = %q", g.Description)
	}
	all := f.items.All()
	if len(all) != 1 || all[0].Count != 3 {
		t.Fatalf("items = %+v, want stone_shield x3", all)
	}
	if all[0].UpdatedAt != f.clock.Now().UnixMilli() {
		t.Errorf("UpdatedAt = %d, want claim time", all[0].UpdatedAt)
	}
}

func TestClaimAll(t *testing.T) {
	f := newFixture(t)
	f.putState(t, 20, 0, false)
	l := f.ledger(t)

	grants, err := l.ClaimAll()
	if err != nil {
		t.Fatalf("ClaimAll() error: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("ClaimAll() granted %d, want 2 (VIP slots skipped)", len(grants))
	}
	if grants[0].Tier != 10 || grants[1].Tier != 20 {
		t.Errorf("grant order = %d, %d; want 10, 20", grants[0].Tier, grants[1].Tier)
	}
	w := f.wallet.Read()
	if w.Silver != 50 || w.Diamonds != 30 {
		t.Errorf("wallet = %+v", w)
	}
	if l.State().TrackedDiamonds != 30 {
		t.Errorf("TrackedDiamonds = %d, want 30", l.State().TrackedDiamonds)
	}

	if _, err := l.ClaimAll(); !errors.Is(err, ErrNothingToClaim) {
		t.Errorf("second ClaimAll() error = %v, want ErrNothingToClaim", err)
	}
}

func TestClaimOnce_AnySequence(t *testing.T) {
	f := newFixture(t)
	f.putState(t, MaxProgress, 0, true)
	l := f.ledger(t)

	seen := make(map[string]int)
	for round := 0; round < 3; round++ {
		for _, tier := range []int{10, 20, 30} {
			for _, track := range catalog.Tracks {
				if _, err := l.Claim(tier, track); err == nil {
					seen[ClaimKey(track, tier)]++
				}
			}
		}
		if _, err := l.ClaimAll(); err == nil {
			t.Error("ClaimAll() after claiming everything should fail")
		}
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("%s claimed %d times", k, n)
		}
	}
	if len(seen) != 5 {
		t.Errorf("claimed %d slots, want 5", len(seen))
	}
}

func TestSeasonRollover_OnLoad(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 80)
	raw := `{"version":1,"cycle":3,"progress":200,"vip":true,"claimed":{"free:10":true},"trackedDiamonds":5,"seasonEndsAt":` +
		itoa(testStart.Add(-time.Millisecond).UnixMilli()) + `}`
	if err := f.store.Set(StateKey, raw); err != nil {
		t.Fatal(err)
	}

	l := f.ledger(t)
	st := l.State()
	if st.Cycle != 1 || st.Progress != 0 || st.VIP || len(st.Claimed) != 0 {
		t.Errorf("state after rollover = %+v", st)
	}
	if st.TrackedDiamonds != 80 {
		t.Errorf("TrackedDiamonds = %d, want wallet 80", st.TrackedDiamonds)
	}
	if want := testStart.Add(SeasonDuration).UnixMilli(); st.SeasonEndsAt != want {
		t.Errorf("SeasonEndsAt = %d, want %d", st.SeasonEndsAt, want)
	}

	stored, _ := f.store.Get(StateKey)
	if stored == raw {
		t.Error("rolled-over state should be persisted")
	}
}

func TestSeasonRollover_DuringSession(t *testing.T) {
	f := newFixture(t)
	f.putState(t, 120, 0, true)
	l := f.ledger(t)

	f.clock.Advance(25 * time.Hour)
	res, err := l.Sync()
	if err != nil {
		t.Fatal(err)
	}
	if !res.RolledOver {
		t.Fatalf("Sync() = %+v, want RolledOver", res)
	}
	if st := l.State(); st.Progress != 0 || st.VIP {
		t.Errorf("state = %+v, want reset", st)
	}
}

func TestReload_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 10)
	l := f.ledger(t)

	before, _ := f.store.Get(StateKey)
	res, err := l.Reload()
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed {
		t.Errorf("Reload() of unchanged data = %+v, want no change", res)
	}
	after, _ := f.store.Get(StateKey)
	if before != after {
		t.Error("Reload() of unchanged data rewrote the record")
	}
}

func TestHandleChanges(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 10)
	l := f.ledger(t)

	// Another process bumps progress and earns diamonds.
	f.putState(t, 300, 10, false)
	f.setDiamonds(t, 25)

	if _, reloaded, _ := l.HandleChanges([]string{"cardastika:deck"}); reloaded {
		t.Error("unwatched key should not trigger a reload")
	}
	res, reloaded, err := l.HandleChanges([]string{"cardastika:diamonds", StateKey})
	if err != nil || !reloaded {
		t.Fatalf("HandleChanges() reloaded=%v err=%v", reloaded, err)
	}
	if res.Gained != 15 || l.State().Progress != 315 {
		t.Errorf("after reload res=%+v progress=%d, want +15 to 315", res, l.State().Progress)
	}
}

func TestNotifier(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 100)
	l := f.ledger(t)
	f.notifier.views = nil

	if _, err := l.Exchange(4); err != nil {
		t.Fatal(err)
	}
	if len(f.notifier.wallets) != 1 || f.notifier.wallets[0].Diamonds != 96 {
		t.Errorf("wallet notifications = %+v", f.notifier.wallets)
	}
	if len(f.notifier.views) != 1 || f.notifier.views[0].Progress != 10 {
		t.Errorf("state notifications = %d", len(f.notifier.views))
	}

	if _, err := l.Sync(); err != nil {
		t.Fatal(err)
	}
	if len(f.notifier.views) != 1 {
		t.Error("no-op Sync() should not notify")
	}

	if _, err := l.Claim(20, catalog.TrackFree); err == nil {
		t.Fatal("expected rejection")
	}
	if len(f.notifier.views) != 1 {
		t.Error("rejected claim should not notify")
	}
}

type panickingNotifier struct{}

func (panickingNotifier) NotifyWalletChanged(wallet.Balances) { panic("hud") }
func (panickingNotifier) NotifyStateChanged(View)             { panic("render") }

func TestNotifier_PanicsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 100)
	l, err := New(NewKVRepository(f.store, f.wallet, f.items), testCatalog(t), Options{
		Notifier: panickingNotifier{},
		Clock:    f.clock.Now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Exchange(10); err != nil {
		t.Fatalf("Exchange() error: %v", err)
	}
	if l.State().Progress != 16 {
		t.Errorf("progress = %d, want 16", l.State().Progress)
	}
}

func TestRebase(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 10)
	l := f.ledger(t)

	f.setDiamonds(t, 5000)
	if err := l.Rebase(); err != nil {
		t.Fatal(err)
	}
	res, err := l.Sync()
	if err != nil {
		t.Fatal(err)
	}
	if res.Gained != 0 || l.State().Progress != StartingProgress {
		t.Errorf("Sync() after Rebase = %+v, want no progress", res)
	}
	if l.State().TrackedDiamonds != 5000 {
		t.Errorf("TrackedDiamonds = %d, want 5000", l.State().TrackedDiamonds)
	}
}

func TestClaim_WriteFailureLeavesSlotUnclaimed(t *testing.T) {
	tests := []struct {
		name  string
		tier  int
		track catalog.Track
		fail  func(*faultyRepo)
	}{
		{"item grant", 20, catalog.TrackVIP, func(r *faultyRepo) { r.itemErr = errDiskFull }},
		{"wallet write", 10, catalog.TrackFree, func(r *faultyRepo) { r.walletErr = errDiskFull }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.putState(t, 25, 0, true)
			l, repo := f.faultyLedger(t)
			tt.fail(repo)
			notified := len(f.notifier.views)

			if _, err := l.Claim(tt.tier, tt.track); !errors.Is(err, errDiskFull) {
				t.Fatalf("Claim() error = %v, want errDiskFull", err)
			}
			if l.State().IsClaimed(tt.track, tt.tier) {
				t.Error("failed claim marked the slot claimed")
			}
			if got := l.Status(tt.tier, tt.track); got != StatusReady {
				t.Errorf("Status() = %v, want ready", got)
			}
			if w := f.wallet.Read(); w != (wallet.Balances{}) {
				t.Errorf("wallet = %+v, want untouched", w)
			}
			if n := len(f.items.All()); n != 0 {
				t.Errorf("items = %d entries, want none", n)
			}
			if len(f.notifier.views) != notified {
				t.Error("failed claim notified")
			}

			// The persisted record does not carry the claim either.
			if f.ledger(t).State().IsClaimed(tt.track, tt.tier) {
				t.Error("reloaded state has the failed claim")
			}

			repo.itemErr, repo.walletErr = nil, nil
			if _, err := l.Claim(tt.tier, tt.track); err != nil {
				t.Errorf("retry Claim() error: %v", err)
			}
		})
	}
}

func TestClaimAll_StopsAtWriteFailure(t *testing.T) {
	f := newFixture(t)
	f.putState(t, 20, 0, false)
	l, repo := f.faultyLedger(t)
	repo.walletErr = errDiskFull
	repo.walletOK = 1

	grants, err := l.ClaimAll()
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("ClaimAll() error = %v, want errDiskFull", err)
	}
	if len(grants) != 1 || grants[0].Tier != 10 || grants[0].Track != catalog.TrackFree {
		t.Fatalf("ClaimAll() grants = %+v, want free tier 10 only", grants)
	}
	st := l.State()
	if !st.IsClaimed(catalog.TrackFree, 10) || st.IsClaimed(catalog.TrackFree, 20) {
		t.Errorf("claimed = %v", st.Claimed)
	}
	if w := f.wallet.Read(); w.Silver != 50 || w.Diamonds != 0 {
		t.Errorf("wallet = %+v, want only the tier 10 silver", w)
	}
	if len(f.notifier.wallets) == 0 || f.notifier.wallets[len(f.notifier.wallets)-1].Silver != 50 {
		t.Errorf("wallet notifications = %+v", f.notifier.wallets)
	}

	reloaded := f.ledger(t).State()
	if !reloaded.IsClaimed(catalog.TrackFree, 10) || reloaded.IsClaimed(catalog.TrackFree, 20) {
		t.Errorf("reloaded claimed = %v", reloaded.Claimed)
	}

	repo.walletErr = nil
	grants, err = l.ClaimAll()
	if err != nil || len(grants) != 1 || grants[0].Tier != 20 {
		t.Errorf("retry ClaimAll() = %+v, %v; want free tier 20", grants, err)
	}
}
