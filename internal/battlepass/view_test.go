package battlepass

import (
	"testing"
	"time"

	"github.com/cardastika/battlepass/internal/catalog"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		progress, want int
	}{
		{0, 0},
		{6, 2},
		{2, 1},
		{1, 0},
		{200, 50},
		{399, 100},
		{400, 100},
		{900, 100},
		{-10, 0},
	}
	for _, tt := range tests {
		if got := progressPercent(tt.progress); got != tt.want {
			t.Errorf("progressPercent(%d) = %d, want %d", tt.progress, got, tt.want)
		}
	}
}

func TestCountdown(t *testing.T) {
	now := testStart
	tests := []struct {
		left time.Duration
		want string
	}{
		{SeasonDuration, "28d 0h"},
		{2*24*time.Hour + 5*time.Hour + 59*time.Minute, "2d 5h"},
		{59 * time.Minute, "0d 0h"},
		{0, SeasonEndedText},
		{-time.Hour, SeasonEndedText},
	}
	for _, tt := range tests {
		if got := Countdown(now.Add(tt.left), now); got != tt.want {
			t.Errorf("Countdown(+%v) = %q, want %q", tt.left, got, tt.want)
		}
	}
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("en")
	if got := f.Number(1250); got != "1,250" {
		t.Errorf("Number(1250) = %q, want 1,250", got)
	}
	if got := f.Number(-3); got != "0" {
		t.Errorf("Number(-3) = %q, want 0", got)
	}
	if NewFormatter("not a locale").Number(7) != "7" {
		t.Error("fallback formatter should still print digits")
	}

	tests := []struct {
		r    catalog.Reward
		want string
	}{
		{catalog.Reward{Type: catalog.RewardSilver, Amount: 50}, "+50 silver"},
		{catalog.Reward{Type: catalog.RewardGold, Amount: 5}, "+5 gold"},
		{catalog.Reward{Type: catalog.RewardDiamonds, Amount: 2500}, "+2,500 diamonds"},
		{catalog.Reward{Type: catalog.RewardItem, Amount: 1, ItemName: "Ember Rune"}, "Ember Rune ×1"},
		{catalog.Reward{Type: "mystery", Amount: 1}, "Reward"},
	}
	for _, tt := range tests {
		if got := f.Reward(tt.r); got != tt.want {
			t.Errorf("Reward(%+v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestView(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 7)
	l := f.ledger(t)

	v := l.View()
	if v.Progress != 6 || v.Percent != 2 || v.Cycle != 1 || v.MaxCycle != MaxCycle {
		t.Errorf("header = %d/%d%% cycle %d/%d", v.Progress, v.Percent, v.Cycle, v.MaxCycle)
	}
	if v.NextTier != 10 || v.NeedForNext != 4 {
		t.Errorf("next = %d (need %d), want 10 (need 4)", v.NextTier, v.NeedForNext)
	}
	if v.Countdown != "28d 0h" || v.SeasonEnded {
		t.Errorf("countdown = %q ended=%v", v.Countdown, v.SeasonEnded)
	}
	if v.VIP || v.CanBuyVIP || v.VIPPrice != DefaultVIPPrice {
		t.Errorf("vip = %v can=%v price=%d", v.VIP, v.CanBuyVIP, v.VIPPrice)
	}
	if v.Claimable != 0 {
		t.Errorf("Claimable = %d, want 0", v.Claimable)
	}
	if len(v.Offers) != 2 || !v.Offers[0].Enabled || v.Offers[1].Enabled {
		t.Errorf("offers = %+v, want [4 enabled, 10 disabled]", v.Offers)
	}
	if len(v.Tiers) != 3 {
		t.Fatalf("tiers = %d, want 3", len(v.Tiers))
	}
	if !v.Tiers[0].Next || v.Tiers[0].Unlocked {
		t.Errorf("tier 10 row = %+v", v.Tiers[0])
	}
	if v.Tiers[2].Free != nil {
		t.Error("tier 30 free slot should be empty")
	}
	if s := v.Tiers[1].Slot(catalog.TrackVIP); s == nil || s.Preview != "Stone Shield ×2" || s.Status != StatusLocked {
		t.Errorf("tier 20 vip slot = %+v", s)
	}

	if _, err := l.Exchange(4); err != nil {
		t.Fatal(err)
	}
	v = l.View()
	if v.Claimable != 1 {
		t.Errorf("Claimable at 10 = %d, want 1 (vip slot locked)", v.Claimable)
	}
	if got := v.Tiers[0].VIP.Status; got != StatusVIPLocked {
		t.Errorf("tier 10 vip status = %v", got)
	}
	if v.Offers[0].Enabled {
		t.Error("offer 4 should be disabled with 3 diamonds left")
	}
}

func TestView_FullAndEnded(t *testing.T) {
	f := newFixture(t)
	f.setDiamonds(t, 5000)
	f.putState(t, MaxProgress, 5000, false)
	l := f.ledger(t)

	v := l.View()
	if v.NextTier != 0 || v.NeedForNext != 0 || v.Percent != 100 {
		t.Errorf("full pass view next=%d need=%d pct=%d", v.NextTier, v.NeedForNext, v.Percent)
	}
	for _, o := range v.Offers {
		if o.Enabled {
			t.Errorf("offer %d enabled on a full pass", o.Cost)
		}
	}
	if !v.CanBuyVIP {
		t.Error("5000 diamonds should afford VIP")
	}

	f.clock.Advance(24 * time.Hour)
	v = l.View()
	if !v.SeasonEnded || v.Countdown != SeasonEndedText {
		t.Errorf("ended view = %v %q", v.SeasonEnded, v.Countdown)
	}
}

func TestSlotStatusString(t *testing.T) {
	for _, s := range []SlotStatus{StatusLocked, StatusReady, StatusVIPLocked, StatusClaimed} {
		if s.String() == "" {
			t.Errorf("status %d has no name", s)
		}
	}
}
