package battlepass

import (
	"time"

	"github.com/cardastika/battlepass/internal/catalog"
	"github.com/cardastika/battlepass/internal/coerce"
	"github.com/cardastika/battlepass/internal/wallet"
)

// Slot is the display state of one (tier, track) reward.
type Slot struct {
	Tier    int
	Track   catalog.Track
	Reward  catalog.Reward
	Status  SlotStatus
	Preview string
}

// TierView is one row of the reward track.
type TierView struct {
	Tier     int
	Unlocked bool
	Next     bool  // the nearest tier not yet reached
	Free     *Slot // nil for an empty slot
	VIP      *Slot // nil for an empty slot
}

// Slot returns the row's slot on track.
func (t TierView) Slot(track catalog.Track) *Slot {
	if track == catalog.TrackVIP {
		return t.VIP
	}
	return t.Free
}

// Offer is one diamond exchange button.
type Offer struct {
	Cost    int
	Enabled bool
}

// View is everything a renderer needs to draw the battle pass screen.
type View struct {
	Cycle       int
	MaxCycle    int
	Progress    int
	MaxProgress int
	Percent     int // progress bar fill, 0..100

	NextTier    int // 0 once every tier is reached
	NeedForNext int

	SeasonEndsAt time.Time
	SeasonEnded  bool
	Countdown    string

	VIP       bool
	VIPPrice  int
	CanBuyVIP bool

	Claimable int
	Tiers     []TierView
	Offers    []Offer
	Wallet    wallet.Balances
}

// View projects the current state for rendering.
func (l *Ledger) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

func (l *Ledger) viewLocked() View {
	now := l.now()
	st := l.state
	w := l.repo.ReadWallet()

	v := View{
		Cycle:        st.Cycle,
		MaxCycle:     MaxCycle,
		Progress:     st.Progress,
		MaxProgress:  MaxProgress,
		Percent:      progressPercent(st.Progress),
		SeasonEndsAt: st.SeasonEnds(),
		SeasonEnded:  !st.SeasonEnds().After(now),
		Countdown:    Countdown(st.SeasonEnds(), now),
		VIP:          st.VIP,
		VIPPrice:     l.vipPrice,
		CanBuyVIP:    !st.VIP && w.Diamonds >= l.vipPrice,
		Wallet:       w,
	}

	if next, ok := l.catalog.Next(st.Progress); ok {
		v.NextTier = next.Tier
		v.NeedForNext = max(0, next.Tier-st.Progress)
	}

	v.Tiers = make([]TierView, 0, len(l.catalog.Tiers))
	for _, t := range l.catalog.Tiers {
		row := TierView{
			Tier:     t.Tier,
			Unlocked: st.Progress >= t.Tier,
			Next:     t.Tier == v.NextTier,
		}
		for _, track := range catalog.Tracks {
			r := t.Reward(track)
			if r == nil {
				continue
			}
			s := &Slot{
				Tier:    t.Tier,
				Track:   track,
				Reward:  *r,
				Status:  l.statusLocked(t.Tier, track),
				Preview: l.format.Reward(*r),
			}
			if s.Status == StatusReady {
				v.Claimable++
			}
			if track == catalog.TrackVIP {
				row.VIP = s
			} else {
				row.Free = s
			}
		}
		v.Tiers = append(v.Tiers, row)
	}

	full := st.Progress >= MaxProgress
	for _, cost := range l.catalog.Exchange {
		v.Offers = append(v.Offers, Offer{Cost: cost, Enabled: !full && w.Diamonds >= cost})
	}
	return v
}

func progressPercent(progress int) int {
	return coerce.Clamp(int(float64(progress)/MaxProgress*100+0.5), 0, 100)
}
