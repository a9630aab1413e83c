package battlepass

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/cardastika/battlepass/internal/catalog"
	"github.com/cardastika/battlepass/internal/coerce"
)

const (
	// StateKey is the kv slot holding the persisted State.
	StateKey = "cardastika:bp:state:v1"

	stateVersion = 1

	// MaxProgress caps season progress; it is also the highest tier.
	MaxProgress = catalog.MaxTier
	// MaxCycle is the number of repetitions of the season track.
	MaxCycle = 4
	// StartingProgress is the progress a brand-new player starts with.
	StartingProgress = 6
	// DefaultVIPPrice is the diamond cost of the VIP track.
	DefaultVIPPrice = 1250
	// SeasonDuration is the length of one season.
	SeasonDuration = 28 * 24 * time.Hour

	defaultCycle = 1
)

// State is the persisted battle pass record.
type State struct {
	Version         int             `json:"version"`
	Cycle           int             `json:"cycle"` // display only, never advanced here
	Progress        int             `json:"progress"`
	VIP             bool            `json:"vip"`
	Claimed         map[string]bool `json:"claimed"`
	TrackedDiamonds int             `json:"trackedDiamonds"`
	SeasonEndsAt    int64           `json:"seasonEndsAt"` // epoch ms
}

// ClaimKey is the redemption key of one (track, tier) slot.
func ClaimKey(track catalog.Track, tier int) string {
	return fmt.Sprintf("%s:%d", track, tier)
}

// SeasonEnds returns the season expiry as a time.
func (s State) SeasonEnds() time.Time {
	return time.UnixMilli(s.SeasonEndsAt)
}

// IsClaimed reports whether the (track, tier) slot has been redeemed.
func (s State) IsClaimed(track catalog.Track, tier int) bool {
	return s.Claimed[ClaimKey(track, tier)]
}

func (s State) clone() State {
	cp := s
	cp.Claimed = maps.Clone(s.Claimed)
	if cp.Claimed == nil {
		cp.Claimed = make(map[string]bool)
	}
	return cp
}

// defaultState is the record of a player who has never opened the pass.
// They start with StartingProgress as a welcome grant.
func defaultState(walletDiamonds int, now time.Time) State {
	return State{
		Version:         stateVersion,
		Cycle:           defaultCycle,
		Progress:        StartingProgress,
		Claimed:         make(map[string]bool),
		TrackedDiamonds: max(0, walletDiamonds),
		SeasonEndsAt:    now.Add(SeasonDuration).UnixMilli(),
	}
}

// resetSeason starts a fresh season. trackedDiamonds is resynced to the
// wallet so diamonds earned before the reset are not granted again.
func (s *State) resetSeason(walletDiamonds int, now time.Time) {
	s.Cycle = defaultCycle
	s.Progress = 0
	s.VIP = false
	s.Claimed = make(map[string]bool)
	s.SeasonEndsAt = now.Add(SeasonDuration).UnixMilli()
	s.TrackedDiamonds = max(0, walletDiamonds)
}

// expired reports whether the season is over at now.
func (s State) expired(now time.Time) bool {
	return s.SeasonEndsAt <= now.UnixMilli()
}

// decodeState rebuilds a State from persisted bytes. Absent or malformed data
// yields the default record; individual fields are coerced and clamped so a
// partially corrupted record keeps whatever is still readable. An expired
// season is reset before returning, reported by rolled.
func decodeState(raw []byte, walletDiamonds int, now time.Time) (st State, rolled bool) {
	base := defaultState(walletDiamonds, now)

	var obj map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil || obj == nil {
		return base, false
	}

	st = State{
		Version:         stateVersion,
		Cycle:           coerce.Clamp(coerce.Int(obj["cycle"], base.Cycle), 1, MaxCycle),
		Progress:        coerce.Clamp(coerce.Int(obj["progress"], base.Progress), 0, MaxProgress),
		VIP:             coerce.Truthy(obj["vip"]),
		Claimed:         make(map[string]bool),
		TrackedDiamonds: max(0, coerce.Int(obj["trackedDiamonds"], base.TrackedDiamonds)),
		SeasonEndsAt:    int64(max(0, coerce.Int(obj["seasonEndsAt"], int(base.SeasonEndsAt)))),
	}
	if claimed, ok := obj["claimed"].(map[string]any); ok {
		for k, v := range claimed {
			if coerce.Truthy(v) {
				st.Claimed[k] = true
			}
		}
	}

	if st.expired(now) {
		st.resetSeason(walletDiamonds, now)
		return st, true
	}
	return st, false
}

func encodeState(st State) ([]byte, error) {
	st.Version = stateVersion
	if st.Claimed == nil {
		st.Claimed = make(map[string]bool)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshaling battle pass state: %w", err)
	}
	return data, nil
}
