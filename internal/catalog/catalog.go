// Package catalog describes the season's reward tiers. A catalog is built
// once at startup, from a YAML file, from the battle pass page markup, or
// from the embedded default, and is never modified afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxTier is the highest progress threshold a tier may use.
const MaxTier = 400

const defaultItemName = "Magic item"

// Track is one of the two reward lanes.
type Track string

const (
	TrackFree Track = "free"
	TrackVIP  Track = "vip"
)

// Tracks lists both lanes in display order.
var Tracks = []Track{TrackFree, TrackVIP}

// Valid reports whether t names a known track.
func (t Track) Valid() bool {
	return t == TrackFree || t == TrackVIP
}

// RewardType is what a reward grants.
type RewardType string

const (
	RewardSilver   RewardType = "silver"
	RewardGold     RewardType = "gold"
	RewardDiamonds RewardType = "diamonds"
	RewardItem     RewardType = "item"
)

// ErrInvalidCatalog wraps every catalog validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Reward is what one (tier, track) slot grants.
type Reward struct {
	Type     RewardType `yaml:"type"`
	Amount   int        `yaml:"amount"`
	ItemID   string     `yaml:"item_id,omitempty"`
	ItemName string     `yaml:"item_name,omitempty"`
}

// Tier is a progress threshold with an optional reward per track.
type Tier struct {
	Tier int     `yaml:"tier"`
	Free *Reward `yaml:"free,omitempty"`
	VIP  *Reward `yaml:"vip,omitempty"`
}

// Reward returns the tier's reward on track, or nil for an empty slot.
func (t Tier) Reward(track Track) *Reward {
	switch track {
	case TrackFree:
		return t.Free
	case TrackVIP:
		return t.VIP
	}
	return nil
}

// Catalog is the full tier list plus the diamond exchange offers.
type Catalog struct {
	Tiers    []Tier `yaml:"tiers"`
	Exchange []int  `yaml:"exchange"`
}

// Tier returns the tier with the given threshold.
func (c *Catalog) Tier(threshold int) (Tier, bool) {
	i := sort.Search(len(c.Tiers), func(i int) bool { return c.Tiers[i].Tier >= threshold })
	if i < len(c.Tiers) && c.Tiers[i].Tier == threshold {
		return c.Tiers[i], true
	}
	return Tier{}, false
}

// Next returns the lowest tier strictly above progress.
func (c *Catalog) Next(progress int) (Tier, bool) {
	i := sort.Search(len(c.Tiers), func(i int) bool { return c.Tiers[i].Tier > progress })
	if i < len(c.Tiers) {
		return c.Tiers[i], true
	}
	return Tier{}, false
}

//go:embed default.yaml
var defaultYAML []byte

// Default returns the embedded season catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from path. Files ending in .html or .htm are parsed
// as battle pass page markup, anything else as YAML. An empty path returns
// the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ParseHTML(f)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalize validates reward types, fills defaults and sorts tiers.
func (c *Catalog) normalize() error {
	seen := make(map[int]bool, len(c.Tiers))
	for i := range c.Tiers {
		t := &c.Tiers[i]
		if t.Tier < 1 || t.Tier > MaxTier {
			return fmt.Errorf("%w: tier %d outside 1..%d", ErrInvalidCatalog, t.Tier, MaxTier)
		}
		if seen[t.Tier] {
			return fmt.Errorf("%w: duplicate tier %d", ErrInvalidCatalog, t.Tier)
		}
		seen[t.Tier] = true

		var err error
		if t.Free, err = normalizeReward(t.Free); err != nil {
			return fmt.Errorf("tier %d free: %w", t.Tier, err)
		}
		if t.VIP, err = normalizeReward(t.VIP); err != nil {
			return fmt.Errorf("tier %d vip: %w", t.Tier, err)
		}
	}
	sort.Slice(c.Tiers, func(i, j int) bool { return c.Tiers[i].Tier < c.Tiers[j].Tier })

	for i, cost := range c.Exchange {
		c.Exchange[i] = max(1, cost)
	}
	return nil
}

// normalizeReward returns nil for an empty slot.
func normalizeReward(r *Reward) (*Reward, error) {
	if r == nil {
		return nil, nil
	}
	r.Type = RewardType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	switch r.Type {
	case "":
		return nil, nil
	case RewardSilver, RewardGold, RewardDiamonds:
	case RewardItem:
		r.ItemID = strings.TrimSpace(r.ItemID)
		r.ItemName = strings.TrimSpace(r.ItemName)
		if r.ItemName == "" {
			r.ItemName = defaultItemName
		}
	default:
		return nil, fmt.Errorf("%w: unknown reward type %q", ErrInvalidCatalog, r.Type)
	}
	r.Amount = max(1, r.Amount)
	return r, nil
}
