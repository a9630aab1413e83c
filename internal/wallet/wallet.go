// Package wallet reads and writes the player's three currency balances.
package wallet

import (
	"fmt"
	"log"
	"strconv"

	"github.com/cardastika/battlepass/internal/coerce"
	"github.com/cardastika/battlepass/internal/kv"
)

// Persisted balance keys. Silver is also written under its legacy alias so
// older screens keep reading the right value.
const (
	KeySilver       = "cardastika:silver"
	KeySilverLegacy = "cardastika:gems"
	KeyGold         = "cardastika:gold"
	KeyDiamonds     = "cardastika:diamonds"
)

// Keys lists every key a wallet write touches.
var Keys = []string{KeySilver, KeySilverLegacy, KeyGold, KeyDiamonds}

// Currency names one of the three balances.
type Currency string

const (
	Silver   Currency = "silver"
	Gold     Currency = "gold"
	Diamonds Currency = "diamonds"
)

// Balances holds the three non-negative balances.
type Balances struct {
	Silver   int `json:"silver"`
	Gold     int `json:"gold"`
	Diamonds int `json:"diamonds"`
}

// Clamped returns b with every balance raised to at least zero.
func (b Balances) Clamped() Balances {
	return Balances{
		Silver:   max(0, b.Silver),
		Gold:     max(0, b.Gold),
		Diamonds: max(0, b.Diamonds),
	}
}

// Add returns b with amount added to the named currency.
func (b Balances) Add(c Currency, amount int) (Balances, error) {
	switch c {
	case Silver:
		b.Silver += amount
	case Gold:
		b.Gold += amount
	case Diamonds:
		b.Diamonds += amount
	default:
		return b, fmt.Errorf("unknown currency %q", c)
	}
	return b, nil
}

// Mirror receives every successful wallet write, e.g. to copy balances into
// the active account snapshot.
type Mirror interface {
	MirrorBalances(Balances) error
}

// Bridge persists balances to a kv.Store and copies every write to an
// optional Mirror. Mirror failures never fail the write.
type Bridge struct {
	store  kv.Store
	mirror Mirror
	hooks  []func(Balances)
}

// NewBridge returns a Bridge over store. mirror may be nil.
func NewBridge(store kv.Store, mirror Mirror) *Bridge {
	return &Bridge{store: store, mirror: mirror}
}

// Read returns the stored balances. Missing or invalid entries read as zero;
// silver falls back to the legacy key.
func (b *Bridge) Read() Balances {
	silver, ok := b.readInt(KeySilver)
	if !ok {
		silver, _ = b.readInt(KeySilverLegacy)
	}
	gold, _ := b.readInt(KeyGold)
	diamonds, _ := b.readInt(KeyDiamonds)
	return Balances{Silver: silver, Gold: gold, Diamonds: diamonds}.Clamped()
}

// OnWrite registers fn to receive the balances after every successful
// Write. Hooks run on the writer's goroutine, after the mirror; a panicking
// hook is logged and skipped.
func (b *Bridge) OnWrite(fn func(Balances)) {
	b.hooks = append(b.hooks, fn)
}

func (b *Bridge) readInt(key string) (int, bool) {
	raw, ok := b.store.Get(key)
	if !ok {
		return 0, false
	}
	return coerce.ParseInt(raw)
}

// Write clamps and persists all balances, then mirrors them on a
// best-effort basis.
func (b *Bridge) Write(next Balances) error {
	next = next.Clamped()

	writes := []struct {
		key   string
		value int
	}{
		{KeySilver, next.Silver},
		{KeySilverLegacy, next.Silver},
		{KeyGold, next.Gold},
		{KeyDiamonds, next.Diamonds},
	}
	for _, w := range writes {
		if err := b.store.Set(w.key, strconv.Itoa(w.value)); err != nil {
			return fmt.Errorf("writing %s: %w", w.key, err)
		}
	}

	if b.mirror != nil {
		bestEffort("account mirror", func() error { return b.mirror.MirrorBalances(next) })
	}
	for _, fn := range b.hooks {
		bestEffort("write hook", func() error { fn(next); return nil })
	}
	return nil
}

// bestEffort runs fn, logging and discarding any error or panic.
func bestEffort(what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[wallet] %s panicked: %v", what, r)
		}
	}()
	if err := fn(); err != nil {
		log.Printf("[wallet] %s failed: %v", what, err)
	}
}
