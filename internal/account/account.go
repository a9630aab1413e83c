// Package account stores player accounts and tracks which one is active.
// The active account keeps its own copy of the wallet balances; Registry
// implements wallet.Mirror so every wallet write is copied into it.
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cardastika/battlepass/internal/kv"
	"github.com/cardastika/battlepass/internal/wallet"
	"github.com/google/uuid"
)

const (
	keyPrefix     = "account:"
	keyActive     = "activeAccount"
	schemaVersion = 1
)

var (
	// ErrNameRequired is returned when an account name is empty after trimming.
	ErrNameRequired = errors.New("account name is required")
	// ErrExists is returned when creating an account whose name is taken.
	ErrExists = errors.New("account already exists")
	// ErrNotFound is returned when a named account does not exist.
	ErrNotFound = errors.New("account not found")
	// ErrNoActive is returned by UpdateActive when no account is active.
	ErrNoActive = errors.New("no active account")
)

// Account is a persisted player profile.
type Account struct {
	Version  int    `json:"v"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Created  int64  `json:"created"` // epoch ms
	Updated  int64  `json:"updated"` // epoch ms
	Silver   int    `json:"silver"`
	Gems     int    `json:"gems"` // legacy alias of Silver
	Gold     int    `json:"gold"`
	Diamonds int    `json:"diamonds"`
}

// Balances returns the account's currency snapshot.
func (a *Account) Balances() wallet.Balances {
	return wallet.Balances{Silver: a.Silver, Gold: a.Gold, Diamonds: a.Diamonds}
}

// normalize repairs a record read from storage; older records may only
// carry the legacy gems field.
func (a *Account) normalize() {
	if a.Version == 0 {
		a.Version = schemaVersion
	}
	if a.Silver == 0 && a.Gems != 0 {
		a.Silver = a.Gems
	}
	a.Gems = a.Silver
}

// Registry manages accounts in a kv.Store.
type Registry struct {
	store kv.Store
	now   func() time.Time
}

// NewRegistry returns a Registry backed by store.
func NewRegistry(store kv.Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Create stores a new account with the given starting balances.
func (r *Registry) Create(name string, start wallet.Balances) (*Account, error) {
	n := normalizeName(name)
	if n == "" {
		return nil, ErrNameRequired
	}
	if _, ok := r.store.Get(keyPrefix + n); ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, n)
	}

	start = start.Clamped()
	ts := r.now().UnixMilli()
	acc := &Account{
		Version:  schemaVersion,
		ID:       uuid.NewString(),
		Name:     n,
		Created:  ts,
		Silver:   start.Silver,
		Gold:     start.Gold,
		Diamonds: start.Diamonds,
	}
	if err := r.save(acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Load returns the named account. Malformed records are treated as absent.
func (r *Registry) Load(name string) (*Account, bool) {
	n := normalizeName(name)
	if n == "" {
		return nil, false
	}
	raw, ok := r.store.Get(keyPrefix + n)
	if !ok {
		return nil, false
	}
	var acc Account
	if err := json.Unmarshal([]byte(raw), &acc); err != nil || acc.Name != n {
		return nil, false
	}
	acc.normalize()
	return &acc, true
}

// List returns every readable account, most recently updated first.
func (r *Registry) List() []*Account {
	var out []*Account
	for _, k := range r.store.Keys() {
		name, ok := strings.CutPrefix(k, keyPrefix)
		if !ok {
			continue
		}
		if acc, ok := r.Load(name); ok {
			out = append(out, acc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Updated > out[j].Updated })
	return out
}

// SetActive marks the named account active and copies its balances into the
// wallet keys.
func (r *Registry) SetActive(name string) (*Account, error) {
	acc, ok := r.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, normalizeName(name))
	}
	if err := r.store.Set(keyActive, acc.Name); err != nil {
		return nil, fmt.Errorf("setting active account: %w", err)
	}
	if err := r.exportBalances(acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Active returns the active account, if any.
func (r *Registry) Active() (*Account, bool) {
	name, ok := r.store.Get(keyActive)
	if !ok || name == "" {
		return nil, false
	}
	return r.Load(name)
}

// UpdateActive applies fn to the active account and saves it.
func (r *Registry) UpdateActive(fn func(*Account)) (*Account, error) {
	acc, ok := r.Active()
	if !ok {
		return nil, ErrNoActive
	}
	fn(acc)
	if err := r.save(acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// MirrorBalances copies b into the active account. Without an active
// account it does nothing.
func (r *Registry) MirrorBalances(b wallet.Balances) error {
	if _, ok := r.Active(); !ok {
		return nil
	}
	_, err := r.UpdateActive(func(acc *Account) {
		acc.Silver = b.Silver
		acc.Gold = b.Gold
		acc.Diamonds = b.Diamonds
	})
	return err
}

func (r *Registry) save(acc *Account) error {
	if acc.Version == 0 {
		acc.Version = schemaVersion
	}
	acc.Gems = acc.Silver
	acc.Updated = r.now().UnixMilli()
	data, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("marshaling account: %w", err)
	}
	if err := r.store.Set(keyPrefix+acc.Name, string(data)); err != nil {
		return fmt.Errorf("saving account %s: %w", acc.Name, err)
	}
	return nil
}

// exportBalances writes the account's balances straight to the wallet keys.
// It bypasses wallet.Bridge so activating an account does not mirror back
// into itself.
func (r *Registry) exportBalances(acc *Account) error {
	b := acc.Balances().Clamped()
	for key, v := range map[string]int{
		wallet.KeySilver:       b.Silver,
		wallet.KeySilverLegacy: b.Silver,
		wallet.KeyGold:         b.Gold,
		wallet.KeyDiamonds:     b.Diamonds,
	} {
		if err := r.store.Set(key, strconv.Itoa(v)); err != nil {
			return fmt.Errorf("exporting balances: %w", err)
		}
	}
	return nil
}
