// Package items keeps the magic-item ledger: how many of each item the
// player has been granted.
package items

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/cardastika/battlepass/internal/coerce"
	"github.com/cardastika/battlepass/internal/kv"
	"github.com/gosimple/slug"
)

// Key is the kv slot holding the ledger.
const Key = "cardastika:magicItems"

const fallbackID = "bp_item"

// Entry is one ledger line.
type Entry struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	UpdatedAt int64  `json:"updatedAt"` // epoch ms
}

// Item is an Entry with its id, as returned by All.
type Item struct {
	ID string
	Entry
}

// Ledger reads and writes the item map in a kv.Store.
type Ledger struct {
	store kv.Store
}

// NewLedger returns a Ledger backed by store.
func NewLedger(store kv.Store) *Ledger {
	return &Ledger{store: store}
}

// idSeparators become underscores in derived ids, alongside whitespace.
var idSeparators = map[rune]string{'-': "_", '/': "_"}

// ItemID derives a stable id from a display name for rewards that do not
// carry an explicit id. Latin and Ukrainian letters are kept as they are,
// not transliterated, so ids match saves written by the web client.
func ItemID(name string) string {
	lower := slug.SubstituteRune(strings.ToLower(strings.TrimSpace(name)), idSeparators)
	id := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case idRune(r):
			return r
		}
		return -1
	}, lower)
	for strings.Contains(id, "__") {
		id = strings.ReplaceAll(id, "__", "_")
	}
	id = strings.Trim(id, "_")
	if id == "" {
		return fallbackID
	}
	return id
}

func idRune(r rune) bool {
	switch {
	case r == '_', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r >= 'а' && r <= 'я':
		return true
	}
	return strings.ContainsRune("іїєґ", r)
}

// read decodes the ledger. Entries may be objects or, in old saves, bare
// counts; anything unreadable is dropped.
func (l *Ledger) read() map[string]Entry {
	out := make(map[string]Entry)
	raw, ok := l.store.Get(Key)
	if !ok {
		return out
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return out
	}
	for id, v := range decoded {
		switch x := v.(type) {
		case float64, string:
			out[id] = Entry{Name: id, Count: max(0, coerce.Int(x, 0))}
		case map[string]any:
			name, _ := x["name"].(string)
			if name == "" {
				name = id
			}
			out[id] = Entry{
				Name:      name,
				Count:     max(0, coerce.Int(x["count"], 0)),
				UpdatedAt: int64(coerce.Int(x["updatedAt"], 0)),
			}
		}
	}
	return out
}

// Add grants amount (at least one) of the item, preserving the prior count.
// An empty id is derived from name; an empty name defaults to the id.
func (l *Ledger) Add(id, name string, amount int, at time.Time) (Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = ItemID(name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}

	all := l.read()
	e := Entry{
		Name:      name,
		Count:     all[id].Count + max(1, amount),
		UpdatedAt: at.UnixMilli(),
	}
	all[id] = e

	data, err := json.Marshal(all)
	if err != nil {
		return Entry{}, fmt.Errorf("marshaling items: %w", err)
	}
	if err := l.store.Set(Key, string(data)); err != nil {
		return Entry{}, fmt.Errorf("saving items: %w", err)
	}
	return e, nil
}

// Count returns how many of id the player owns.
func (l *Ledger) Count(id string) int {
	return l.read()[id].Count
}

// All returns every ledger entry sorted by id.
func (l *Ledger) All() []Item {
	all := l.read()
	out := make([]Item, 0, len(all))
	for id, e := range all {
		out = append(out, Item{ID: id, Entry: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Owned returns how many distinct items have a positive count.
func (l *Ledger) Owned() int {
	n := 0
	for _, e := range l.read() {
		if e.Count > 0 {
			n++
		}
	}
	return n
}
