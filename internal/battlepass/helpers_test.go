package battlepass

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cardastika/battlepass/internal/catalog"
	"github.com/cardastika/battlepass/internal/items"
	"github.com/cardastika/battlepass/internal/kv"
	"github.com/cardastika/battlepass/internal/wallet"
)

const testCatalogYAML = `
exchange: [4, 10]
tiers:
  - tier: 10
    free: {type: silver, amount: 50}
    vip: {type: gold, amount: 5}
  - tier: 20
    free: {type: diamonds, amount: 30}
    vip: {type: item, amount: 2, item_id: stone_shield, item_name: Stone Shield}
  - tier: 30
    vip: {type: silver, amount: 10}
`

var testStart = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingNotifier struct {
	wallets []wallet.Balances
	views   []View
}

func (n *recordingNotifier) NotifyWalletChanged(b wallet.Balances) { n.wallets = append(n.wallets, b) }
func (n *recordingNotifier) NotifyStateChanged(v View)             { n.views = append(n.views, v) }

type fixture struct {
	store    *kv.Memory
	wallet   *wallet.Bridge
	items    *items.Ledger
	clock    *testClock
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := kv.NewMemory()
	return &fixture{
		store:    store,
		wallet:   wallet.NewBridge(store, nil),
		items:    items.NewLedger(store),
		clock:    &testClock{t: testStart},
		notifier: &recordingNotifier{},
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("parsing test catalog: %v", err)
	}
	return c
}

func (f *fixture) setDiamonds(t *testing.T, n int) {
	t.Helper()
	b := f.wallet.Read()
	b.Diamonds = n
	if err := f.wallet.Write(b); err != nil {
		t.Fatal(err)
	}
}

// putState stores a raw state record with a season that ends in a day.
func (f *fixture) putState(t *testing.T, progress, tracked int, vip bool) {
	t.Helper()
	raw := fmt.Sprintf(`{"version":1,"cycle":1,"progress":%d,"vip":%t,"claimed":{},"trackedDiamonds":%d,"seasonEndsAt":%d}`,
		progress, vip, tracked, f.clock.Now().Add(24*time.Hour).UnixMilli())
	if err := f.store.Set(StateKey, raw); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) ledger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(NewKVRepository(f.store, f.wallet, f.items), testCatalog(t), Options{
		Notifier:  f.notifier,
		Formatter: NewFormatter("en"),
		Clock:     f.clock.Now,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return l
}

var errDiskFull = errors.New("disk full")

// faultyRepo fails item grants and wallet writes on demand. walletOK
// wallet writes succeed before walletErr kicks in.
type faultyRepo struct {
	*KVRepository
	itemErr   error
	walletErr error
	walletOK  int
}

func (r *faultyRepo) WriteWallet(b wallet.Balances) error {
	if r.walletErr != nil {
		if r.walletOK == 0 {
			return r.walletErr
		}
		r.walletOK--
	}
	return r.KVRepository.WriteWallet(b)
}

func (r *faultyRepo) GrantItem(id, name string, amount int, at time.Time) error {
	if r.itemErr != nil {
		return r.itemErr
	}
	return r.KVRepository.GrantItem(id, name, amount, at)
}

func (f *fixture) faultyLedger(t *testing.T) (*Ledger, *faultyRepo) {
	t.Helper()
	repo := &faultyRepo{KVRepository: NewKVRepository(f.store, f.wallet, f.items)}
	l, err := New(repo, testCatalog(t), Options{
		Notifier:  f.notifier,
		Formatter: NewFormatter("en"),
		Clock:     f.clock.Now,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return l, repo
}
