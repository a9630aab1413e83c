package battlepass

import (
	"fmt"
	"time"

	"github.com/cardastika/battlepass/internal/items"
	"github.com/cardastika/battlepass/internal/kv"
	"github.com/cardastika/battlepass/internal/wallet"
)

// Repository is everything the ledger persists. LoadState returns nil bytes
// when nothing has been saved yet.
type Repository interface {
	LoadState() ([]byte, error)
	SaveState([]byte) error
	ReadWallet() wallet.Balances
	WriteWallet(wallet.Balances) error
	GrantItem(id, name string, amount int, at time.Time) error
}

// KVRepository stores the ledger in a kv.Store next to the wallet and the
// magic-item ledger.
type KVRepository struct {
	store  kv.Store
	wallet *wallet.Bridge
	items  *items.Ledger
}

// NewKVRepository wires a repository over store. The wallet bridge and item
// ledger are expected to share the same store.
func NewKVRepository(store kv.Store, w *wallet.Bridge, it *items.Ledger) *KVRepository {
	return &KVRepository{store: store, wallet: w, items: it}
}

func (r *KVRepository) LoadState() ([]byte, error) {
	raw, ok := r.store.Get(StateKey)
	if !ok {
		return nil, nil
	}
	return []byte(raw), nil
}

func (r *KVRepository) SaveState(data []byte) error {
	if err := r.store.Set(StateKey, string(data)); err != nil {
		return fmt.Errorf("saving battle pass state: %w", err)
	}
	return nil
}

func (r *KVRepository) ReadWallet() wallet.Balances {
	return r.wallet.Read()
}

func (r *KVRepository) WriteWallet(b wallet.Balances) error {
	return r.wallet.Write(b)
}

func (r *KVRepository) GrantItem(id, name string, amount int, at time.Time) error {
	_, err := r.items.Add(id, name, amount, at)
	return err
}
