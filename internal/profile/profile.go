// Package profile wires one player's data directory into a ready Ledger:
// the shared key/value file, accounts, wallet, item ledger and catalog.
package profile

import (
	"fmt"
	"log"
	"time"

	"github.com/cardastika/battlepass/internal/account"
	"github.com/cardastika/battlepass/internal/battlepass"
	"github.com/cardastika/battlepass/internal/catalog"
	"github.com/cardastika/battlepass/internal/config"
	"github.com/cardastika/battlepass/internal/items"
	"github.com/cardastika/battlepass/internal/kv"
	"github.com/cardastika/battlepass/internal/wallet"
)

// Profile holds every component of an opened player profile.
type Profile struct {
	Config   *config.Config
	Store    *kv.File
	Accounts *account.Registry
	// Wallet is for writes made outside the battle pass, e.g. admin grants.
	// They are reported to the notifier's NotifyWalletChanged; the ledger
	// reports its own writes.
	Wallet *wallet.Bridge
	Items  *items.Ledger
	Format *battlepass.Formatter
	Ledger *battlepass.Ledger
}

// Open loads the catalog and opens the profile under cfg.DataDir. notifier
// may be nil.
func Open(cfg *config.Config, notifier battlepass.Notifier) (*Profile, error) {
	return OpenAt(cfg, notifier, nil)
}

// OpenAt is Open with the ledger reading time from clock. A nil clock uses
// time.Now.
func OpenAt(cfg *config.Config, notifier battlepass.Notifier, clock func() time.Time) (*Profile, error) {
	cat := catalog.Default()
	if cfg.Catalog != "" {
		var err error
		if cat, err = catalog.Load(cfg.Catalog); err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		log.Printf("[profile] catalog %s: %d tiers", cfg.Catalog, len(cat.Tiers))
	}

	store := kv.OpenFile(cfg.StorePath())
	accounts := account.NewRegistry(store)
	p := &Profile{
		Config:   cfg,
		Store:    store,
		Accounts: accounts,
		Wallet:   wallet.NewBridge(store, accounts),
		Items:    items.NewLedger(store),
		Format:   battlepass.NewFormatter(cfg.Locale),
	}

	if notifier != nil {
		p.Wallet.OnWrite(notifier.NotifyWalletChanged)
	}

	l, err := battlepass.New(
		battlepass.NewKVRepository(store, wallet.NewBridge(store, accounts), p.Items),
		cat,
		battlepass.Options{
			VIPPrice:  cfg.VIPPrice,
			Notifier:  notifier,
			Formatter: p.Format,
			Clock:     clock,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("opening battle pass: %w", err)
	}
	p.Ledger = l
	return p, nil
}

// NewPoller schedules the profile's background sync and watch jobs.
func (p *Profile) NewPoller() (*battlepass.Poller, error) {
	return battlepass.NewPoller(p.Ledger, p.Store, p.Config.SyncInterval, p.Config.WatchInterval)
}

// SwitchAccount activates name, copying its balances into the wallet, and
// rebases the battle pass so the swapped-in diamonds are not counted as
// earnings.
func (p *Profile) SwitchAccount(name string) (*account.Account, error) {
	acc, err := p.Accounts.SetActive(name)
	if err != nil {
		return nil, err
	}
	if err := p.Ledger.Rebase(); err != nil {
		return acc, fmt.Errorf("rebasing battle pass: %w", err)
	}
	return acc, nil
}

// ActiveName returns the active account's name, or "".
func (p *Profile) ActiveName() string {
	if acc, ok := p.Accounts.Active(); ok {
		return acc.Name
	}
	return ""
}
