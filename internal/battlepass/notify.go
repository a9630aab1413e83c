package battlepass

import (
	"log"

	"github.com/cardastika/battlepass/internal/wallet"
)

// Notifier is told about ledger changes so a front end can refresh. Calls
// happen outside the ledger lock; a panicking notifier is logged and ignored.
type Notifier interface {
	NotifyWalletChanged(wallet.Balances)
	NotifyStateChanged(View)
}

// NopNotifier ignores every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyWalletChanged(wallet.Balances) {}
func (NopNotifier) NotifyStateChanged(View)             {}

// Confirmer asks the player to approve a purchase.
type Confirmer func(prompt string) bool

// AutoConfirm approves every prompt.
func AutoConfirm(string) bool { return true }

func safeNotify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[battlepass] notifier panicked: %v", r)
		}
	}()
	fn()
}
