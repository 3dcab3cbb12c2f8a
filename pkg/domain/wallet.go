package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/shopspring/decimal"
)

// Wallet is one user's balance in one currency.
//
// Invariants:
//   - AvailableBalance <= Balance; both are non-negative.
//   - Currency is immutable after creation.
//   - Wallets are never hard-deleted; a balance may go to zero.
type Wallet struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Currency         currency.Code
	Balance          decimal.Decimal // total balance
	AvailableBalance decimal.Decimal // total minus in-flight reservations
	Frozen           bool
	Address          string // destination address/identifier
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewWallet creates a zero-balance wallet for the user and currency with a
// freshly generated address identifier.
func NewWallet(userID uuid.UUID, code currency.Code) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:               uuid.New(),
		UserID:           userID,
		Currency:         code,
		Balance:          decimal.Zero,
		AvailableBalance: decimal.Zero,
		Address:          NewWalletAddress(code),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewWalletAddress mints an opaque destination identifier for a wallet.
func NewWalletAddress(code currency.Code) string {
	return string(code) + "-" + uuid.NewString()
}

// CanDebit reports whether the wallet can cover the amount from its
// available balance.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return !w.Frozen && w.AvailableBalance.GreaterThanOrEqual(amount)
}
