// Package repository defines the data-access contracts of the ledger store.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/shopspring/decimal"
)

// WalletRepository is the data-access contract for wallets.
//
// Debit is a guarded decrement: the implementation must re-validate the
// available balance in the same statement that applies the decrement
// (conditional UPDATE), so a balance check performed earlier in the request
// cannot go stale under concurrent swaps draining the same wallet.
// A failed guard surfaces as domain.ErrInsufficientBalance.
type WalletRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByUserAndCurrency(
		ctx context.Context,
		userID uuid.UUID,
		code currency.Code,
	) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Wallet, error)
	Create(ctx context.Context, w *domain.Wallet) error
	Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
}

// TransactionRepository is the data-access contract for the append-only
// transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*domain.Transaction, error)
	// ExistsByReference reports whether any transaction carries the
	// reference id. Used for idempotency rejection before commit; a unique
	// index backs it up inside the commit itself.
	ExistsByReference(ctx context.Context, referenceID string) (bool, error)
}

// RevenueRepository records platform earnings.
type RevenueRepository interface {
	Create(ctx context.Context, entry *domain.RevenueEntry) error
}

// FeePolicy is one row of the commission policy table, keyed by operation
// type and currency.
type FeePolicy struct {
	OperationType string
	Currency      currency.Code
	Rate          decimal.Decimal // fraction of amount, e.g. 0.0025
	FlatFee       decimal.Decimal // charged when Rate is zero
	MinFee        decimal.Decimal
	MaxFee        decimal.Decimal
}

// FeePolicyRepository looks up commission policy. Lookups happen fresh on
// every call so live policy changes take effect immediately.
type FeePolicyRepository interface {
	Get(ctx context.Context, operationType string, code currency.Code) (*FeePolicy, error)
}

// UnitOfWork runs a function inside one transaction boundary; every
// repository obtained from the passed UnitOfWork shares that transaction.
// If the function returns an error the transaction is rolled back and no
// write lands.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	WalletRepository() (WalletRepository, error)
	TransactionRepository() (TransactionRepository, error)
	RevenueRepository() (RevenueRepository, error)
	FeePolicyRepository() (FeePolicyRepository, error)
}
