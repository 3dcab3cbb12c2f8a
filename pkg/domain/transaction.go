package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/shopspring/decimal"
)

// TxCategory classifies a transaction by the operation that produced it.
type TxCategory string

// Transaction categories.
const (
	TxSwap       TxCategory = "SWAP"
	TxTransfer   TxCategory = "TRANSFER"
	TxDeposit    TxCategory = "DEPOSIT"
	TxWithdrawal TxCategory = "WITHDRAWAL"
)

// TxDirection marks which side of a movement a row records.
type TxDirection string

// Transaction directions.
const (
	TxOut TxDirection = "OUT"
	TxIn  TxDirection = "IN"
)

// TxStatus is the settlement state of a transaction.
type TxStatus string

// Transaction statuses. Swaps settle synchronously and are written
// COMPLETED; withdrawal requests are written PENDING until the external
// leg confirms.
const (
	TxCompleted TxStatus = "COMPLETED"
	TxPending   TxStatus = "PENDING"
	TxFailed    TxStatus = "FAILED"
)

// SwapMetadata carries the executed pricing breakdown on swap rows.
type SwapMetadata struct {
	CounterpartCurrency currency.Code   `json:"counterpart_currency"`
	MarketPrice         decimal.Decimal `json:"market_price"`
	FinalPrice          decimal.Decimal `json:"final_price"`
	SpreadAmount        decimal.Decimal `json:"spread_amount"`
	SpreadPercentage    decimal.Decimal `json:"spread_percentage"`
	CommissionRate      decimal.Decimal `json:"commission_rate"`
}

// TransferMetadata identifies the counterpart of an internal transfer.
type TransferMetadata struct {
	CounterpartUserID   uuid.UUID `json:"counterpart_user_id"`
	CounterpartWalletID uuid.UUID `json:"counterpart_wallet_id"`
}

// WithdrawalMetadata records the external destination of a withdrawal.
type WithdrawalMetadata struct {
	Destination string `json:"destination"`
}

// DepositMetadata records the external payment reference of a deposit.
type DepositMetadata struct {
	PaymentReference string `json:"payment_reference"`
}

// Transaction is a durable, append-only record of one balance movement.
// Every swap produces exactly two rows sharing a ReferenceID: an OUT row
// against the source wallet and an IN row against the destination wallet,
// written in the same atomic unit as the balance updates.
//
// Exactly one metadata variant is set, matching Category.
type Transaction struct {
	ID          uuid.UUID
	WalletID    uuid.UUID
	UserID      uuid.UUID
	Category    TxCategory
	Direction   TxDirection
	Amount      decimal.Decimal
	Currency    currency.Code
	Fee         decimal.Decimal
	Status      TxStatus
	ReferenceID string // idempotency correlation; shared by linked rows
	CreatedAt   time.Time

	Swap       *SwapMetadata
	Transfer   *TransferMetadata
	Withdrawal *WithdrawalMetadata
	Deposit    *DepositMetadata
}
