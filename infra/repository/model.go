package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the database record for one (user, currency) balance.
// Balances are fixed-point decimals; the database column is wide enough
// for crypto-scale precision.
type Wallet struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_wallets_user_currency"`
	Currency         string          `gorm:"type:varchar(5);not null;uniqueIndex:idx_wallets_user_currency"`
	Balance          decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	AvailableBalance decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	Frozen           bool            `gorm:"not null;default:false"`
	Address          string          `gorm:"type:varchar(128);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for the Wallet model.
func (Wallet) TableName() string { return "wallets" }

// Transaction is the database record for one balance movement. The unique
// index on (reference_id, direction) enforces idempotency durably: a
// retried swap cannot write a second OUT row for the same key.
type Transaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	WalletID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Category    string          `gorm:"type:varchar(16);not null"`
	Direction   string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_tx_reference_direction"`
	Amount      decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	Currency    string          `gorm:"type:varchar(5);not null"`
	Fee         decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	Status      string          `gorm:"type:varchar(12);not null"`
	ReferenceID string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_tx_reference_direction"`
	CreatedAt   time.Time

	// Swap metadata (set when category is SWAP).
	CounterpartCurrency *string          `gorm:"type:varchar(5)"`
	MarketPrice         *decimal.Decimal `gorm:"type:decimal(38,18)"`
	FinalPrice          *decimal.Decimal `gorm:"type:decimal(38,18)"`
	SpreadAmount        *decimal.Decimal `gorm:"type:decimal(38,18)"`
	SpreadPercentage    *decimal.Decimal `gorm:"type:decimal(38,18)"`
	CommissionRate      *decimal.Decimal `gorm:"type:decimal(38,18)"`

	// Transfer metadata (set when category is TRANSFER).
	CounterpartUserID   *uuid.UUID `gorm:"type:uuid"`
	CounterpartWalletID *uuid.UUID `gorm:"type:uuid"`

	// Withdrawal metadata (set when category is WITHDRAWAL).
	Destination *string `gorm:"type:varchar(256)"`

	// Deposit metadata (set when category is DEPOSIT).
	PaymentReference *string `gorm:"type:varchar(128)"`
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }

// RevenueEntry is the database record for platform earnings.
type RevenueEntry struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind                string          `gorm:"type:varchar(12);not null"`
	Amount              decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	Currency            string          `gorm:"type:varchar(5);not null"`
	SourceTransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreatedAt           time.Time
}

// TableName specifies the table name for the RevenueEntry model.
func (RevenueEntry) TableName() string { return "revenue_entries" }

// FeePolicy is one row of the commission policy table.
type FeePolicy struct {
	ID            uint            `gorm:"primaryKey"`
	OperationType string          `gorm:"type:varchar(16);not null;uniqueIndex:idx_fee_policy_op_currency"`
	Currency      string          `gorm:"type:varchar(5);not null;uniqueIndex:idx_fee_policy_op_currency"`
	Rate          decimal.Decimal `gorm:"type:decimal(12,8);not null"`
	FlatFee       decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	MinFee        decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	MaxFee        decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	UpdatedAt     time.Time
}

// TableName specifies the table name for the FeePolicy model.
func (FeePolicy) TableName() string { return "fee_policies" }
