package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/shopspring/decimal"
)

// RevenueKind distinguishes the platform's earning sources.
type RevenueKind string

// Revenue kinds.
const (
	RevenueCommission RevenueKind = "COMMISSION"
	RevenueSpread     RevenueKind = "SPREAD"
)

// RevenueEntry records platform earnings separately from user-facing
// transactions, attributed to the source transaction for audit.
// Entries are created alongside the transaction rows and never mutated.
type RevenueEntry struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	Kind                RevenueKind
	Amount              decimal.Decimal
	Currency            currency.Code
	SourceTransactionID uuid.UUID
	CreatedAt           time.Time
}
