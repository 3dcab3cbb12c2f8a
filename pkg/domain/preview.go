package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/shopspring/decimal"
)

// UserTier grades users for pricing purposes; higher tiers receive a
// smaller spread and discounted commission.
type UserTier string

// User tiers, from least to most favorable pricing.
const (
	TierStandard UserTier = "STANDARD"
	TierSilver   UserTier = "SILVER"
	TierGold     UserTier = "GOLD"
	TierPlatinum UserTier = "PLATINUM"
)

// ParseTier maps a raw string to a tier, defaulting to STANDARD.
func ParseTier(raw string) UserTier {
	switch UserTier(raw) {
	case TierSilver, TierGold, TierPlatinum:
		return UserTier(raw)
	default:
		return TierStandard
	}
}

// SwapPreview is an ephemeral, non-persisted quote for a currency swap.
//
// Invariant: AmountOut = round8((AmountIn - CommissionAmount) * FinalPrice).
// A preview is held in the rate lock store for one TTL window and consumed
// at most once.
type SwapPreview struct {
	LockID           uuid.UUID       `json:"lock_id"`
	UserID           uuid.UUID       `json:"user_id"`
	FromCurrency     currency.Code   `json:"from_currency"`
	ToCurrency       currency.Code   `json:"to_currency"`
	AmountIn         decimal.Decimal `json:"amount_in"`
	MarketPrice      decimal.Decimal `json:"market_price"`
	FinalPrice       decimal.Decimal `json:"final_price"`
	SpreadAmount     decimal.Decimal `json:"spread_amount"`
	SpreadPercentage decimal.Decimal `json:"spread_percentage"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	AmountOut        decimal.Decimal `json:"amount_out"`
	ExpiresAt        time.Time       `json:"expires_at"`
}

// Expired reports whether the preview's lock window has elapsed at now.
func (p *SwapPreview) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// SettlementResult is returned to the caller after a successful swap.
type SettlementResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	FromCurrency  currency.Code   `json:"from_currency"`
	ToCurrency    currency.Code   `json:"to_currency"`
	AmountIn      decimal.Decimal `json:"amount_in"`
	AmountOut     decimal.Decimal `json:"amount_out"`
	Fee           decimal.Decimal `json:"fee"`
	Rate          decimal.Decimal `json:"rate"`
}
