// Package pricing computes spread-adjusted execution prices and
// transaction commissions. It is pure computation over a policy table;
// the only I/O is the fee-policy lookup, performed fresh on every call so
// live policy changes take effect immediately.
package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/repository"
	"github.com/shopspring/decimal"
)

// Side is the direction of a conversion from the platform's view.
type Side string

// Conversion sides. A swap away from currency A is a SELL of A.
const (
	SideSell Side = "SELL"
	SideBuy  Side = "BUY"
)

// Operation types under which commissions are filed in the policy table.
const (
	OpSwap       = "SWAP"
	OpTransfer   = "TRANSFER"
	OpWithdrawal = "WITHDRAWAL"
)

// SpreadResult is the outcome of applying the spread policy to a market
// price.
type SpreadResult struct {
	MarketPrice      decimal.Decimal
	FinalPrice       decimal.Decimal
	SpreadAmount     decimal.Decimal // per unit of base currency
	SpreadPercentage decimal.Decimal
}

// CommissionResult is the fee charged on a transacted amount.
type CommissionResult struct {
	Fee  decimal.Decimal
	Rate decimal.Decimal
}

// defaultSpreads is the per-tier spread table; higher tiers get a smaller
// percentage.
var defaultSpreads = map[domain.UserTier]decimal.Decimal{
	domain.TierStandard: decimal.RequireFromString("0.005"),
	domain.TierSilver:   decimal.RequireFromString("0.004"),
	domain.TierGold:     decimal.RequireFromString("0.003"),
	domain.TierPlatinum: decimal.RequireFromString("0.002"),
}

// tierFeeMultipliers discount the commission rate by tier.
var tierFeeMultipliers = map[domain.UserTier]decimal.Decimal{
	domain.TierStandard: decimal.NewFromInt(1),
	domain.TierSilver:   decimal.RequireFromString("0.9"),
	domain.TierGold:     decimal.RequireFromString("0.8"),
	domain.TierPlatinum: decimal.RequireFromString("0.7"),
}

// Policy evaluates spread and commission for wallet operations.
type Policy struct {
	fees    repository.FeePolicyRepository
	spreads map[domain.UserTier]decimal.Decimal
	logger  *slog.Logger
}

// New creates a pricing policy backed by the given fee-policy table.
// A nil spread table falls back to the built-in defaults.
func New(
	fees repository.FeePolicyRepository,
	spreads map[domain.UserTier]decimal.Decimal,
	logger *slog.Logger,
) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	if spreads == nil {
		spreads = defaultSpreads
	}
	return &Policy{fees: fees, spreads: spreads, logger: logger}
}

// SpreadFor returns the spread percentage applied to the tier.
func (p *Policy) SpreadFor(tier domain.UserTier) decimal.Decimal {
	if pct, ok := p.spreads[tier]; ok {
		return pct
	}
	return p.spreads[domain.TierStandard]
}

// ComputeSpread applies the tier's spread to a market price.
// SELL side: finalPrice = marketPrice - marketPrice*spreadPct, so the user
// receives slightly less than market per unit sold. BUY side adds the
// spread instead.
func (p *Policy) ComputeSpread(
	side Side,
	marketPrice decimal.Decimal,
	tier domain.UserTier,
) (*SpreadResult, error) {
	if !marketPrice.IsPositive() {
		return nil, fmt.Errorf("%w: market price %s", domain.ErrRateUnavailable, marketPrice)
	}

	pct := p.SpreadFor(tier)
	spread := marketPrice.Mul(pct)

	var final decimal.Decimal
	switch side {
	case SideBuy:
		final = marketPrice.Add(spread)
	default:
		final = marketPrice.Sub(spread)
	}

	return &SpreadResult{
		MarketPrice:      marketPrice,
		FinalPrice:       final,
		SpreadAmount:     spread,
		SpreadPercentage: pct,
	}, nil
}

// ComputeCommission charges the policy-table fee on the amount, clamped to
// the policy's [MinFee, MaxFee] band. The tier discounts the percentage
// rate; flat fees are charged as configured.
//
// Fails with domain.ErrInsufficientAmount when the fee would consume the
// entire amount.
func (p *Policy) ComputeCommission(
	ctx context.Context,
	operationType string,
	amount decimal.Decimal,
	code currency.Code,
	tier domain.UserTier,
) (*CommissionResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, amount)
	}

	policy, err := p.fees.Get(ctx, operationType, code)
	if err != nil {
		return nil, fmt.Errorf("fee policy lookup for %s/%s: %w", operationType, code, err)
	}

	rate := policy.Rate
	var fee decimal.Decimal
	if rate.IsPositive() {
		mult, ok := tierFeeMultipliers[tier]
		if !ok {
			mult = tierFeeMultipliers[domain.TierStandard]
		}
		rate = rate.Mul(mult)
		fee = amount.Mul(rate)
	} else {
		fee = policy.FlatFee
	}

	// Clamp to the configured band. A zero MaxFee means no upper bound.
	if fee.LessThan(policy.MinFee) {
		fee = policy.MinFee
	}
	if policy.MaxFee.IsPositive() && fee.GreaterThan(policy.MaxFee) {
		fee = policy.MaxFee
	}

	if fee.GreaterThanOrEqual(amount) {
		p.logger.Warn("commission consumes entire amount",
			"operation", operationType,
			"currency", code,
			"amount", amount,
			"fee", fee,
		)
		return nil, fmt.Errorf("%w: fee %s on amount %s",
			domain.ErrInsufficientAmount, fee, amount)
	}

	return &CommissionResult{Fee: fee, Rate: rate}, nil
}
