// Package quote produces swap previews: market price, spread-adjusted
// execution price, commission breakdown, and a time-locked rate
// reservation.
package quote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/lockstore"
	"github.com/obohaghogho/fxwallet/pkg/money"
	"github.com/obohaghogho/fxwallet/pkg/pricing"
	"github.com/obohaghogho/fxwallet/pkg/provider"
	"github.com/shopspring/decimal"
)

const (
	// DefaultLockTTL is how long a quoted price stays redeemable.
	DefaultLockTTL = 30 * time.Second

	// DefaultRateTimeout bounds a single price-feed call. A timeout is
	// treated the same as an unavailable rate.
	DefaultRateTimeout = 5 * time.Second
)

// Service is the quote engine. It consults the rate source and pricing
// policy, and parks the resulting preview in the lock store. It never
// touches the ledger.
type Service struct {
	rates       provider.RateSource
	pricing     *pricing.Policy
	locks       lockstore.Store
	clock       lockstore.Clock
	lockTTL     time.Duration
	rateTimeout time.Duration
	logger      *slog.Logger
}

// Option tweaks a quote service.
type Option func(*Service)

// WithLockTTL overrides the rate lock time-to-live.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) { s.lockTTL = ttl }
}

// WithRateTimeout overrides the price-feed call timeout.
func WithRateTimeout(d time.Duration) Option {
	return func(s *Service) { s.rateTimeout = d }
}

// WithClock injects a clock, for tests.
func WithClock(c lockstore.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// New creates a quote engine.
func New(
	rates provider.RateSource,
	policy *pricing.Policy,
	locks lockstore.Store,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		rates:       rates,
		pricing:     policy,
		locks:       locks,
		clock:       lockstore.SystemClock,
		lockTTL:     DefaultLockTTL,
		rateTimeout: DefaultRateTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LockTTL returns the configured rate lock time-to-live.
func (s *Service) LockTTL() time.Duration { return s.lockTTL }

// Preview quotes a swap and locks the price for one TTL window. The
// returned preview carries the lock id the caller presents at execution.
func (s *Service) Preview(
	ctx context.Context,
	userID uuid.UUID,
	from, to currency.Code,
	amount decimal.Decimal,
	tier domain.UserTier,
) (*domain.SwapPreview, error) {
	preview, err := s.Quote(ctx, userID, from, to, amount, tier)
	if err != nil {
		return nil, err
	}

	preview.LockID = uuid.New()
	preview.ExpiresAt = s.clock.Now().Add(s.lockTTL)
	if err := s.locks.Put(ctx, preview); err != nil {
		return nil, fmt.Errorf("storing rate lock: %w", err)
	}

	s.logger.Info("swap preview locked",
		"user_id", userID,
		"lock_id", preview.LockID,
		"from", from,
		"to", to,
		"amount_in", amount,
		"final_price", preview.FinalPrice,
		"amount_out", preview.AmountOut,
		"expires_at", preview.ExpiresAt,
	)
	return preview, nil
}

// Quote computes a preview without minting a rate lock. The settlement
// executor uses it as the fallback when a caller executes without a lock.
func (s *Service) Quote(
	ctx context.Context,
	userID uuid.UUID,
	from, to currency.Code,
	amount decimal.Decimal,
	tier domain.UserTier,
) (*domain.SwapPreview, error) {
	if !from.IsValid() || !to.IsValid() {
		return nil, fmt.Errorf("%w: %q/%q", currency.ErrInvalidCode, from, to)
	}
	if from == to {
		return nil, domain.ErrSameCurrency
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, amount)
	}

	rate, err := s.fetchRate(ctx, from, to)
	if err != nil {
		return nil, err
	}

	spread, err := s.pricing.ComputeSpread(pricing.SideSell, rate.Price, tier)
	if err != nil {
		return nil, err
	}

	commission, err := s.pricing.ComputeCommission(ctx, pricing.OpSwap, amount, from, tier)
	if err != nil {
		return nil, err
	}

	amountToSwap := amount.Sub(commission.Fee)
	if !amountToSwap.IsPositive() {
		return nil, fmt.Errorf("%w: fee %s on amount %s",
			domain.ErrInsufficientAmount, commission.Fee, amount)
	}

	amountOut := money.Round8(amountToSwap.Mul(spread.FinalPrice))

	return &domain.SwapPreview{
		UserID:           userID,
		FromCurrency:     from,
		ToCurrency:       to,
		AmountIn:         amount,
		MarketPrice:      spread.MarketPrice,
		FinalPrice:       spread.FinalPrice,
		SpreadAmount:     spread.SpreadAmount,
		SpreadPercentage: spread.SpreadPercentage,
		CommissionAmount: commission.Fee,
		CommissionRate:   commission.Rate,
		AmountOut:        amountOut,
	}, nil
}

// fetchRate calls the price feed under a bounded timeout. Any failure,
// including a timeout or a non-positive price, is reported as
// domain.ErrRateUnavailable; a stale or zero price is never substituted.
func (s *Service) fetchRate(
	ctx context.Context,
	from, to currency.Code,
) (*provider.RateInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.rateTimeout)
	defer cancel()

	rate, err := s.rates.GetRate(ctx, from, to)
	if err != nil {
		s.logger.Warn("rate source failed",
			"from", from, "to", to, "source", s.rates.Name(), "error", err)
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrRateUnavailable, from, to)
	}
	if rate == nil || !rate.Price.IsPositive() {
		s.logger.Warn("rate source returned unusable price",
			"from", from, "to", to, "source", s.rates.Name())
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrRateUnavailable, from, to)
	}
	return rate, nil
}
