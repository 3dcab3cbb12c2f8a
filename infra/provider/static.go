package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/provider"
	"github.com/shopspring/decimal"
)

// Static is an in-memory rate source seeded with fixed prices. It serves
// development environments and tests where no external feed is wired.
type Static struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewStatic returns a Static seeded with a small set of indicative prices.
func NewStatic() *Static {
	s := &Static{rates: make(map[string]decimal.Decimal)}
	seed := map[string]string{
		"USD/EUR":  "0.92",
		"USD/GBP":  "0.79",
		"USD/NGN":  "1510",
		"BTC/USD":  "95000",
		"ETH/USD":  "3300",
		"USDT/USD": "1.0",
	}
	for pair, price := range seed {
		s.rates[pair] = decimal.RequireFromString(price)
	}
	return s
}

// SetRate installs or replaces a price for a pair.
func (s *Static) SetRate(base, quote currency.Code, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[pairKey(base, quote)] = price
}

// GetRate implements provider.RateSource. It resolves direct pairs first,
// then the inverse pair.
func (s *Static) GetRate(
	ctx context.Context,
	base, quote currency.Code,
) (*provider.RateInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if price, ok := s.rates[pairKey(base, quote)]; ok {
		return s.info(base, quote, price), nil
	}
	if inverse, ok := s.rates[pairKey(quote, base)]; ok && inverse.IsPositive() {
		return s.info(base, quote, decimal.NewFromInt(1).DivRound(inverse, 18)), nil
	}
	return nil, fmt.Errorf("no static rate for %s/%s", base, quote)
}

// Name implements provider.RateSource.
func (s *Static) Name() string { return "static" }

// IsHealthy implements provider.RateSource.
func (s *Static) IsHealthy() bool { return true }

func (s *Static) info(base, quote currency.Code, price decimal.Decimal) *provider.RateInfo {
	return &provider.RateInfo{
		Base:      base,
		Quote:     quote,
		Price:     price,
		Source:    s.Name(),
		Timestamp: time.Now().UTC(),
	}
}

func pairKey(base, quote currency.Code) string {
	return string(base) + "/" + string(quote)
}
