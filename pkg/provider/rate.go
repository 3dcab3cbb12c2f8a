// Package provider defines boundary contracts for external market data.
package provider

import (
	"context"
	"time"

	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/shopspring/decimal"
)

// RateInfo is a point-in-time price for an ordered currency pair.
type RateInfo struct {
	Base      currency.Code
	Quote     currency.Code
	Price     decimal.Decimal
	Source    string
	Timestamp time.Time
}

// RateSource wraps an external price feed. Implementations must bound
// their own I/O: a hung feed is reported as an error, never an
// indefinite block.
type RateSource interface {
	// GetRate fetches the current market price for the ordered pair.
	GetRate(ctx context.Context, base, quote currency.Code) (*RateInfo, error)

	// Name identifies the source for logging.
	Name() string

	// IsHealthy reports whether the source is currently usable.
	IsHealthy() bool
}
