// Package currency defines currency codes and per-currency precision
// metadata used across the wallet.
package currency

import "fmt"

// Code is a short uppercase currency code (e.g. "USD", "BTC", "NGN").
// Fiat codes follow ISO 4217; crypto codes follow common exchange tickers.
type Code string

// Common currency codes.
const (
	USD  Code = "USD"
	EUR  Code = "EUR"
	GBP  Code = "GBP"
	NGN  Code = "NGN"
	BTC  Code = "BTC"
	ETH  Code = "ETH"
	USDT Code = "USDT"
)

// ErrInvalidCode is returned when a currency code fails validation.
var ErrInvalidCode = fmt.Errorf("invalid currency code")

// decimals maps known currencies to their fractional precision.
// Crypto-scale currencies settle at 8 decimal places; unknown codes
// default to 2.
var decimals = map[Code]int32{
	USD:  2,
	EUR:  2,
	GBP:  2,
	NGN:  2,
	BTC:  8,
	ETH:  8,
	USDT: 8,
}

// String returns the code as a plain string.
func (c Code) String() string { return string(c) }

// IsValid reports whether the code is a plausible currency code:
// 2 to 5 uppercase ASCII letters.
func (c Code) IsValid() bool {
	if len(c) < 2 || len(c) > 5 {
		return false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

// Decimals returns the fractional precision for the currency.
func (c Code) Decimals() int32 {
	if d, ok := decimals[c]; ok {
		return d
	}
	return 2
}

// Parse validates a raw string and returns it as a Code.
func Parse(raw string) (Code, error) {
	c := Code(raw)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, raw)
	}
	return c, nil
}
