// Package money holds the settlement rounding rule.
//
// Amounts are fixed-point decimals (shopspring/decimal) throughout the
// ledger; binary floating point never touches a balance. Settled amounts
// are rounded to SettlementScale fractional digits using
// round-half-away-from-zero, which equals round-half-up for the
// non-negative amounts handled here.
package money

import "github.com/shopspring/decimal"

// SettlementScale is the fractional precision every settled amount is
// rounded to. 8 digits covers crypto-scale amounts.
const SettlementScale int32 = 8

// Round8 rounds d to SettlementScale fractional digits.
func Round8(d decimal.Decimal) decimal.Decimal {
	return d.Round(SettlementScale)
}
