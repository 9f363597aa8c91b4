package models

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places kept for every ledger amount.
const AmountScale = 8

// RoundAmount snaps a float to AmountScale decimals.
func RoundAmount(v float64) float64 {
	return decimal.NewFromFloat(v).Round(AmountScale).InexactFloat64()
}

// AddAmounts sums in decimal and rounds the result, so 0.3 - 0.1 is exactly 0.2.
func AddAmounts(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(AmountScale).InexactFloat64()
}

// Covers reports whether balance can pay amount once both are rounded.
func Covers(balance, amount float64) bool {
	return decimal.NewFromFloat(balance).Round(AmountScale).
		GreaterThanOrEqual(decimal.NewFromFloat(amount).Round(AmountScale))
}
