package types

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept for monetary amounts
const MoneyPlaces = 2

// RoundMoney quantizes an amount to cents, rounding half away from zero
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// LineSubtotal returns unit price times quantity, quantized to cents
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// ToCents converts an amount to integer minor units after rounding
func ToCents(d decimal.Decimal) int64 {
	return RoundMoney(d).Shift(MoneyPlaces).IntPart()
}

// FromCents converts integer minor units back to an amount
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyPlaces)
}

// WeightedUnitPrice is revenue divided by quantity, quantized to cents.
// A zero quantity yields zero.
func WeightedUnitPrice(revenue decimal.Decimal, quantity int) decimal.Decimal {
	if quantity == 0 {
		return decimal.Zero
	}
	return RoundMoney(revenue.Div(decimal.NewFromInt(int64(quantity))))
}

// FormatMoney renders an amount with exactly two decimals
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}
