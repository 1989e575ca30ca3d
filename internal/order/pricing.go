package order

import "github.com/shopspring/decimal"

// MinorUnits is the number of decimal places persisted for money values.
const MinorUnits = 2

var hundred = decimal.NewFromInt(100)

// EffectivePrice applies a percentage discount to a list price. The result is
// not rounded; callers round once, when the value is persisted.
func EffectivePrice(listPrice, discountPercent decimal.Decimal) decimal.Decimal {
	if !discountPercent.IsPositive() {
		return listPrice
	}
	return listPrice.Mul(decimal.NewFromInt(1).Sub(discountPercent.Div(hundred)))
}

// RoundMoney rounds half away from zero to the currency minor unit.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnits)
}
