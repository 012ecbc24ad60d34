package domain

import "github.com/shopspring/decimal"

// LineTotal is quantity times unit price. It is not rounded; only the
// accumulated total of a purchase or sale is rounded to cents.
func LineTotal(quantity int64, unit float64) decimal.Decimal {
	return decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(quantity))
}

func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
