package domain

import "github.com/shopspring/decimal"

const DefaultCurrency = "usd"

// LineTotal sums price*quantity in decimal arithmetic and rounds to cents.
func LineTotal(items []CartItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2).InexactFloat64()
}

// ToMinorUnits converts an amount to the provider's smallest currency unit.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func FromMinorUnits(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}
