// Package pricing вычисляет цены позиций и шаги изменения веса.
package pricing

import "github.com/shopspring/decimal"

// MaxWeightKg ограничивает вес позиции на карточке и странице товара.
const MaxWeightKg = 10.0

var hundred = decimal.NewFromInt(100)

// FinalUnitPrice возвращает цену за килограмм с учётом скидки в процентах.
// Нулевая скидка оставляет цену без изменений.
func FinalUnitPrice(unitPrice, discountPercent float64) float64 {
	return finalUnitPrice(unitPrice, discountPercent).Round(2).InexactFloat64()
}

// LineTotal возвращает стоимость позиции: цена со скидкой, умноженная на вес.
func LineTotal(unitPrice, discountPercent, weight float64) float64 {
	return finalUnitPrice(unitPrice, discountPercent).
		Mul(decimal.NewFromFloat(weight)).
		Round(2).
		InexactFloat64()
}

// Sum складывает денежные значения без накопления ошибки округления.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

func finalUnitPrice(unitPrice, discountPercent float64) decimal.Decimal {
	price := decimal.NewFromFloat(unitPrice)
	if discountPercent == 0 {
		return price
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discountPercent).Div(hundred))
	return price.Mul(factor)
}
