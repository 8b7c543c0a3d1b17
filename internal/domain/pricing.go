package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces — точность хранения денежных сумм.
const MoneyPlaces = 2

// MaxMoneyAmount — наибольшая сумма, умещающаяся в NUMERIC(18, 2).
var MaxMoneyAmount = decimal.RequireFromString("9999999999999999.99")

// PricedLine связывает количество позиции с ценой и налогом товара.
type PricedLine struct {
	Quantity int32
	Product  Product
}

// Totals — производные суммы заказа.
type Totals struct {
	TotalAmount     decimal.Decimal
	DiscountedTotal decimal.Decimal
}

// LineAmount считает стоимость позиции с налогом без округления.
func LineAmount(line PricedLine) decimal.Decimal {
	taxFactor := decimal.NewFromInt(1).Add(line.Product.TaxPercentage.Div(hundred))
	return decimal.NewFromInt32(line.Quantity).Mul(line.Product.Price).Mul(taxFactor)
}

// CalculateTotals считает итог заказа и итог со скидкой.
// Сумма накапливается точно и округляется только в конце; итог со скидкой
// считается от уже округлённого итога.
func CalculateTotals(discountPercentage decimal.Decimal, lines []PricedLine) Totals {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineAmount(line))
	}
	total = total.Round(MoneyPlaces)

	discountFactor := decimal.NewFromInt(1).Sub(discountPercentage.Div(hundred))
	discounted := total.Mul(discountFactor).Round(MoneyPlaces)

	return Totals{TotalAmount: total, DiscountedTotal: discounted}
}

// Reprice пересчитывает итоги заказа по текущим ценам товаров.
// Возвращает ErrProductNotFound, если для позиции нет товара, и ValidationError
// с ErrOrderTotalTooLarge, если итог не умещается в MaxMoneyAmount.
func (o *Order) Reprice(products map[int64]Product) error {
	lines := make([]PricedLine, 0, len(o.Items))
	for _, item := range o.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return fmt.Errorf("%w: id=%d", ErrProductNotFound, item.ProductID)
		}
		lines = append(lines, PricedLine{Quantity: item.Quantity, Product: product})
	}

	totals := CalculateTotals(o.DiscountPercentage, lines)
	if totals.TotalAmount.GreaterThan(MaxMoneyAmount) {
		return NewValidationError(ErrOrderTotalTooLarge)
	}
	o.TotalAmount = totals.TotalAmount
	o.DiscountedTotal = totals.DiscountedTotal
	return nil
}
