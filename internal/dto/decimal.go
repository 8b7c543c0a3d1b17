package dto

import (
	"github.com/shopspring/decimal"
)

// Decimal — точное десятичное значение, которое сериализуется в JSON числом.
// При чтении принимаются и числа, и строки.
type Decimal struct {
	decimal.Decimal
}

// NewDecimal оборачивает decimal.Decimal.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// MarshalJSON пишет значение без кавычек.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}
