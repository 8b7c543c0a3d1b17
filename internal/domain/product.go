package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	productNameMinLen = 3
	productNameMaxLen = 100
)

var hundred = decimal.NewFromInt(100)

// Product описывает товар каталога.
type Product struct {
	// ID назначается хранилищем при создании.
	ID   int64
	Name string
	// Price — цена за единицу без налога.
	Price decimal.Decimal
	// TaxPercentage — ставка налога в процентах (0-100).
	TaxPercentage decimal.Decimal
}

// Normalize приводит поля к каноничному виду перед валидацией и сохранением:
// имя без краевых пробелов, цена и налог с точностью хранения.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Price = p.Price.Round(MoneyPlaces)
	p.TaxPercentage = p.TaxPercentage.Round(MoneyPlaces)
}

// Validate проверяет поля товара и возвращает список замечаний.
func (p *Product) Validate() []error {
	var errs []error

	if n := utf8.RuneCountInString(strings.TrimSpace(p.Name)); n < productNameMinLen || n > productNameMaxLen {
		errs = append(errs, ErrProductNameInvalid)
	}
	switch {
	case !p.Price.IsPositive():
		errs = append(errs, ErrProductPriceInvalid)
	case p.Price.GreaterThan(MaxMoneyAmount):
		errs = append(errs, ErrProductPriceTooLarge)
	}
	if p.TaxPercentage.IsNegative() || p.TaxPercentage.GreaterThan(hundred) {
		errs = append(errs, ErrProductTaxInvalid)
	}

	return errs
}

// SameName сравнивает имена товаров без учёта регистра и краевых пробелов.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
