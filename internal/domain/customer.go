package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	customerNameMinLen = 2
	customerNameMaxLen = 100
)

// Customer описывает покупателя. ID задаётся внешней системой (UUID).
type Customer struct {
	ID   string
	Name string
}

// Validate проверяет поля клиента перед созданием или переименованием.
func (c *Customer) Validate() []error {
	var errs []error

	if _, err := uuid.Parse(c.ID); err != nil {
		errs = append(errs, ErrCustomerIDInvalid)
	}
	if !ValidCustomerName(c.Name) {
		errs = append(errs, ErrCustomerNameInvalid)
	}

	return errs
}

// ValidCustomerName проверяет длину имени клиента.
func ValidCustomerName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= customerNameMinLen && n <= customerNameMaxLen
}
