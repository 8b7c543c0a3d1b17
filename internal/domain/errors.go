package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound — базовая ошибка отсутствующей сущности; конкретные ошибки оборачивают её.
	ErrNotFound = errors.New("not found")
	// ErrProductNotFound возвращается, если товар не найден в хранилище.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	// ErrCustomerNotFound возвращается, если клиент не найден в хранилище.
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)

	// ErrDuplicateProduct — товар с таким ID или именем уже существует.
	ErrDuplicateProduct = errors.New("duplicate product")
	// ErrProductInUse — товар нельзя удалить, пока на него ссылаются позиции заказов.
	ErrProductInUse = errors.New("product is referenced by order details")
	// ErrDuplicateCustomer — клиент с таким ID уже существует.
	ErrDuplicateCustomer = errors.New("duplicate customer")
	// ErrDuplicateOrder — заказ с таким ID уже существует.
	ErrDuplicateOrder = errors.New("duplicate order")

	// ErrValidation — базовая ошибка валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// Ошибки валидации полей товара.
	ErrProductNameInvalid   = errors.New("product name must be 3-100 characters")
	ErrProductPriceInvalid  = errors.New("product price must be greater than zero")
	ErrProductPriceTooLarge = errors.New("product price must not exceed 9999999999999999.99")
	ErrProductTaxInvalid    = errors.New("product tax percentage must be within 0-100")

	// Ошибки валидации полей клиента.
	ErrCustomerRequired    = errors.New("customer id or name is required")
	ErrCustomerIDInvalid   = errors.New("customer id must be a valid uuid")
	ErrCustomerNameInvalid = errors.New("customer name must be 2-100 characters")

	// Ошибки валидации заказа.
	ErrDiscountInvalid   = errors.New("discount percentage must be within 0-100")
	ErrItemsRequired     = errors.New("order must contain at least one item")
	ErrItemQtyInvalid    = errors.New("item quantity must be at least 1")
	ErrItemProductNeeded = errors.New("item product id is required")
	ErrIDMismatch        = errors.New("path id does not match body id")

	// ErrOrderTotalTooLarge — итог заказа не умещается в хранимую точность сумм.
	ErrOrderTotalTooLarge = errors.New("order total must not exceed 9999999999999999.99")
)

// ValidationError агрегирует все найденные замечания к входным данным.
type ValidationError struct {
	Problems []error
}

// NewValidationError возвращает *ValidationError или nil, если замечаний нет.
func NewValidationError(problems ...error) error {
	filtered := make([]error, 0, len(problems))
	for _, p := range problems {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &ValidationError{Problems: filtered}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

// Unwrap позволяет проверять как ErrValidation, так и конкретные замечания через errors.Is.
func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrValidation}, e.Problems...)
}

// IsNotFound проверяет, относится ли ошибка к отсутствующей сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict проверяет, является ли ошибка конфликтом уникальности или ссылочной целостности.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateProduct) ||
		errors.Is(err, ErrProductInUse) ||
		errors.Is(err, ErrDuplicateCustomer) ||
		errors.Is(err, ErrDuplicateOrder)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsClientError сообщает, что ошибка вызвана входными данными, а не сбоем инфраструктуры.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsConflict(err) || IsValidation(err)
}
