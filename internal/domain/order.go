package domain

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem представляет одну позицию заказа (OrderDetail).
type OrderItem struct {
	// ID позиции назначается сервером.
	ID      string
	OrderID string
	// ProductID ссылается на товар; товар не принадлежит заказу.
	ProductID int64
	Quantity  int32
}

// Order агрегирует заказ, его клиента и позиции.
type Order struct {
	ID                 string
	OrderDate          time.Time
	DiscountPercentage decimal.Decimal
	Customer           Customer
	TotalAmount        decimal.Decimal
	DiscountedTotal    decimal.Decimal
	Items              []OrderItem
}

// Normalize округляет скидку до точности хранения и приводит ссылку на клиента
// к каноничному виду.
func (o *Order) Normalize() {
	o.DiscountPercentage = o.DiscountPercentage.Round(MoneyPlaces)
	o.Customer.ID = strings.TrimSpace(o.Customer.ID)
	if id, err := uuid.Parse(o.Customer.ID); err == nil {
		o.Customer.ID = id.String()
	}
	o.Customer.Name = strings.TrimSpace(o.Customer.Name)
}

// Validate проверяет входные данные заказа до обращения к хранилищу.
func (o *Order) Validate() []error {
	var errs []error

	if o.DiscountPercentage.IsNegative() || o.DiscountPercentage.GreaterThan(hundred) {
		errs = append(errs, ErrDiscountInvalid)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, item := range o.Items {
		if item.ProductID <= 0 {
			errs = append(errs, ErrItemProductNeeded)
			break
		}
	}
	for _, item := range o.Items {
		if item.Quantity < 1 {
			errs = append(errs, ErrItemQtyInvalid)
			break
		}
	}

	return errs
}

// ProductIDs возвращает уникальные идентификаторы товаров, на которые ссылается заказ.
func (o *Order) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(o.Items))
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// ReferencesProduct сообщает, есть ли в заказе позиция с указанным товаром.
func (o *Order) ReferencesProduct(productID int64) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Clone возвращает копию заказа с независимым срезом позиций.
func (o Order) Clone() Order {
	if o.Items != nil {
		items := make([]OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

// MergeItems объединяет позиции с одинаковым товаром, суммируя количество.
// Результат отсортирован по ProductID; идентификаторы позиций сбрасываются.
func MergeItems(items []OrderItem) ([]OrderItem, error) {
	sums := make(map[int64]int64, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, ErrItemQtyInvalid
		}
		sums[item.ProductID] += int64(item.Quantity)
	}

	merged := make([]OrderItem, 0, len(sums))
	for productID, qty := range sums {
		if qty > math.MaxInt32 {
			return nil, ErrItemQtyInvalid
		}
		merged = append(merged, OrderItem{ProductID: productID, Quantity: int32(qty)})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })

	return merged, nil
}
