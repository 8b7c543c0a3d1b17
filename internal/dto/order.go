package dto

import (
	"time"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

// OrderDetailDTO — представление позиции заказа.
type OrderDetailDTO struct {
	OrderDetailID string `json:"orderDetailId,omitempty"`
	OrderID       string `json:"orderId,omitempty"`
	ProductID     int64  `json:"productId"`
	Quantity      int32  `json:"quantity"`
}

// OrderDTO — представление заказа в HTTP API.
// При создании и обновлении OrderDate, TotalAmount и DiscountedTotal игнорируются.
type OrderDTO struct {
	OrderID            string           `json:"orderId,omitempty"`
	OrderDate          time.Time        `json:"orderDate"`
	CustomerID         string           `json:"customerId"`
	CustomerName       string           `json:"customerName"`
	DiscountPercentage Decimal          `json:"discountPercentage"`
	OrderDetails       []OrderDetailDTO `json:"orderDetails"`
	TotalAmount        Decimal          `json:"totalAmount"`
	DiscountedTotal    Decimal          `json:"discountedTotal"`
}

// OrderFromDomain строит представление заказа.
func OrderFromDomain(o domain.Order) OrderDTO {
	details := make([]OrderDetailDTO, 0, len(o.Items))
	for _, item := range o.Items {
		details = append(details, OrderDetailDTO{
			OrderDetailID: item.ID,
			OrderID:       o.ID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
		})
	}

	return OrderDTO{
		OrderID:            o.ID,
		OrderDate:          o.OrderDate.UTC(),
		CustomerID:         o.Customer.ID,
		CustomerName:       o.Customer.Name,
		DiscountPercentage: NewDecimal(o.DiscountPercentage),
		OrderDetails:       details,
		TotalAmount:        NewDecimal(o.TotalAmount),
		DiscountedTotal:    NewDecimal(o.DiscountedTotal),
	}
}

// OrdersFromDomain строит представления списка заказов с сохранением порядка.
func OrdersFromDomain(orders []domain.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderFromDomain(o))
	}
	return out
}

// ToDomain переводит входное представление в черновик заказа.
// Суммы и дата не переносятся: их назначает сервис.
func (d OrderDTO) ToDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(d.OrderDetails))
	for _, detail := range d.OrderDetails {
		items = append(items, domain.OrderItem{
			ProductID: detail.ProductID,
			Quantity:  detail.Quantity,
		})
	}

	return domain.Order{
		ID:                 d.OrderID,
		DiscountPercentage: d.DiscountPercentage.Decimal,
		Customer: domain.Customer{
			ID:   d.CustomerID,
			Name: d.CustomerName,
		},
		Items: items,
	}
}
