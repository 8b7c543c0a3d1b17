package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

const orderSelect = `
	SELECT o.order_id, o.order_date, o.discount_percentage, o.total_amount, o.discounted_total,
	       c.customer_id, c.name
	FROM orders o
	JOIN customers c ON c.customer_id = o.customer_id
`

type orderRepository struct {
	q querier
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(r.q.QueryRowContext(ctx, orderSelect+` WHERE o.order_id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, `WHERE order_id = $1`, id)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items[order.ID]

	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	orders, err := r.listOrders(ctx, ``)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, ``)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *orderRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	const byProduct = `o.order_id IN (SELECT order_id FROM order_details WHERE product_id = $1)`

	orders, err := r.listOrders(ctx, `WHERE `+byProduct, productID)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, `WHERE order_id IN (SELECT order_id FROM order_details WHERE product_id = $1)`, productID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return inTx(ctx, r.q, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO orders (
				order_id, order_date, discount_percentage, customer_id, total_amount, discounted_total
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			order.ID, order.OrderDate, order.DiscountPercentage, order.Customer.ID,
			order.TotalAmount, order.DiscountedTotal,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateOrder
			}
			return mapReferenceError(err, "insert order")
		}

		return insertItems(ctx, q, order)
	})
}

func (r *orderRepository) Save(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return inTx(ctx, r.q, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			UPDATE orders
			SET discount_percentage = $1,
			    customer_id = $2,
			    total_amount = $3,
			    discounted_total = $4
			WHERE order_id = $5
		`,
			order.DiscountPercentage, order.Customer.ID, order.TotalAmount, order.DiscountedTotal, order.ID,
		)
		if err != nil {
			return mapReferenceError(err, "update order")
		}
		if err := expectAffected(res, domain.ErrOrderNotFound); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM order_details WHERE order_id = $1`, order.ID); err != nil {
			return fmt.Errorf("clear order details: %w", err)
		}

		return insertItems(ctx, q, order)
	})
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
	if err != nil {
		if isInvalidText(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}
	return expectAffected(res, domain.ErrOrderNotFound)
}

func (r *orderRepository) listOrders(ctx context.Context, where string, args ...any) ([]domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, orderSelect+where+` ORDER BY o.order_date DESC, o.order_id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

// loadItems загружает позиции одним запросом и группирует их по заказу.
func (r *orderRepository) loadItems(ctx context.Context, where string, args ...any) (map[string][]domain.OrderItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT order_detail_id, order_id, product_id, quantity
		FROM order_details
		`+where+`
		ORDER BY order_id ASC, product_id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("load order details: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order detail: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order details: %w", err)
	}

	return items, nil
}

func insertItems(ctx context.Context, q querier, order domain.Order) error {
	for _, item := range order.Items {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO order_details (order_detail_id, order_id, product_id, quantity)
			VALUES ($1,$2,$3,$4)
		`, item.ID, order.ID, item.ProductID, item.Quantity); err != nil {
			return mapReferenceError(err, "insert order detail")
		}
	}
	return nil
}

// mapReferenceError переводит нарушения внешних ключей в доменные ошибки.
func mapReferenceError(err error, op string) error {
	if constraint, ok := foreignKeyViolation(err); ok {
		switch constraint {
		case constraintDetailProductFK:
			return fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
		case constraintOrderCustomerFK:
			return fmt.Errorf("%s: %w", op, domain.ErrCustomerNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID, &o.OrderDate, &o.DiscountPercentage, &o.TotalAmount, &o.DiscountedTotal,
		&o.Customer.ID, &o.Customer.Name,
	); err != nil {
		return domain.Order{}, err
	}
	o.OrderDate = o.OrderDate.UTC()
	return o, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
