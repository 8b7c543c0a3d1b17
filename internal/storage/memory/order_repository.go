package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

type orderRepository struct {
	access
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := r.read(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		order = hydrate(st, o)
		return nil
	})
	return order, err
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.collect(ctx, func(domain.Order) bool { return true })
}

func (r *orderRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Order, error) {
	return r.collect(ctx, func(o domain.Order) bool { return o.ReferencesProduct(productID) })
}

func (r *orderRepository) collect(ctx context.Context, match func(domain.Order) bool) ([]domain.Order, error) {
	var result []domain.Order
	err := r.read(ctx, func(st *state) error {
		result = make([]domain.Order, 0, len(st.orders))
		for _, o := range st.orders {
			if match(o) {
				result = append(result, hydrate(st, o))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderDate.Equal(result[j].OrderDate) {
			return result[i].OrderDate.After(result[j].OrderDate)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	return r.write(ctx, func(st *state) error {
		if _, exists := st.orders[order.ID]; exists {
			return domain.ErrDuplicateOrder
		}
		if err := checkReferences(st, order); err != nil {
			return err
		}
		st.orders[order.ID] = dehydrate(order)
		return nil
	})
}

func (r *orderRepository) Save(ctx context.Context, order domain.Order) error {
	return r.write(ctx, func(st *state) error {
		if _, exists := st.orders[order.ID]; !exists {
			return domain.ErrOrderNotFound
		}
		if err := checkReferences(st, order); err != nil {
			return err
		}
		st.orders[order.ID] = dehydrate(order)
		return nil
	})
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	return r.write(ctx, func(st *state) error {
		if _, exists := st.orders[id]; !exists {
			return domain.ErrOrderNotFound
		}
		delete(st.orders, id)
		return nil
	})
}

// checkReferences повторяет внешние ключи реляционной схемы.
func checkReferences(st *state, order domain.Order) error {
	if _, ok := st.customers[order.Customer.ID]; !ok {
		return fmt.Errorf("%w: id=%s", domain.ErrCustomerNotFound, order.Customer.ID)
	}
	seen := make(map[int64]struct{}, len(order.Items))
	for _, item := range order.Items {
		if _, ok := st.products[item.ProductID]; !ok {
			return fmt.Errorf("%w: id=%d", domain.ErrProductNotFound, item.ProductID)
		}
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("duplicate order detail for product %d", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

func dehydrate(order domain.Order) domain.Order {
	stored := order.Clone()
	stored.Customer = domain.Customer{ID: order.Customer.ID}
	for i := range stored.Items {
		stored.Items[i].OrderID = order.ID
	}
	return stored
}

func hydrate(st *state, stored domain.Order) domain.Order {
	order := stored.Clone()
	order.Customer = st.customers[stored.Customer.ID]
	return order
}

var _ domain.OrderRepository = (*orderRepository)(nil)
