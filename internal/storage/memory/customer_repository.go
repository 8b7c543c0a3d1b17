package memory

import (
	"context"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

type customerRepository struct {
	access
}

func (r *customerRepository) Get(ctx context.Context, id string) (domain.Customer, error) {
	var customer domain.Customer
	err := r.read(ctx, func(st *state) error {
		c, ok := st.customers[id]
		if !ok {
			return domain.ErrCustomerNotFound
		}
		customer = c
		return nil
	})
	return customer, err
}

// GetByName возвращает клиента с совпадающим именем; при нескольких совпадениях — с наименьшим ID.
func (r *customerRepository) GetByName(ctx context.Context, name string) (domain.Customer, error) {
	var customer domain.Customer
	err := r.read(ctx, func(st *state) error {
		found := false
		for _, c := range st.customers {
			if !domain.SameName(c.Name, name) {
				continue
			}
			if !found || c.ID < customer.ID {
				customer = c
				found = true
			}
		}
		if !found {
			return domain.ErrCustomerNotFound
		}
		return nil
	})
	return customer, err
}

func (r *customerRepository) Create(ctx context.Context, customer domain.Customer) error {
	return r.write(ctx, func(st *state) error {
		if _, exists := st.customers[customer.ID]; exists {
			return domain.ErrDuplicateCustomer
		}
		st.customers[customer.ID] = customer
		return nil
	})
}

func (r *customerRepository) Update(ctx context.Context, customer domain.Customer) error {
	return r.write(ctx, func(st *state) error {
		if _, exists := st.customers[customer.ID]; !exists {
			return domain.ErrCustomerNotFound
		}
		st.customers[customer.ID] = customer
		return nil
	})
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
