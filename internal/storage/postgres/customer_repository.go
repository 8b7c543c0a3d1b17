package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

type customerRepository struct {
	q querier
}

func (r *customerRepository) Get(ctx context.Context, id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c domain.Customer
	err := r.q.QueryRowContext(ctx, `
		SELECT customer_id, name
		FROM customers
		WHERE customer_id = $1
	`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return c, nil
}

func (r *customerRepository) GetByName(ctx context.Context, name string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c domain.Customer
	err := r.q.QueryRowContext(ctx, `
		SELECT customer_id, name
		FROM customers
		WHERE lower(name) = lower($1)
		ORDER BY customer_id ASC
		LIMIT 1
	`, strings.TrimSpace(name)).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer by name: %w", err)
	}
	return c, nil
}

func (r *customerRepository) Create(ctx context.Context, customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO customers (customer_id, name)
		VALUES ($1, $2)
	`, customer.ID, customer.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCustomer
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *customerRepository) Update(ctx context.Context, customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE customers
		SET name = $1
		WHERE customer_id = $2
	`, customer.Name, customer.ID)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return expectAffected(res, domain.ErrCustomerNotFound)
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
