package ordering

import (
	"context"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

// resolveCustomer находит клиента по ID, а без ID по имени.
// Неизвестный клиент заводится с переданным ID (или новым UUID) и именем.
// Существующий клиент при создании заказа не переименовывается.
func (s *Service) resolveCustomer(ctx context.Context, customers domain.CustomerRepository, ref domain.Customer) (domain.Customer, error) {
	var (
		found domain.Customer
		err   error
	)
	if ref.ID != "" {
		found, err = customers.Get(ctx, ref.ID)
	} else {
		found, err = customers.GetByName(ctx, ref.Name)
	}
	if err == nil {
		return found, nil
	}
	if !domain.IsNotFound(err) {
		return domain.Customer{}, err
	}

	created := domain.Customer{ID: ref.ID, Name: ref.Name}
	if created.ID == "" {
		created.ID = s.newID()
	}
	if err := domain.NewValidationError(created.Validate()...); err != nil {
		return domain.Customer{}, err
	}
	if err := customers.Create(ctx, created); err != nil {
		return domain.Customer{}, err
	}
	return created, nil
}

// reconcileCustomer определяет клиента изменяемого заказа. Возвращает true,
// если было изменено имя текущего клиента.
func (s *Service) reconcileCustomer(ctx context.Context, customers domain.CustomerRepository, current, ref domain.Customer) (domain.Customer, bool, error) {
	unchangedName := ref.Name == "" || ref.Name == current.Name

	if ref.ID == "" {
		if unchangedName {
			return current, false, nil
		}
		customer, err := s.resolveCustomer(ctx, customers, ref)
		return customer, false, err
	}
	if ref.ID != current.ID {
		customer, err := s.resolveCustomer(ctx, customers, ref)
		return customer, false, err
	}
	if unchangedName {
		return current, false, nil
	}

	renamed := domain.Customer{ID: current.ID, Name: ref.Name}
	if err := customers.Update(ctx, renamed); err != nil {
		return domain.Customer{}, false, err
	}
	return renamed, true, nil
}
