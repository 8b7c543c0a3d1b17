package domain

import (
	"context"
	"fmt"
)

// ProductRepository описывает хранилище товаров.
type ProductRepository interface {
	// Get возвращает товар по ID или ErrProductNotFound.
	Get(ctx context.Context, id int64) (Product, error)
	// GetByName ищет товар по имени без учёта регистра; ErrProductNotFound, если нет.
	GetByName(ctx context.Context, name string) (Product, error)
	// List возвращает все товары, упорядоченные по ID.
	List(ctx context.Context) ([]Product, error)
	// Create сохраняет новый товар и возвращает его с назначенным ID.
	// ErrDuplicateProduct при конфликте имени.
	Create(ctx context.Context, product Product) (Product, error)
	// Update перезаписывает товар; ErrProductNotFound или ErrDuplicateProduct.
	Update(ctx context.Context, product Product) error
	// Delete удаляет товар; ErrProductNotFound или ErrProductInUse.
	Delete(ctx context.Context, id int64) error
}

// CustomerRepository описывает хранилище клиентов.
type CustomerRepository interface {
	Get(ctx context.Context, id string) (Customer, error)
	GetByName(ctx context.Context, name string) (Customer, error)
	Create(ctx context.Context, customer Customer) error
	Update(ctx context.Context, customer Customer) error
}

// OrderRepository описывает хранилище заказов вместе с позициями.
type OrderRepository interface {
	// Get возвращает заказ с клиентом и позициями или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает все заказы с клиентами и позициями, новые первыми.
	List(ctx context.Context) ([]Order, error)
	// ListByProduct возвращает заказы, содержащие позицию с товаром.
	ListByProduct(ctx context.Context, productID int64) ([]Order, error)
	// Create сохраняет заказ и его позиции.
	Create(ctx context.Context, order Order) error
	// Save обновляет поля заказа и полностью заменяет набор позиций.
	Save(ctx context.Context, order Order) error
	// Delete удаляет заказ каскадно с позициями.
	Delete(ctx context.Context, id string) error
}

// Repositories группирует хранилища агрегатов, работающие в одной границе транзакции.
type Repositories struct {
	Products  ProductRepository
	Customers CustomerRepository
	Orders    OrderRepository
}

// UnitOfWork задаёт явную границу транзакции поверх хранилищ агрегатов.
type UnitOfWork interface {
	// Repos возвращает хранилища в режиме autocommit (каждый вызов — отдельная операция).
	Repos() Repositories
	// Do выполняет fn в одной транзакции: коммит при nil, откат при ошибке.
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// ResolveProducts загружает товары по ID. Отсутствующий товар даёт ErrProductNotFound
// с указанием ID.
func ResolveProducts(ctx context.Context, products ProductRepository, ids []int64) (map[int64]Product, error) {
	resolved := make(map[int64]Product, len(ids))
	for _, id := range ids {
		if _, ok := resolved[id]; ok {
			continue
		}
		product, err := products.Get(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, id)
			}
			return nil, fmt.Errorf("get product %d: %w", id, err)
		}
		resolved[id] = product
	}
	return resolved, nil
}
