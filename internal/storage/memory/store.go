package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

// state — снимок всех данных in-memory хранилища.
type state struct {
	products      map[int64]domain.Product
	nextProductID int64
	customers     map[string]domain.Customer
	// Заказы хранят только ID клиента; имя подставляется при чтении.
	orders map[string]domain.Order
}

func newState() *state {
	return &state{
		products:      make(map[int64]domain.Product),
		nextProductID: 1,
		customers:     make(map[string]domain.Customer),
		orders:        make(map[string]domain.Order),
	}
}

func (s *state) clone() *state {
	c := &state{
		products:      make(map[int64]domain.Product, len(s.products)),
		nextProductID: s.nextProductID,
		customers:     make(map[string]domain.Customer, len(s.customers)),
		orders:        make(map[string]domain.Order, len(s.orders)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v.Clone()
	}
	return c
}

// Store — in-memory реализация UnitOfWork для локальной разработки и тестов.
// Транзакция работает над копией состояния и подменяет его при коммите,
// поэтому ошибка внутри Do не оставляет частичных изменений.
type Store struct {
	mu   sync.RWMutex
	data *state
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Repos возвращает хранилища в режиме autocommit.
func (s *Store) Repos() domain.Repositories {
	return reposFor(access{store: s})
}

// Do выполняет fn эксклюзивно над копией состояния.
// Внутри fn нужно использовать только переданные repos: вызов s.Repos() приведёт к deadlock.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, reposFor(access{tx: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.data = work
	return nil
}

func reposFor(a access) domain.Repositories {
	return domain.Repositories{
		Products:  &productRepository{access: a},
		Customers: &customerRepository{access: a},
		Orders:    &orderRepository{access: a},
	}
}

// access выбирает, над каким состоянием работает репозиторий:
// над транзакционной копией (без блокировок) или над общим состоянием Store.
type access struct {
	store *Store
	tx    *state
}

func (a access) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return fn(a.store.data)
}

func (a access) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.data)
}

var _ domain.UnitOfWork = (*Store)(nil)
