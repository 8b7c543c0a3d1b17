package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/pom/internal/cache"
	"github.com/vladislavdragonenkov/pom/internal/domain"
	"github.com/vladislavdragonenkov/pom/internal/dto"
	"github.com/vladislavdragonenkov/pom/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	cache     *cache.Cache
	publisher *recordingPublisher
	svc       *Service
}

func newFixture() *fixture {
	store := memory.NewStore()
	responses := cache.New()
	publisher := &recordingPublisher{}
	return &fixture{
		store:     store,
		cache:     responses,
		publisher: publisher,
		svc:       NewService(store, responses, publisher, nil),
	}
}

func productIn(name, price, tax string) dto.ProductDTO {
	return dto.ProductDTO{
		Name:          name,
		Price:         dto.NewDecimal(decimal.RequireFromString(price)),
		TaxPercentage: dto.NewDecimal(decimal.RequireFromString(tax)),
	}
}

func TestCreate_AssignsIDAndWarmsCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.List(ctx)
	require.NoError(t, err)

	created, err := f.svc.Create(ctx, productIn("  Widget ", "10.00", "10"))
	require.NoError(t, err)
	assert.NotZero(t, created.ProductID)
	assert.Equal(t, "Widget", created.Name)

	_, ok := f.cache.Get(cache.KeyAllProducts)
	assert.False(t, ok, "products:all must be invalidated")
	cached, ok := cache.Lookup[dto.ProductDTO](f.cache, cache.ProductKey(created.ProductID))
	require.True(t, ok)
	assert.Equal(t, created, cached)

	assert.Equal(t, []domain.EventType{domain.EventProductCreated}, f.publisher.types())
}

func TestCreate_DuplicateNameIsCaseInsensitiveAndNotPersisted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, productIn("Widget", "10", "0"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, productIn("WIDGET", "12", "5"))
	require.ErrorIs(t, err, domain.ErrDuplicateProduct)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreate_DuplicateExplicitID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, productIn("Widget", "10", "0"))
	require.NoError(t, err)

	in := productIn("Gadget", "3", "0")
	in.ProductID = created.ProductID
	_, err = f.svc.Create(ctx, in)
	require.ErrorIs(t, err, domain.ErrDuplicateProduct)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), productIn("ab", "0", "101"))
	require.True(t, domain.IsValidation(err))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3)
	assert.Empty(t, f.publisher.types())
}

func TestGet_ReadThroughCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, productIn("Widget", "10", "0"))
	require.NoError(t, err)
	f.cache.Remove(cache.ProductKey(created.ProductID))

	got, err := f.svc.Get(ctx, created.ProductID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	_, ok := f.cache.Get(cache.ProductKey(created.ProductID))
	assert.True(t, ok)

	_, err = f.svc.Get(ctx, 404)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestUpdate_GetMutateGetIsCoherent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, productIn("Widget", "10", "0"))
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, created.ProductID)
	require.NoError(t, err)
	_, err = f.svc.List(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.Update(ctx, created.ProductID, productIn("Widget Pro", "15", "5")))

	got, err := f.svc.Get(ctx, created.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", got.Name)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(15)))

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Widget Pro", list[0].Name)
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Create(ctx, productIn("Widget", "10", "0"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, productIn("Gadget", "10", "0"))
	require.NoError(t, err)

	mismatch := productIn("Widget", "10", "0")
	mismatch.ProductID = first.ProductID + 100
	err = f.svc.Update(ctx, first.ProductID, mismatch)
	require.ErrorIs(t, err, domain.ErrIDMismatch)
	require.True(t, domain.IsValidation(err))

	require.ErrorIs(t, f.svc.Update(ctx, 999, productIn("Nothing", "1", "0")), domain.ErrProductNotFound)
	require.ErrorIs(t, f.svc.Update(ctx, first.ProductID, productIn("gadget", "1", "0")), domain.ErrDuplicateProduct)
	require.NoError(t, f.svc.Update(ctx, first.ProductID, productIn("WIDGET", "1", "0")), "renaming onto own name must succeed")
}

func TestUpdate_RepricesReferencingOrders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, productIn("Widget", "10.00", "10"))
	require.NoError(t, err)

	customer := domain.Customer{ID: uuid.NewString(), Name: "Alice"}
	require.NoError(t, f.store.Repos().Customers.Create(ctx, customer))
	order := domain.Order{
		ID:                 uuid.NewString(),
		OrderDate:          time.Now().UTC(),
		DiscountPercentage: decimal.NewFromInt(20),
		Customer:           customer,
		TotalAmount:        decimal.RequireFromString("33.00"),
		DiscountedTotal:    decimal.RequireFromString("26.40"),
		Items:              []domain.OrderItem{{ID: uuid.NewString(), ProductID: created.ProductID, Quantity: 3}},
	}
	require.NoError(t, f.store.Repos().Orders.Create(ctx, order))
	f.cache.Set(cache.OrderKey(order.ID), "stale", cache.EntityPolicy)
	f.cache.Set(cache.KeyAllOrders, "stale", cache.CollectionPolicy)

	require.NoError(t, f.svc.Update(ctx, created.ProductID, productIn("Widget", "20.00", "10")))

	stored, err := f.store.Repos().Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "66", stored.TotalAmount.String())
	assert.Equal(t, "52.8", stored.DiscountedTotal.String())

	_, ok := f.cache.Get(cache.OrderKey(order.ID))
	assert.False(t, ok, "repriced order must be evicted")
	_, ok = f.cache.Get(cache.KeyAllOrders)
	assert.False(t, ok)
}

func TestCreate_PriceAboveStorageLimit(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), productIn("Yacht", "10000000000000000", "0"))
	require.ErrorIs(t, err, domain.ErrProductPriceTooLarge)
	require.True(t, domain.IsValidation(err))
	assert.Empty(t, f.publisher.types())
}

func TestUpdate_OrderTotalAboveStorageLimitRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, productIn("Widget", "10.00", "0"))
	require.NoError(t, err)

	customer := domain.Customer{ID: uuid.NewString(), Name: "Alice"}
	require.NoError(t, f.store.Repos().Customers.Create(ctx, customer))
	order := domain.Order{
		ID:              uuid.NewString(),
		OrderDate:       time.Now().UTC(),
		Customer:        customer,
		TotalAmount:     decimal.RequireFromString("20.00"),
		DiscountedTotal: decimal.RequireFromString("20.00"),
		Items:           []domain.OrderItem{{ID: uuid.NewString(), ProductID: created.ProductID, Quantity: 2}},
	}
	require.NoError(t, f.store.Repos().Orders.Create(ctx, order))

	// Сама цена допустима, но итог заказа с двумя штуками уже нет.
	err = f.svc.Update(ctx, created.ProductID, productIn("Widget", "9999999999999999.99", "0"))
	require.ErrorIs(t, err, domain.ErrOrderTotalTooLarge)
	require.True(t, domain.IsValidation(err))

	product, err := f.store.Repos().Products.Get(ctx, created.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "10", product.Price.String(), "product update must be rolled back")
	stored, err := f.store.Repos().Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "20", stored.TotalAmount.String())
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, productIn("Widget", "10", "0"))
	require.NoError(t, err)

	customer := domain.Customer{ID: uuid.NewString(), Name: "Alice"}
	require.NoError(t, f.store.Repos().Customers.Create(ctx, customer))
	order := domain.Order{
		ID:        uuid.NewString(),
		OrderDate: time.Now().UTC(),
		Customer:  customer,
		Items:     []domain.OrderItem{{ID: uuid.NewString(), ProductID: created.ProductID, Quantity: 1}},
	}
	require.NoError(t, f.store.Repos().Orders.Create(ctx, order))

	require.ErrorIs(t, f.svc.Delete(ctx, created.ProductID), domain.ErrProductInUse)

	other, err := f.svc.Create(ctx, productIn("Gadget", "5", "0"))
	require.NoError(t, err)

	// Прогреваем кэш списка.
	before, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, before, 2)

	require.NoError(t, f.store.Repos().Orders.Delete(ctx, order.ID))
	require.NoError(t, f.svc.Delete(ctx, created.ProductID))
	require.ErrorIs(t, f.svc.Delete(ctx, created.ProductID), domain.ErrProductNotFound)

	after, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1, "deleted product must not stay in the cached list")
	assert.Equal(t, other.ProductID, after[0].ProductID)

	_, err = f.svc.Get(ctx, created.ProductID)
	require.ErrorIs(t, err, domain.ErrProductNotFound, "deleted product must not be served from cache")
	assert.Equal(t, []domain.EventType{domain.EventProductCreated, domain.EventProductCreated, domain.EventProductDeleted}, f.publisher.types())
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker unavailable")

	_, err := f.svc.Create(context.Background(), productIn("Widget", "10", "0"))
	require.NoError(t, err)
}
