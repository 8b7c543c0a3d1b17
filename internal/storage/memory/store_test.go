package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pom/internal/domain"
	"github.com/vladislavdragonenkov/pom/internal/storage/memory"
)

const customerID = "c0a80101-0000-4000-8000-000000000001"

func newProduct(name string) domain.Product {
	return domain.Product{
		Name:          name,
		Price:         decimal.RequireFromString("10.00"),
		TaxPercentage: decimal.NewFromInt(10),
	}
}

func newOrder(id string, productID int64, at time.Time) domain.Order {
	return domain.Order{
		ID:                 id,
		OrderDate:          at,
		DiscountPercentage: decimal.Zero,
		Customer:           domain.Customer{ID: customerID},
		TotalAmount:        decimal.RequireFromString("11.00"),
		DiscountedTotal:    decimal.RequireFromString("11.00"),
		Items:              []domain.OrderItem{{ID: id + "-item", ProductID: productID, Quantity: 1}},
	}
}

func seed(t *testing.T, store *memory.Store) domain.Product {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()

	product, err := repos.Products.Create(ctx, newProduct("Widget"))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := repos.Customers.Create(ctx, domain.Customer{ID: customerID, Name: "Alice"}); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return product
}

func TestProductRepository_CreateGetList(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()

	first, err := repos.Products.Create(ctx, newProduct("Widget"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := repos.Products.Create(ctx, newProduct("Gadget"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected sequential ids, got %d and %d", first.ID, second.ID)
	}

	stored, err := repos.Products.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Name != "Widget" {
		t.Fatalf("unexpected product: %+v", stored)
	}

	byName, err := repos.Products.GetByName(ctx, "WIDGET")
	if err != nil || byName.ID != first.ID {
		t.Fatalf("get by name: %+v, %v", byName, err)
	}

	list, err := repos.Products.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	if _, err := repos.Products.Get(ctx, 42); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductRepository_DuplicateName(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()

	if _, err := repos.Products.Create(ctx, newProduct("Widget")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repos.Products.Create(ctx, newProduct("widget")); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Fatalf("expected ErrDuplicateProduct, got %v", err)
	}

	gadget, err := repos.Products.Create(ctx, newProduct("Gadget"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	gadget.Name = "Widget"
	if err := repos.Products.Update(ctx, gadget); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Fatalf("expected rename conflict, got %v", err)
	}

	list, _ := repos.Products.List(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 products, got %d", len(list))
	}
}

func TestProductRepository_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	product := seed(t, store)
	repos := store.Repos()

	product.Price = decimal.RequireFromString("12.50")
	if err := repos.Products.Update(ctx, product); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	stored, _ := repos.Products.Get(ctx, product.ID)
	if !stored.Price.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected updated price, got %s", stored.Price)
	}

	if err := repos.Products.Update(ctx, domain.Product{ID: 99, Name: "Nope"}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	if err := repos.Orders.Create(ctx, newOrder("order-1", product.ID, time.Now().UTC())); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := repos.Products.Delete(ctx, product.ID); !errors.Is(err, domain.ErrProductInUse) {
		t.Fatalf("expected ErrProductInUse, got %v", err)
	}

	if err := repos.Orders.Delete(ctx, "order-1"); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if err := repos.Products.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if err := repos.Products.Delete(ctx, product.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCustomerRepository(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repos()

	if err := repos.Customers.Create(ctx, domain.Customer{ID: customerID, Name: "Alice"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repos.Customers.Create(ctx, domain.Customer{ID: customerID, Name: "Bob"}); !errors.Is(err, domain.ErrDuplicateCustomer) {
		t.Fatalf("expected ErrDuplicateCustomer, got %v", err)
	}

	byName, err := repos.Customers.GetByName(ctx, "alice")
	if err != nil || byName.ID != customerID {
		t.Fatalf("get by name: %+v, %v", byName, err)
	}

	if err := repos.Customers.Update(ctx, domain.Customer{ID: customerID, Name: "Alicia"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	stored, _ := repos.Customers.Get(ctx, customerID)
	if stored.Name != "Alicia" {
		t.Fatalf("expected renamed customer, got %+v", stored)
	}

	if _, err := repos.Customers.Get(ctx, "missing"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestOrderRepository_CreateGetListSave(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	product := seed(t, store)
	repos := store.Repos()

	now := time.Now().UTC()
	older := newOrder("order-1", product.ID, now.Add(-time.Minute))
	newer := newOrder("order-2", product.ID, now)
	for _, o := range []domain.Order{older, newer} {
		if err := repos.Orders.Create(ctx, o); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}
	if err := repos.Orders.Create(ctx, older); !errors.Is(err, domain.ErrDuplicateOrder) {
		t.Fatalf("expected ErrDuplicateOrder, got %v", err)
	}

	got, err := repos.Orders.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Customer.Name != "Alice" {
		t.Fatalf("expected hydrated customer, got %+v", got.Customer)
	}
	if len(got.Items) != 1 || got.Items[0].OrderID != older.ID {
		t.Fatalf("unexpected items: %+v", got.Items)
	}

	// Мутация полученного значения не должна влиять на хранилище.
	got.Items[0].Quantity = 100
	again, _ := repos.Orders.Get(ctx, older.ID)
	if again.Items[0].Quantity != 1 {
		t.Fatal("stored order was mutated through returned value")
	}

	list, err := repos.Orders.List(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	byProduct, err := repos.Orders.ListByProduct(ctx, product.ID)
	if err != nil || len(byProduct) != 2 {
		t.Fatalf("list by product: %d, %v", len(byProduct), err)
	}
	none, _ := repos.Orders.ListByProduct(ctx, 999)
	if len(none) != 0 {
		t.Fatalf("expected no orders for unknown product, got %d", len(none))
	}

	got.Items = []domain.OrderItem{{ID: "replacement", ProductID: product.ID, Quantity: 7}}
	if err := repos.Orders.Save(ctx, got); err != nil {
		t.Fatalf("save order: %v", err)
	}
	saved, _ := repos.Orders.Get(ctx, older.ID)
	if len(saved.Items) != 1 || saved.Items[0].Quantity != 7 {
		t.Fatalf("expected replaced items, got %+v", saved.Items)
	}

	if err := repos.Orders.Save(ctx, newOrder("missing", product.ID, now)); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_ReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store)
	repos := store.Repos()

	if err := repos.Orders.Create(ctx, newOrder("order-x", 404, time.Now())); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	order := newOrder("order-y", 1, time.Now())
	order.Customer.ID = "c0a80101-0000-4000-8000-0000000000ff"
	if err := repos.Orders.Create(ctx, order); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestStore_DoRollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	boom := errors.New("boom")

	err := store.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Products.Create(ctx, newProduct("Widget")); err != nil {
			return err
		}
		if err := repos.Customers.Create(ctx, domain.Customer{ID: customerID, Name: "Alice"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	repos := store.Repos()
	if list, _ := repos.Products.List(ctx); len(list) != 0 {
		t.Fatalf("expected rollback of products, got %+v", list)
	}
	if _, err := repos.Customers.Get(ctx, customerID); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected rollback of customers, got %v", err)
	}

	// Счётчик идентификаторов тоже откатывается.
	product, err := repos.Products.Create(ctx, newProduct("Widget"))
	if err != nil || product.ID != 1 {
		t.Fatalf("expected id 1 after rollback, got %d (%v)", product.ID, err)
	}
}

func TestStore_DoCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	err := store.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		_, err := repos.Products.Create(ctx, newProduct("Widget"))
		return err
	})
	if err != nil {
		t.Fatalf("do failed: %v", err)
	}

	if _, err := store.Repos().Products.Get(ctx, 1); err != nil {
		t.Fatalf("expected committed product: %v", err)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := memory.NewStore()

	if _, err := store.Repos().Products.List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	called := false
	err := store.Do(ctx, func(context.Context, domain.Repositories) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected Do to refuse canceled ctx, err=%v called=%v", err, called)
	}
}
