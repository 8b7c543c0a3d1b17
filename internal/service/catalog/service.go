// Package catalog содержит сценарии работы с товарами.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pom/internal/cache"
	"github.com/vladislavdragonenkov/pom/internal/domain"
	"github.com/vladislavdragonenkov/pom/internal/dto"
)

// Service реализует операции над товарами поверх UnitOfWork и кэша ответов.
type Service struct {
	uow    domain.UnitOfWork
	cache  *cache.Cache
	events domain.EventPublisher
	logger *log.Entry
	now    func() time.Time
}

// NewService конструирует сервис каталога.
func NewService(uow domain.UnitOfWork, responses *cache.Cache, events domain.EventPublisher, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog-service")
	}
	if responses == nil {
		responses = cache.New()
	}
	if events == nil {
		events = domain.NoopPublisher{}
	}
	return &Service{
		uow:    uow,
		cache:  responses,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// List возвращает все товары, упорядоченные по ID.
func (s *Service) List(ctx context.Context) ([]dto.ProductDTO, error) {
	if cached, ok := cache.Lookup[[]dto.ProductDTO](s.cache, cache.KeyAllProducts); ok {
		return cached, nil
	}

	products, err := s.uow.Repos().Products.List(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("op", "product.list").Error("failed to list products")
		return nil, err
	}

	out := dto.ProductsFromDomain(products)
	s.cache.Set(cache.KeyAllProducts, out, cache.CollectionPolicy)
	return out, nil
}

// Get возвращает товар по ID.
func (s *Service) Get(ctx context.Context, id int64) (dto.ProductDTO, error) {
	key := cache.ProductKey(id)
	if cached, ok := cache.Lookup[dto.ProductDTO](s.cache, key); ok {
		return cached, nil
	}

	product, err := s.uow.Repos().Products.Get(ctx, id)
	if err != nil {
		s.logFailure(err, "product.get", id, "failed to get product")
		return dto.ProductDTO{}, err
	}

	out := dto.ProductFromDomain(product)
	s.cache.Set(key, out, cache.EntityPolicy)
	return out, nil
}

// Create добавляет товар. Имя сравнивается без учёта регистра;
// явно переданный ID не должен совпадать с существующим товаром.
func (s *Service) Create(ctx context.Context, in dto.ProductDTO) (dto.ProductDTO, error) {
	product := in.ToDomain()
	product.Normalize()
	if err := domain.NewValidationError(product.Validate()...); err != nil {
		return dto.ProductDTO{}, err
	}

	err := s.uow.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if product.ID != 0 {
			if _, err := repos.Products.Get(ctx, product.ID); err == nil {
				return domain.ErrDuplicateProduct
			} else if !domain.IsNotFound(err) {
				return err
			}
		}
		if err := ensureNameFree(ctx, repos.Products, product.Name, 0); err != nil {
			return err
		}

		created, err := repos.Products.Create(ctx, product)
		if err != nil {
			return err
		}
		product = created
		return nil
	})
	if err != nil {
		s.logFailure(err, "product.create", product.ID, "failed to create product")
		return dto.ProductDTO{}, err
	}

	out := dto.ProductFromDomain(product)
	s.cache.Remove(cache.KeyAllProducts)
	s.cache.Set(cache.ProductKey(product.ID), out, cache.EntityPolicy)

	s.logger.WithFields(log.Fields{"op": "product.create", "product_id": product.ID}).Info("product created")
	s.publish(ctx, domain.EventProductCreated, product.ID, out)
	return out, nil
}

// Update перезаписывает товар и пересчитывает итоги всех заказов, которые на него ссылаются.
func (s *Service) Update(ctx context.Context, id int64, in dto.ProductDTO) error {
	product := in.ToDomain()
	if product.ID != 0 && product.ID != id {
		return domain.NewValidationError(domain.ErrIDMismatch)
	}
	product.ID = id
	product.Normalize()
	if err := domain.NewValidationError(product.Validate()...); err != nil {
		return err
	}

	var repriced []string
	err := s.uow.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Products.Get(ctx, id); err != nil {
			return err
		}
		if err := ensureNameFree(ctx, repos.Products, product.Name, id); err != nil {
			return err
		}
		if err := repos.Products.Update(ctx, product); err != nil {
			return err
		}

		ids, err := repriceOrders(ctx, repos, product)
		if err != nil {
			return err
		}
		repriced = ids
		return nil
	})
	if err != nil {
		s.logFailure(err, "product.update", id, "failed to update product")
		return err
	}

	keys := []string{cache.KeyAllProducts, cache.ProductKey(id), cache.KeyAllOrders}
	for _, orderID := range repriced {
		keys = append(keys, cache.OrderKey(orderID))
	}
	s.cache.Remove(keys...)

	s.logger.WithFields(log.Fields{
		"op":              "product.update",
		"product_id":      id,
		"orders_repriced": len(repriced),
	}).Info("product updated")
	s.publish(ctx, domain.EventProductUpdated, id, dto.ProductFromDomain(product))
	return nil
}

// Delete удаляет товар, если на него не ссылается ни одна позиция заказа.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.uow.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Products.Get(ctx, id); err != nil {
			return err
		}
		orders, err := repos.Orders.ListByProduct(ctx, id)
		if err != nil {
			return err
		}
		if len(orders) > 0 {
			return domain.ErrProductInUse
		}
		return repos.Products.Delete(ctx, id)
	})
	if err != nil {
		s.logFailure(err, "product.delete", id, "failed to delete product")
		return err
	}

	s.cache.Remove(cache.KeyAllProducts, cache.ProductKey(id))

	s.logger.WithFields(log.Fields{"op": "product.delete", "product_id": id}).Info("product deleted")
	s.publish(ctx, domain.EventProductDeleted, id, map[string]int64{"productId": id})
	return nil
}

func ensureNameFree(ctx context.Context, products domain.ProductRepository, name string, exceptID int64) error {
	existing, err := products.GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != exceptID:
		return domain.ErrDuplicateProduct
	case err == nil, errors.Is(err, domain.ErrProductNotFound):
		return nil
	default:
		return err
	}
}

// repriceOrders пересчитывает итоги заказов с изменённым товаром и возвращает их ID.
func repriceOrders(ctx context.Context, repos domain.Repositories, changed domain.Product) ([]string, error) {
	orders, err := repos.Orders.ListByProduct(ctx, changed.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		products, err := domain.ResolveProducts(ctx, repos.Products, order.ProductIDs())
		if err != nil {
			return nil, err
		}
		products[changed.ID] = changed

		if err := order.Reprice(products); err != nil {
			return nil, err
		}
		if err := repos.Orders.Save(ctx, order); err != nil {
			return nil, err
		}
		ids = append(ids, order.ID)
	}
	return ids, nil
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, productID int64, payload any) {
	event := domain.Event{
		Type:          eventType,
		AggregateType: domain.AggregateProduct,
		AggregateID:   strconv.FormatInt(productID, 10),
		Payload:       payload,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"product_id": productID,
		}).Warn("failed to publish product event")
	}
}

func (s *Service) logFailure(err error, op string, productID int64, msg string) {
	entry := s.logger.WithError(err).WithFields(log.Fields{"op": op, "product_id": productID})
	if domain.IsClientError(err) {
		entry.Info(msg)
		return
	}
	entry.Error(msg)
}
