// Package ordering содержит создание, изменение и чтение заказов,
// включая сверку клиента и позиций с каталогом.
package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pom/internal/cache"
	"github.com/vladislavdragonenkov/pom/internal/domain"
	"github.com/vladislavdragonenkov/pom/internal/dto"
)

// Options задаёт необязательные зависимости сервиса.
type Options struct {
	Logger *log.Entry
	Events domain.EventPublisher
	Clock  func() time.Time
	NewID  func() string
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithEvents задаёт публикатор доменных событий.
func WithEvents(events domain.EventPublisher) Option {
	return func(opts *Options) {
		opts.Events = events
	}
}

// WithClock подменяет источник времени для даты заказа.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// WithIDGenerator подменяет генератор идентификаторов заказов и позиций.
func WithIDGenerator(newID func() string) Option {
	return func(opts *Options) {
		opts.NewID = newID
	}
}

// Service реализует операции над заказами.
type Service struct {
	uow    domain.UnitOfWork
	cache  *cache.Cache
	events domain.EventPublisher
	logger *log.Entry
	now    func() time.Time
	newID  func() string
}

// NewService конструирует сервис заказов.
func NewService(uow domain.UnitOfWork, responses *cache.Cache, options ...Option) *Service {
	opts := Options{
		Events: domain.NoopPublisher{},
		Clock:  time.Now,
		NewID:  uuid.NewString,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "ordering-service")
	}
	if opts.Events == nil {
		opts.Events = domain.NoopPublisher{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if responses == nil {
		responses = cache.New()
	}

	return &Service{
		uow:    uow,
		cache:  responses,
		events: opts.Events,
		logger: logger,
		now:    opts.Clock,
		newID:  opts.NewID,
	}
}

// List возвращает все заказы, новые первыми.
func (s *Service) List(ctx context.Context) ([]dto.OrderDTO, error) {
	if cached, ok := cache.Lookup[[]dto.OrderDTO](s.cache, cache.KeyAllOrders); ok {
		return cached, nil
	}

	orders, err := s.uow.Repos().Orders.List(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("op", "order.list").Error("failed to list orders")
		return nil, err
	}

	out := dto.OrdersFromDomain(orders)
	s.cache.Set(cache.KeyAllOrders, out, cache.CollectionPolicy)
	return out, nil
}

// Get возвращает заказ по ID.
func (s *Service) Get(ctx context.Context, id string) (dto.OrderDTO, error) {
	id, ok := canonicalOrderID(id)
	if !ok {
		return dto.OrderDTO{}, domain.ErrOrderNotFound
	}

	key := cache.OrderKey(id)
	if cached, ok := cache.Lookup[dto.OrderDTO](s.cache, key); ok {
		return cached, nil
	}

	order, err := s.uow.Repos().Orders.Get(ctx, id)
	if err != nil {
		s.logFailure(err, "order.get", id, "failed to get order")
		return dto.OrderDTO{}, err
	}

	out := dto.OrderFromDomain(order)
	s.cache.Set(key, out, cache.EntityPolicy)
	return out, nil
}

// Create оформляет заказ: находит или заводит клиента, объединяет позиции
// по товару, считает итоги и сохраняет всё в одной транзакции.
func (s *Service) Create(ctx context.Context, in dto.OrderDTO) (dto.OrderDTO, error) {
	draft := in.ToDomain()
	draft.Normalize()
	if err := validateDraft(draft); err != nil {
		return dto.OrderDTO{}, err
	}

	items, err := domain.MergeItems(draft.Items)
	if err != nil {
		return dto.OrderDTO{}, domain.NewValidationError(err)
	}

	order := domain.Order{
		ID:                 s.newID(),
		OrderDate:          s.now().UTC().Truncate(time.Microsecond),
		DiscountPercentage: draft.DiscountPercentage,
	}
	order.Items = s.assignItemIDs(order.ID, items)

	err = s.uow.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		customer, err := s.resolveCustomer(ctx, repos.Customers, draft.Customer)
		if err != nil {
			return err
		}
		order.Customer = customer

		if err := s.price(ctx, repos.Products, &order); err != nil {
			return err
		}
		return repos.Orders.Create(ctx, order)
	})
	if err != nil {
		s.logFailure(err, "order.create", order.ID, "failed to create order")
		return dto.OrderDTO{}, err
	}

	out := dto.OrderFromDomain(order)
	s.cache.Remove(cache.KeyAllOrders)
	s.cache.Set(cache.OrderKey(order.ID), out, cache.EntityPolicy)

	s.logger.WithFields(log.Fields{
		"op":          "order.create",
		"order_id":    order.ID,
		"customer_id": order.Customer.ID,
	}).Info("order created")
	s.publish(ctx, domain.EventOrderCreated, order.ID, out)
	return out, nil
}

// Update заменяет скидку, клиента и позиции заказа и заново считает итоги.
// Новое имя при прежнем ID клиента переименовывает общую запись клиента.
func (s *Service) Update(ctx context.Context, id string, in dto.OrderDTO) (dto.OrderDTO, error) {
	if in.OrderID != "" && !sameOrderID(in.OrderID, id) {
		return dto.OrderDTO{}, domain.NewValidationError(domain.ErrIDMismatch)
	}
	id, ok := canonicalOrderID(id)
	if !ok {
		return dto.OrderDTO{}, domain.ErrOrderNotFound
	}

	draft := in.ToDomain()
	draft.Normalize()
	if err := validateDraft(draft); err != nil {
		return dto.OrderDTO{}, err
	}

	items, err := domain.MergeItems(draft.Items)
	if err != nil {
		return dto.OrderDTO{}, domain.NewValidationError(err)
	}

	var (
		order   domain.Order
		renamed bool
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		existing, err := repos.Orders.Get(ctx, id)
		if err != nil {
			return err
		}
		order = existing.Clone()

		customer, changedName, err := s.reconcileCustomer(ctx, repos.Customers, order.Customer, draft.Customer)
		if err != nil {
			return err
		}
		order.Customer = customer
		renamed = changedName

		order.DiscountPercentage = draft.DiscountPercentage
		order.Items = s.assignItemIDs(order.ID, items)
		if err := s.price(ctx, repos.Products, &order); err != nil {
			return err
		}
		return repos.Orders.Save(ctx, order)
	})
	if err != nil {
		s.logFailure(err, "order.update", id, "failed to update order")
		return dto.OrderDTO{}, err
	}

	s.cache.Remove(cache.KeyAllOrders, cache.OrderKey(id))
	if renamed {
		// Имя клиента входит в представление каждого его заказа.
		s.cache.RemovePrefix(cache.OrderKeyPrefix)
	}

	out := dto.OrderFromDomain(order)
	s.logger.WithFields(log.Fields{
		"op":               "order.update",
		"order_id":         id,
		"customer_renamed": renamed,
	}).Info("order updated")
	s.publish(ctx, domain.EventOrderUpdated, id, out)
	return out, nil
}

// Delete удаляет заказ вместе с позициями.
func (s *Service) Delete(ctx context.Context, id string) error {
	id, ok := canonicalOrderID(id)
	if !ok {
		return domain.ErrOrderNotFound
	}

	if err := s.uow.Repos().Orders.Delete(ctx, id); err != nil {
		s.logFailure(err, "order.delete", id, "failed to delete order")
		return err
	}

	s.cache.Remove(cache.KeyAllOrders, cache.OrderKey(id))

	s.logger.WithFields(log.Fields{"op": "order.delete", "order_id": id}).Info("order deleted")
	s.publish(ctx, domain.EventOrderDeleted, id, map[string]string{"orderId": id})
	return nil
}

func (s *Service) price(ctx context.Context, products domain.ProductRepository, order *domain.Order) error {
	resolved, err := domain.ResolveProducts(ctx, products, order.ProductIDs())
	if err != nil {
		return err
	}
	return order.Reprice(resolved)
}

func (s *Service) assignItemIDs(orderID string, items []domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	for i, item := range items {
		item.ID = s.newID()
		item.OrderID = orderID
		out[i] = item
	}
	return out
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, orderID string, payload any) {
	event := domain.Event{
		Type:          eventType,
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		Payload:       payload,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   orderID,
		}).Warn("failed to publish order event")
	}
}

func (s *Service) logFailure(err error, op, orderID, msg string) {
	entry := s.logger.WithError(err).WithFields(log.Fields{"op": op, "order_id": orderID})
	if domain.IsClientError(err) {
		entry.Info(msg)
		return
	}
	entry.Error(msg)
}

// validateDraft собирает все замечания к заказу и ссылке на клиента.
func validateDraft(draft domain.Order) error {
	problems := draft.Validate()

	ref := draft.Customer
	switch {
	case ref.ID == "" && ref.Name == "":
		problems = append(problems, domain.ErrCustomerRequired)
	case ref.ID != "":
		if _, err := uuid.Parse(ref.ID); err != nil {
			problems = append(problems, domain.ErrCustomerIDInvalid)
		}
	}
	if ref.Name != "" && !domain.ValidCustomerName(ref.Name) {
		problems = append(problems, domain.ErrCustomerNameInvalid)
	}

	return domain.NewValidationError(problems...)
}

// canonicalOrderID приводит ID заказа к каноническому виду UUID, в котором
// он хранится и участвует в ключах кэша.
func canonicalOrderID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// sameOrderID сравнивает ID без учёта формы записи UUID.
func sameOrderID(a, b string) bool {
	ca, okA := canonicalOrderID(a)
	cb, okB := canonicalOrderID(b)
	if okA && okB {
		return ca == cb
	}
	return a == b
}
