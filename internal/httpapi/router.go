// Package httpapi публикует каталог товаров и заказы как JSON API поверх gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pom/internal/dto"
)

const defaultRequestTimeout = 10 * time.Second

// ProductService обслуживает ресурс /api/products.
type ProductService interface {
	List(ctx context.Context) ([]dto.ProductDTO, error)
	Get(ctx context.Context, id int64) (dto.ProductDTO, error)
	Create(ctx context.Context, in dto.ProductDTO) (dto.ProductDTO, error)
	Update(ctx context.Context, id int64, in dto.ProductDTO) error
	Delete(ctx context.Context, id int64) error
}

// OrderService обслуживает ресурс /api/orders.
type OrderService interface {
	List(ctx context.Context) ([]dto.OrderDTO, error)
	Get(ctx context.Context, id string) (dto.OrderDTO, error)
	Create(ctx context.Context, in dto.OrderDTO) (dto.OrderDTO, error)
	Update(ctx context.Context, id string, in dto.OrderDTO) (dto.OrderDTO, error)
	Delete(ctx context.Context, id string) error
}

// Recorder собирает метрики HTTP-запросов.
type Recorder interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	HTTPRequestStarted()
	HTTPRequestFinished()
}

// Options задаёт настройки роутера.
type Options struct {
	Logger         *log.Entry
	Recorder       Recorder
	RequestTimeout time.Duration
}

// Option настраивает роутер.
type Option func(*Options)

// WithLogger задаёт логгер access-лога и обработчиков.
func WithLogger(logger *log.Entry) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithRecorder включает сбор HTTP-метрик.
func WithRecorder(recorder Recorder) Option {
	return func(o *Options) {
		o.Recorder = recorder
	}
}

// WithRequestTimeout ограничивает время обработки одного запроса.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = timeout
	}
}

// NewRouter собирает gin.Engine с маршрутами API и общими middleware.
func NewRouter(products ProductService, orders OrderService, options ...Option) *gin.Engine {
	opts := Options{RequestTimeout: defaultRequestTimeout}
	for _, option := range options {
		option(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		accessLog(logger),
		observe(opts.Recorder),
		recovery(logger),
		requestTimeout(opts.RequestTimeout),
	)
	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, codeNotFound, "resource not found")
	})
	router.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, codeValidation, "method not allowed")
	})

	ph := &productHandler{service: products}
	oh := &orderHandler{service: orders}

	api := router.Group("/api")
	{
		api.GET("/products", ph.list)
		api.GET("/products/:id", ph.get)
		api.POST("/products", ph.create)
		api.PUT("/products/:id", ph.update)
		api.DELETE("/products/:id", ph.delete)

		api.GET("/orders", oh.list)
		api.GET("/orders/:id", oh.get)
		api.POST("/orders", oh.create)
		api.PUT("/orders/:id", oh.update)
		api.DELETE("/orders/:id", oh.delete)
	}

	return router
}
