package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics содержит метрики HTTP API, кэша ответов и публикации событий.
type Metrics struct {
	// HTTP
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	// Кэш
	cacheLookups   *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec
	cacheEntries   prometheus.Gauge

	// События
	eventsPublished *prometheus.CounterVec
}

// New создаёт метрики в реестре по умолчанию.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer создаёт метрики в указанном реестре.
// Повторная регистрация переиспользует уже существующие коллекторы.
func NewWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		httpRequests: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pom_http_requests_total",
			Help: "Total number of HTTP requests grouped by method, route and status",
		}, []string{"method", "route", "status"})),
		httpDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pom_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"})),
		httpInFlight: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pom_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		})),
		cacheLookups: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pom_cache_lookups_total",
			Help: "Total number of response cache lookups grouped by key class and result",
		}, []string{"class", "result"})),
		cacheEvictions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pom_cache_evictions_total",
			Help: "Total number of response cache entries evicted grouped by key class and reason",
		}, []string{"class", "reason"})),
		cacheEntries: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pom_cache_entries",
			Help: "Number of entries currently held by the response cache",
		})),
		eventsPublished: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pom_events_published_total",
			Help: "Total number of domain events published grouped by type and result",
		}, []string{"type", "result"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", alreadyRegistered.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// ObserveHTTPRequest записывает завершённый HTTP-запрос.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// HTTPRequestStarted увеличивает число обрабатываемых запросов.
func (m *Metrics) HTTPRequestStarted() {
	if m == nil {
		return
	}
	m.httpInFlight.Inc()
}

// HTTPRequestFinished уменьшает число обрабатываемых запросов.
func (m *Metrics) HTTPRequestFinished() {
	if m == nil {
		return
	}
	m.httpInFlight.Dec()
}

// CacheHit учитывает попадание в кэш.
func (m *Metrics) CacheHit(class string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(class, "hit").Inc()
}

// CacheMiss учитывает промах кэша.
func (m *Metrics) CacheMiss(class string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(class, "miss").Inc()
}

// CacheEvicted учитывает удалённые из кэша записи.
func (m *Metrics) CacheEvicted(class, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheEvictions.WithLabelValues(class, reason).Add(float64(n))
}

// CacheSize фиксирует текущее число записей кэша.
func (m *Metrics) CacheSize(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

// EventPublished учитывает результат публикации доменного события.
func (m *Metrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, result).Inc()
}
