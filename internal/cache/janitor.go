package cache

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultJanitorInterval = time.Minute

// JanitorOptions задаёт параметры фоновой очистки кэша.
type JanitorOptions struct {
	Logger   *log.Entry
	Interval time.Duration
}

// JanitorOption настраивает Janitor.
type JanitorOption func(*JanitorOptions)

// WithLogger задаёт logger для janitor.
func WithLogger(logger *log.Entry) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между проходами очистки.
func WithInterval(interval time.Duration) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.Interval = interval
	}
}

// Janitor периодически вычищает просроченные записи кэша.
type Janitor struct {
	cache    *Cache
	logger   *log.Entry
	interval time.Duration
}

// NewJanitor создаёт janitor для кэша.
func NewJanitor(cache *Cache, options ...JanitorOption) *Janitor {
	opts := JanitorOptions{Interval: defaultJanitorInterval}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cache-janitor")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultJanitorInterval
	}

	return &Janitor{
		cache:    cache,
		logger:   logger,
		interval: opts.Interval,
	}
}

// Run выполняет очистку по таймеру до отмены ctx.
func (j *Janitor) Run(ctx context.Context) {
	if j.cache == nil {
		j.logger.Warn("cache janitor is disabled: cache is nil")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := j.cache.EvictExpired(); evicted > 0 {
				j.logger.WithField("evicted", evicted).Debug("expired cache entries evicted")
			}
		}
	}
}
