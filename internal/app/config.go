package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pom/internal/messaging/kafka"
)

// EnvPrefix — префикс переменных окружения сервиса.
const EnvPrefix = "POM"

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config описывает настройки запуска приложения.
// Поля читаются из переменных POM_<NAME>, незаданные сохраняют значения DefaultConfig.
type Config struct {
	HTTPAddr             string        `envconfig:"HTTP_ADDR"`
	MetricsAddr          string        `envconfig:"METRICS_ADDR"`
	StorageDriver        string        `envconfig:"STORAGE_DRIVER"`
	PostgresDSN          string        `envconfig:"POSTGRES_DSN"`
	PostgresAutoMigrate  bool          `envconfig:"POSTGRES_AUTO_MIGRATE"`
	PostgresMaxOpenConns int           `envconfig:"POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns int           `envconfig:"POSTGRES_MAX_IDLE_CONNS"`
	RequestTimeout       time.Duration `envconfig:"REQUEST_TIMEOUT"`
	CacheJanitorInterval time.Duration `envconfig:"CACHE_JANITOR_INTERVAL"`
	ShutdownTimeout      time.Duration `envconfig:"SHUTDOWN_TIMEOUT"`
	LogLevel             string        `envconfig:"LOG_LEVEL"`
	LogFormat            string        `envconfig:"LOG_FORMAT"`
	KafkaBrokers         []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopicPrefix     string        `envconfig:"KAFKA_TOPIC_PREFIX"`
	KafkaPublishTimeout  time.Duration `envconfig:"KAFKA_PUBLISH_TIMEOUT"`
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:             ":8080",
		MetricsAddr:          ":9090",
		StorageDriver:        StorageDriverMemory,
		PostgresAutoMigrate:  true,
		PostgresMaxOpenConns: 25,
		PostgresMaxIdleConns: 25,
		RequestTimeout:       10 * time.Second,
		CacheJanitorInterval: time.Minute,
		ShutdownTimeout:      5 * time.Second,
		LogLevel:             "info",
		LogFormat:            LogFormatText,
		KafkaTopicPrefix:     kafka.DefaultTopicPrefix,
		KafkaPublishTimeout:  kafka.DefaultSendTimeout,
	}
}

// LoadConfig накладывает переменные окружения на DefaultConfig и проверяет результат.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	brokers := c.KafkaBrokers[:0]
	for _, broker := range c.KafkaBrokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	c.KafkaBrokers = brokers
}

// Validate возвращает все найденные ошибки конфигурации разом.
func (c Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POM_POSTGRES_DSN is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	if c.PostgresMaxOpenConns <= 0 {
		errs = append(errs, errors.New("postgres max open conns must be > 0"))
	}
	if c.PostgresMaxIdleConns < 0 || c.PostgresMaxIdleConns > c.PostgresMaxOpenConns {
		errs = append(errs, errors.New("postgres max idle conns must be within [0, max open conns]"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be > 0"))
	}
	if c.CacheJanitorInterval <= 0 {
		errs = append(errs, errors.New("cache janitor interval must be > 0"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be > 0"))
	}
	if c.KafkaPublishTimeout <= 0 {
		errs = append(errs, errors.New("kafka publish timeout must be > 0"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// ConfigureLogging применяет уровень и формат к стандартному логгеру logrus.
func ConfigureLogging(cfg Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)

	if cfg.LogFormat == LogFormatJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
