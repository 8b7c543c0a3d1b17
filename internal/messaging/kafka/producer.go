package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

// Recorder получает результат каждой публикации, например для метрик.
type Recorder interface {
	EventPublished(eventType string, err error)
}

// DefaultSendTimeout ограничивает ожидание подтверждения брокера одной публикацией.
const DefaultSendTimeout = 2 * time.Second

// Options задаёт параметры Publisher.
type Options struct {
	Logger      *log.Entry
	TopicPrefix string
	Recorder    Recorder
	SendTimeout time.Duration
}

// Option настраивает Publisher.
type Option func(*Options)

// WithLogger задаёт logger для publisher.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithTopicPrefix задаёт префикс имён топиков.
func WithTopicPrefix(prefix string) Option {
	return func(opts *Options) {
		opts.TopicPrefix = prefix
	}
}

// WithRecorder подключает учёт результатов публикации.
func WithRecorder(recorder Recorder) Option {
	return func(opts *Options) {
		opts.Recorder = recorder
	}
}

// WithSendTimeout задаёт предел ожидания одной публикации поверх контекста вызова.
func WithSendTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.SendTimeout = timeout
	}
}

// Publisher публикует доменные события в Kafka через синхронный producer.
type Publisher struct {
	producer    sarama.SyncProducer
	logger      *log.Entry
	prefix      string
	recorder    Recorder
	sendTimeout time.Duration
}

type sendResult struct {
	partition int32
	offset    int64
	err       error
}

// NewSyncProducer создаёт sarama producer с подтверждением от всех реплик.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Timeout = DefaultSendTimeout
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Net.DialTimeout = DefaultSendTimeout
	config.Net.ReadTimeout = DefaultSendTimeout
	config.Net.WriteTimeout = DefaultSendTimeout

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

// NewPublisher оборачивает producer в domain.EventPublisher.
func NewPublisher(producer sarama.SyncProducer, options ...Option) *Publisher {
	opts := Options{TopicPrefix: DefaultTopicPrefix, SendTimeout: DefaultSendTimeout}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "kafka-publisher")
	}

	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}

	return &Publisher{
		producer:    producer,
		logger:      logger,
		prefix:      opts.TopicPrefix,
		recorder:    opts.Recorder,
		sendTimeout: opts.SendTimeout,
	}
}

// Publish отправляет событие в топик его агрегата с ключом AggregateID.
// Ожидание подтверждения ограничено контекстом и sendTimeout: по истечении
// Publish возвращает ошибку контекста, а отправка завершается в фоне.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) (err error) {
	defer func() {
		if p.recorder != nil {
			p.recorder.EventPublished(string(event.Type), err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	envelope := NewEnvelope(event)
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := Topic(p.prefix, event.AggregateType)
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.AggregateID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(event.Type)},
			{Key: []byte(HeaderAggregateType), Value: []byte(event.AggregateType)},
			{Key: []byte(HeaderOccurredAt), Value: []byte(envelope.OccurredAt.Format(time.RFC3339Nano))},
		},
		Timestamp: envelope.OccurredAt,
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()

	done := make(chan sendResult, 1)
	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		done <- sendResult{partition: partition, offset: offset, err: err}
	}()

	var res sendResult
	select {
	case res = <-done:
	case <-sendCtx.Done():
		p.logger.WithError(sendCtx.Err()).WithFields(log.Fields{
			"topic":   topic,
			"key":     event.AggregateID,
			"timeout": p.sendTimeout,
		}).Warn("kafka send did not complete in time")
		return fmt.Errorf("failed to send message: %w", sendCtx.Err())
	}

	if res.err != nil {
		p.logger.WithError(res.err).WithFields(log.Fields{
			"topic": topic,
			"key":   event.AggregateID,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", res.err)
	}

	p.logger.WithFields(log.Fields{
		"topic":      topic,
		"key":        event.AggregateID,
		"event_type": event.Type,
		"partition":  res.partition,
		"offset":     res.offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer.
func (p *Publisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

var _ domain.EventPublisher = (*Publisher)(nil)
