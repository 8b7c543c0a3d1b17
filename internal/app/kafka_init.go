package app

import (
	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pom/internal/domain"
	"github.com/vladislavdragonenkov/pom/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pom/internal/metrics"
)

// initKafkaProducer создаёт producer, если заданы brokers.
// Возвращает nil, nil при пустом списке brokers.
func initKafkaProducer(brokers []string, logger *log.Entry) (sarama.SyncProducer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewSyncProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// newEventPublisher возвращает Kafka publisher поверх producer или no-op, если producer нет.
func newEventPublisher(producer sarama.SyncProducer, cfg Config, m *metrics.Metrics, logger *log.Entry) domain.EventPublisher {
	if producer == nil {
		return domain.NoopPublisher{}
	}
	return kafka.NewPublisher(producer,
		kafka.WithLogger(logger.WithField("layer", "kafka")),
		kafka.WithTopicPrefix(cfg.KafkaTopicPrefix),
		kafka.WithRecorder(m),
		kafka.WithSendTimeout(cfg.KafkaPublishTimeout),
	)
}

// closeKafka закрывает producer, если он был создан.
func closeKafka(producer sarama.SyncProducer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
