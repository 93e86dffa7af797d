package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

// KafkaDispatcher публикует события бронирований в Kafka.
// Ошибки отправки логируются и не возвращаются вызывающему.
type KafkaDispatcher struct {
	producer sarama.SyncProducer
	topic    string
	logger   Logger
	metrics  Metrics
	now      func() time.Time
}

// NewSyncProducer создаёт синхронного продюсера с подтверждением от всех реплик
func NewSyncProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	// один ключ (reference) всегда попадает в одну партицию
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaDispatcher создает диспетчер поверх готового продюсера
func NewKafkaDispatcher(producer sarama.SyncProducer, topic string, logger Logger, metrics Metrics) *KafkaDispatcher {
	return &KafkaDispatcher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Notify отправляет событие о бронировании
func (d *KafkaDispatcher) Notify(ctx context.Context, event string, booking *domain.Booking) {
	if booking == nil {
		return
	}

	payload, err := json.Marshal(newBookingEvent(event, booking, d.now()))
	if err != nil {
		d.logger.Error("Notify: failed to encode event %s for booking %d: %v", event, booking.ID, err)
		d.metrics.IncNotification(event, resultFailed)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(booking.Reference),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(event)},
			{Key: []byte("tenant_id"), Value: []byte(fmt.Sprintf("%d", booking.TenantID))},
		},
	}

	partition, offset, err := d.producer.SendMessage(msg)
	if err != nil {
		d.logger.Error("Notify: failed to publish %s for booking %d: %v", event, booking.ID, err)
		d.metrics.IncNotification(event, resultFailed)
		return
	}

	d.logger.Info("Notify: %s for booking %d published (partition=%d, offset=%d)", event, booking.ID, partition, offset)
	d.metrics.IncNotification(event, resultSent)
}

// Close закрывает продюсера
func (d *KafkaDispatcher) Close() error {
	if err := d.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
