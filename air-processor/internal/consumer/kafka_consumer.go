package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/ports"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/models"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

type KafkaConsumer struct {
	consumer sarama.ConsumerGroup
	brokers  []string
	topic    string
	groupID  string
	logger   logger.Logger
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

type consumerHandler struct {
	handler ports.ObjectEventHandler
	logger  logger.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string) (*KafkaConsumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Return.Errors = true
	// Objects uploaded while the processor was down must still be ingested.
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRange()
	config.Consumer.MaxProcessingTime = 30 * time.Second
	config.Net.DialTimeout = 30 * time.Second
	config.Net.ReadTimeout = 30 * time.Second
	config.Net.WriteTimeout = 30 * time.Second

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	return &KafkaConsumer{
		consumer: consumer,
		brokers:  brokers,
		topic:    topic,
		groupID:  groupID,
		logger:   logger.New("info", "development").WithField("component", "kafka_consumer"),
	}, nil
}

func (k *KafkaConsumer) Consume(ctx context.Context, handler ports.ObjectEventHandler) error {
	k.logger.Infof("Starting Kafka consumer for topic: %s, group: %s", k.topic, k.groupID)

	ctx, cancel := context.WithCancel(ctx)
	k.cancel = cancel

	consumerHandler := &consumerHandler{
		handler: handler,
		logger:  k.logger.WithField("handler", "kafka"),
	}

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		for {
			select {
			case <-ctx.Done():
				k.logger.Info("Kafka consumer context cancelled, stopping...")
				return
			default:
				if err := k.consumer.Consume(ctx, []string{k.topic}, consumerHandler); err != nil {
					k.logger.Errorf("Error consuming from Kafka: %v", err)
					time.Sleep(5 * time.Second)
				}
			}
		}
	}()

	go func() {
		for err := range k.consumer.Errors() {
			k.logger.Errorf("Kafka consumer error: %v", err)
		}
	}()

	k.logger.Info("Kafka consumer started successfully")
	return nil
}

func (k *KafkaConsumer) Close() error {
	k.logger.Info("Closing Kafka consumer...")

	if k.cancel != nil {
		k.cancel()
	}

	k.wg.Wait()

	if err := k.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka consumer: %w", err)
	}

	k.logger.Info("Kafka consumer closed successfully")
	return nil
}

func (k *KafkaConsumer) HealthCheck(ctx context.Context) error {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Net.DialTimeout = 5 * time.Second

	client, err := sarama.NewClient(k.brokers, config)
	if err != nil {
		return fmt.Errorf("failed to create Kafka client: %w", err)
	}
	defer client.Close()

	topics, err := client.Topics()
	if err != nil {
		return fmt.Errorf("failed to get topics: %w", err)
	}

	for _, topic := range topics {
		if topic == k.topic {
			return nil
		}
	}

	return fmt.Errorf("topic %s not found", k.topic)
}

func (h *consumerHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer handler setup completed")
	return nil
}

func (h *consumerHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer handler cleanup")
	return nil
}

// ConsumeClaim marks an offset only after its object was ingested. Malformed
// events are marked and dropped so a poison message cannot wedge the
// partition; ingest failures leave the offset unmarked for redelivery.
func (h *consumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	h.logger.Infof("Starting to consume claims for partition %d", claim.Partition())

	for message := range claim.Messages() {
		select {
		case <-session.Context().Done():
			h.logger.Info("Consumer session context done, stopping consumption")
			return nil
		default:
			event, err := h.deserializeEvent(message.Value)
			if err != nil {
				h.logger.Errorf("Dropping malformed object event: %v", err)
				session.MarkMessage(message, "")
				continue
			}

			if err := h.handler(session.Context(), event.ObjectKey); err != nil {
				h.logger.Errorf("Failed to process object %s, leaving offset unmarked: %v", event.ObjectKey, err)
				continue
			}

			session.MarkMessage(message, "")
			h.logger.Debugf("Processed object %s (offset: %d)", event.ObjectKey, message.Offset)
		}
	}

	return nil
}

func (h *consumerHandler) deserializeEvent(data []byte) (*models.ObjectEvent, error) {
	var event models.ObjectEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal object event: %w", err)
	}

	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid object event: %w", err)
	}

	return &event, nil
}
