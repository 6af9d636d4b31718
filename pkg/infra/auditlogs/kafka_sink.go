package auditlogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

const kafkaFlushTimeoutMs = 5000

type KafkaConfig struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Topic string `mapstructure:"topic"`
}

func (c KafkaConfig) Validate() error {
	if c.Host == "" {
		return errors.New("kafka host is required")
	}
	if c.Port == "" {
		return errors.New("kafka port is required")
	}
	if c.Topic == "" {
		return errors.New("kafka topic is required")
	}
	return nil
}

type kafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaSink publishes every event as a JSON message keyed by client IP.
type KafkaSink struct {
	cfg      KafkaConfig
	producer kafkaProducer
}

func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &KafkaSink{cfg: cfg, producer: producer}, nil
}

func newKafkaSinkWithProducer(cfg KafkaConfig, producer kafkaProducer) *KafkaSink {
	return &KafkaSink{cfg: cfg, producer: producer}
}

func (s *KafkaSink) Name() string {
	return SinkKafka
}

func (s *KafkaSink) Write(ctx context.Context, evt *security.Event) error {
	if s.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	deliveryChan := make(chan kafka.Event, 1)
	err = s.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &s.cfg.Topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.IP),
		Value:          data,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for kafka delivery: %w", ctx.Err())
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		return nil
	}
}

func (s *KafkaSink) Close() error {
	if s.producer == nil {
		return nil
	}
	if remaining := s.producer.Flush(kafkaFlushTimeoutMs); remaining > 0 {
		s.producer.Close()
		return fmt.Errorf("%d kafka messages were not delivered", remaining)
	}
	s.producer.Close()
	return nil
}
