package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"photo-quest-service/internal/domain"
)

// Publisher writes quest events to a Kafka topic, keyed by quest id so every
// event of one quest lands on the same partition.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher dials the brokers with a synchronous producer.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	conf := sarama.NewConfig()
	conf.Producer.RequiredAcks = sarama.WaitForLocal
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(brokers, conf)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewPublisherWithProducer(producer, topic), nil
}

func NewPublisherWithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Publish(_ context.Context, event domain.QuestEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode quest event: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.QuestID),
		Value: sarama.ByteEncoder(raw),
	})
	if err != nil {
		return fmt.Errorf("produce quest event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
