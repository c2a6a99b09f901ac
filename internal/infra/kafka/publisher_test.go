package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"photo-quest-service/internal/domain"
)

func TestPublisherSendsJSONEvent(t *testing.T) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, conf)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event domain.QuestEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.Type != domain.EventQuestResolved || event.QuestID != "quest-1" || event.WinnerID != "u2" {
			return fmt.Errorf("unexpected event %+v", event)
		}
		return nil
	})

	pub := NewPublisherWithProducer(producer, "quest-events")
	err := pub.Publish(context.Background(), domain.QuestEvent{
		Type:     domain.EventQuestResolved,
		QuestID:  "quest-1",
		WinnerID: "u2",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPublisherWrapsProducerError(t *testing.T) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, conf)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewPublisherWithProducer(producer, "quest-events")
	err := pub.Publish(context.Background(), domain.QuestEvent{Type: domain.EventQuestCreated, QuestID: "quest-1"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
	_ = pub.Close()
}
