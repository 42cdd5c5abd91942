package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Publisher sends a JSON-serialised message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// KafkaPublisher writes events through a single long-lived writer.
type KafkaPublisher struct {
	w *kafkago.Writer
}

// NewKafkaPublisher returns a publisher for the given brokers. The topic is set per message.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.LeastBytes{},
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kafka: marshal %s event: %w", topic, err)
	}
	return p.w.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
