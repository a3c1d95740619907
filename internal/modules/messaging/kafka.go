package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	kafkaBatchTimeout = 10 * time.Millisecond
	kafkaBatchSize    = 100
)

// KafkaNotifier publishes notifications as JSON, keyed by recipient so one
// user's notifications stay ordered on a partition.
type KafkaNotifier struct {
	writer *kafkago.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           kafkaBatchTimeout,
		BatchSize:              kafkaBatchSize,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(n.RecipientID.String()),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(n.Type)},
		},
	})
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
