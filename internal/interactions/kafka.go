// internal/interactions/kafka.go
package interactions

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/models"
)

const DefaultTopic = "support.interactions"

// MessageWriter is the subset of *kafka.Writer used by KafkaRecorder.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// KafkaRecorder publishes interactions keyed by conversation ID so one
// conversation always lands on the same partition.
type KafkaRecorder struct {
	writer MessageWriter
}

func NewKafkaRecorder(writer MessageWriter) *KafkaRecorder {
	return &KafkaRecorder{writer: writer}
}

func (r *KafkaRecorder) Record(ctx context.Context, interaction models.Interaction) error {
	data, err := json.Marshal(interaction)
	if err != nil {
		return errors.NewRecordFailedError(SinkKafka, err)
	}

	msg := kafka.Message{
		Key:   []byte(interaction.ConversationID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "response_type", Value: []byte(interaction.ResponseType)},
		},
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		return errors.NewRecordFailedError(SinkKafka, err)
	}
	return nil
}

func (r *KafkaRecorder) Close() error {
	return r.writer.Close()
}
