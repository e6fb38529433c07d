package interactions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/conversation/conversationtest"
	"support-chatbot/internal/models"
)

func sampleInteraction() models.Interaction {
	return models.Interaction{
		ID:               "int-1",
		ConversationID:   "conv-1",
		Channel:          "web",
		Message:          "where is my order 1001",
		Intents:          []models.Intent{models.IntentOrderTracking},
		ResponseType:     models.ResponseOrderStatus,
		Source:           "pipeline",
		Confidence:       0.8,
		IntegrationsUsed: []string{"shopify"},
		DurationMS:       42,
		CreatedAt:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPostgresRecorder_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	in := sampleInteraction()
	mock.ExpectExec(`INSERT INTO "support_interactions"`).
		WithArgs(
			"int-1",
			"conv-1",
			"",
			"web",
			in.Message,
			sqlmock.AnyArg(), // intents array
			"order_status",
			"pipeline",
			0.8,
			sqlmock.AnyArg(), // integrations array
			false,
			int64(42),
			in.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	recorder := NewPostgresRecorder(db, "")
	require.NoError(t, recorder.Record(context.Background(), in))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_RecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO "chat_log"`).WillReturnError(stderrors.New("connection reset"))

	recorder := NewPostgresRecorder(db, "chat_log")
	err = recorder.Record(context.Background(), sampleInteraction())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRecordFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_EnsureTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "support_interactions"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgresRecorder(db, "").EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaRecorder_Record(t *testing.T) {
	writer := &fakeWriter{}
	recorder := NewKafkaRecorder(writer)

	require.NoError(t, recorder.Record(context.Background(), sampleInteraction()))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "conv-1", string(msg.Key))
	assert.Equal(t, "response_type", msg.Headers[0].Key)
	assert.Equal(t, "order_status", string(msg.Headers[0].Value))

	var decoded models.Interaction
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, []string{"shopify"}, decoded.IntegrationsUsed)

	require.NoError(t, recorder.Close())
	assert.True(t, writer.closed)
}

func TestKafkaRecorder_WriteFailure(t *testing.T) {
	recorder := NewKafkaRecorder(&fakeWriter{err: stderrors.New("no brokers")})
	err := recorder.Record(context.Background(), sampleInteraction())
	assert.True(t, errors.HasCode(err, errors.ErrCodeRecordFailed))
}

func TestNewKafkaWriter_DefaultTopic(t *testing.T) {
	w := NewKafkaWriter(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Equal(t, DefaultTopic, w.Topic)

	w = NewKafkaWriter(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "custom"})
	assert.Equal(t, "custom", w.Topic)
}

func TestMulti_RecordsToEverySink(t *testing.T) {
	ok := &conversationtest.Recorder{}
	failing := &conversationtest.Recorder{Err: stderrors.New("sink down")}

	multi := NewMulti(logger.NewTestLogger(t))
	multi.Add(SinkPostgres, failing)
	multi.Add(SinkKafka, ok)
	assert.Equal(t, 2, multi.Len())

	err := multi.Record(context.Background(), sampleInteraction())
	assert.EqualError(t, err, "sink down")
	assert.Len(t, ok.Interactions, 1)
	assert.Len(t, failing.Interactions, 1)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, NewMulti(logger.NewNoOpLogger()).Record(context.Background(), sampleInteraction()))
}
