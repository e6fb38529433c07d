package processmessage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/models"
)

type fakeProcessor struct {
	response models.FormattedResponse
	message  string
	customer models.CustomerContext
}

func (f *fakeProcessor) ProcessMessage(_ context.Context, message string, customer models.CustomerContext) models.FormattedResponse {
	f.message = message
	f.customer = customer
	return f.response
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode errors.ErrorCode
		channel  string
	}{
		{
			name:    "valid",
			raw:     `{"message":"where is my order","customer":{"conversationId":"c1","email":"a@b.com"},"otherVar":1}`,
			channel: "workflow",
		},
		{
			name:    "keeps channel",
			raw:     `{"message":"hi","customer":{"conversationId":"c1","channel":"sms"}}`,
			channel: "sms",
		},
		{name: "malformed json", raw: `{"message":`, wantCode: errors.ErrCodeInputParsing},
		{name: "missing customer", raw: `{"message":"hi"}`, wantCode: errors.ErrCodeInvalidRequest},
		{name: "empty message", raw: `{"message":"","customer":{"conversationId":"c1"}}`, wantCode: errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := ParseInput([]byte(tt.raw))
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.wantCode), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "c1", input.Customer.ConversationID)
			assert.Equal(t, tt.channel, input.Customer.Channel)
		})
	}
}

func TestExecute_MapsResponse(t *testing.T) {
	processor := &fakeProcessor{response: models.FormattedResponse{
		Text:    "I've created a support ticket.",
		Actions: []models.QuickAction{{Type: models.QuickReply, Label: "Thanks", Value: "thanks"}},
		Metadata: models.ResponseMetadata{
			Source:           models.SourcePipeline,
			ResponseType:     models.ResponseEscalation,
			Confidence:       0.9,
			IntegrationsUsed: []string{"kustomer"},
		},
	}}
	handler := NewHandler(&Config{Timeout: time.Second}, processor, logger.NewTestLogger(t))

	out := handler.Execute(context.Background(), &Input{
		Message:  "I want a refund now",
		Customer: models.CustomerContext{ConversationID: "c1"},
	})

	assert.Equal(t, "I want a refund now", processor.message)
	assert.Equal(t, "c1", processor.customer.ConversationID)
	assert.Equal(t, "I've created a support ticket.", out.Reply)
	assert.True(t, out.Escalated)
	assert.Equal(t, []string{"kustomer"}, out.IntegrationsUsed)
	assert.Len(t, out.Actions, 1)
}

func TestExecute_FallbackCountsAsEscalated(t *testing.T) {
	processor := &fakeProcessor{response: models.FormattedResponse{
		Text:     "Let me connect you with a human agent.",
		Metadata: models.ResponseMetadata{Source: models.SourceFallback, ResponseType: models.ResponseGeneral, Reference: "ref-1"},
	}}
	handler := NewHandler(&Config{Timeout: time.Second}, processor, logger.NewNoOpLogger())

	out := handler.Execute(context.Background(), &Input{Message: "hi", Customer: models.CustomerContext{ConversationID: "c1"}})
	assert.True(t, out.Escalated)
	assert.Equal(t, "ref-1", out.Reference)
	assert.NotNil(t, out.Actions)
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		ConfigKey: {Enabled: true, Timeout: 15000},
	}}
	assert.Equal(t, 15*time.Second, LoadConfig(cfg).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(&config.Config{}).Timeout)
}
