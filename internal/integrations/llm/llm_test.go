package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/models"
)

func completion(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]interface{}{"role": "assistant", "content": content},
		}},
		"usage": map[string]interface{}{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.AIConfig{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1/",
		Model:   "gpt-4o-mini",
	}, logger.NewTestLogger(t))
}

func TestLabeler_Label(t *testing.T) {
	var request map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion(`["cartInquiry", "somethingElse", "billingInquiry"]`)))
	})

	result := NewLabeler(client).Label(context.Background(), "what's in my basket", models.AllIntents)

	require.True(t, result.OK())
	assert.Equal(t, []models.Intent{models.IntentCartInquiry, models.IntentBillingInquiry}, result.Labels)
	assert.Equal(t, "gpt-4o-mini", request["model"])
	messages := request["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0].(map[string]interface{})["content"], "orderTracking")
}

func TestLabeler_RejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"prose", "The customer wants to track an order."},
		{"object", `{"labels":["orderTracking"]}`},
		{"non-string items", `[1, 2]`},
		{"duplicate items", `["orderTracking","orderTracking"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(completion(tt.content)))
			})

			result := NewLabeler(client).Label(context.Background(), "hi", models.AllIntents)
			require.False(t, result.OK())
			assert.True(t, errors.HasCode(result.Err, errors.ErrCodeClassificationFailed))
		})
	}
}

func TestLabeler_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := NewLabeler(client).Label(ctx, "hi", models.AllIntents)
	require.False(t, result.OK())
	assert.True(t, errors.HasCode(result.Err, errors.ErrCodeClassificationTimeout))
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []models.Intent
	}{
		{"empty array", `[]`, []models.Intent{}},
		{"fenced", "```json\n[\"orderTracking\"]\n```", []models.Intent{models.IntentOrderTracking}},
		{"case insensitive", `["ORDERTRACKING"]`, []models.Intent{models.IntentOrderTracking}},
		{"outside allowed set", `["productSearch"]`, []models.Intent{}},
	}

	allowed := []models.Intent{models.IntentOrderTracking}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLabels(tt.raw, allowed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplier_GenerateReply(t *testing.T) {
	var request map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion("  We ship worldwide within 5 days.  ")))
	})

	text, err := NewReplier(client).GenerateReply(context.Background(), "do you ship abroad?",
		models.IntentAnalysis{Sentiment: models.SentimentNegative})
	require.NoError(t, err)
	assert.Equal(t, "We ship worldwide within 5 days.", text)

	system := request["messages"].([]interface{})[0].(map[string]interface{})["content"]
	assert.Contains(t, system, "upset")
}

func TestReplier_Failures(t *testing.T) {
	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion("   ")))
	})
	_, err := NewReplier(empty).GenerateReply(context.Background(), "hi", models.IntentAnalysis{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeReplyGenerationErr))

	broken := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	})
	_, err = NewReplier(broken).GenerateReply(context.Background(), "hi", models.IntentAnalysis{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeReplyGenerationErr))
}
