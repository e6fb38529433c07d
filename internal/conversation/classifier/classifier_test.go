package classifier

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

type stubContexts map[string]*models.ConversationContext

func (s stubContexts) Get(id string) *models.ConversationContext { return s[id] }

type stubLabeler struct {
	result conversation.LabelResult
	panics bool
	delay  time.Duration
	calls  int
}

func (s *stubLabeler) Name() string { return "stub" }

func (s *stubLabeler) Label(ctx context.Context, message string, allowed []models.Intent) conversation.LabelResult {
	s.calls++
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return s.result
}

func newClassifier(t *testing.T, contexts ContextReader, opts ...Option) *Classifier {
	return New(contexts, logger.NewTestLogger(t), opts...)
}

func TestAnalyze_BaselinePatterns(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		intents    []models.Intent
		confidence float64
	}{
		{
			name:       "where is my order",
			message:    "Where is my order?",
			intents:    []models.Intent{models.IntentOrderTracking},
			confidence: 0.2,
		},
		{
			name:       "product search",
			message:    "I need headphones",
			intents:    []models.Intent{models.IntentProductSearch},
			confidence: 0.2,
		},
		{
			name:       "cart",
			message:    "what's in my cart",
			intents:    []models.Intent{models.IntentCartInquiry},
			confidence: 0.2,
		},
		{
			name:       "product question",
			message:    "is the blue jacket in stock",
			intents:    []models.Intent{models.IntentProductQuestion},
			confidence: 0.2,
		},
		{
			name:       "escalation request",
			message:    "let me speak to a human",
			intents:    []models.Intent{models.IntentSupportEscalation},
			confidence: 0.2,
		},
		{
			name:       "two groups add up",
			message:    "do you have a product with a warranty",
			intents:    []models.Intent{models.IntentProductSearch, models.IntentProductQuestion},
			confidence: 0.4,
		},
		{
			name:       "need help is not a product search",
			message:    "I need help with a human agent",
			intents:    []models.Intent{models.IntentSupportEscalation},
			confidence: 0.2,
		},
	}

	c := newClassifier(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Analyze(context.Background(), tt.message, "", "")
			assert.Equal(t, tt.intents, got.Intents)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestAnalyze_EmailWithoutContextSeedsOrderTracking(t *testing.T) {
	c := newClassifier(t, nil)

	got := c.Analyze(context.Background(), "my email is a@b.com", "", "")

	assert.Equal(t, "a@b.com", got.Entities.Email)
	assert.Equal(t, []models.Intent{models.IntentOrderTracking}, got.Intents)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestAnalyze_OrderNumberSeedsOrderTracking(t *testing.T) {
	c := newClassifier(t, nil)

	got := c.Analyze(context.Background(), "#10452", "", "")

	assert.Equal(t, []string{"10452"}, got.Entities.OrderNumbers)
	assert.Equal(t, []models.Intent{models.IntentOrderTracking}, got.Intents)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestAnalyze_KnownEmailDoesNotSeedIntent(t *testing.T) {
	c := newClassifier(t, nil)

	got := c.Analyze(context.Background(), "hello there", "known@b.com", "")

	assert.Equal(t, "known@b.com", got.Entities.Email)
	assert.Empty(t, got.Intents)
	assert.Zero(t, got.Confidence)
}

func TestAnalyze_OrderKeywordOverride(t *testing.T) {
	c := newClassifier(t, nil)

	got := c.Analyze(context.Background(), "I was charged twice for my order", "", "")

	require.NotEmpty(t, got.Intents)
	assert.Equal(t, models.IntentOrderTracking, got.Intents[0])
	assert.Contains(t, got.Intents, models.IntentBillingInquiry)
	// billing match 0.2 plus the override 0.3
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)
}

func TestAnalyze_InheritsPendingContext(t *testing.T) {
	contexts := stubContexts{
		"conv-1": {
			ConversationID: "conv-1",
			ActiveIntent:   models.IntentOrderTracking,
			WaitingFor:     models.SlotOrderNumber,
		},
		"conv-2": {
			ConversationID: "conv-2",
			ActiveIntent:   models.IntentOrderTracking,
		},
	}
	c := newClassifier(t, contexts)

	got := c.Analyze(context.Background(), "yes please", "", "conv-1")
	assert.Equal(t, []models.Intent{models.IntentOrderTracking}, got.Intents)
	assert.InDelta(t, 0.85, got.Confidence, 1e-9)

	notWaiting := c.Analyze(context.Background(), "yes please", "", "conv-2")
	assert.Empty(t, notWaiting.Intents)
}

func TestAnalyze_AILabelsAreUnioned(t *testing.T) {
	labeler := &stubLabeler{result: conversation.LabelSuccess([]models.Intent{
		models.IntentProductSearch,
		models.IntentCartInquiry,
		models.Intent("smallTalk"),
	})}
	c := newClassifier(t, nil, WithLabeler(labeler, time.Second))

	got := c.Analyze(context.Background(), "I need headphones", "", "")

	assert.Equal(t, 1, labeler.calls)
	assert.Equal(t, []models.Intent{models.IntentProductSearch, models.IntentCartInquiry}, got.Intents)
	assert.InDelta(t, 0.4, got.Confidence, 1e-9)
}

func TestAnalyze_AIFailureKeepsBaseline(t *testing.T) {
	tests := []struct {
		name    string
		labeler *stubLabeler
	}{
		{"error result", &stubLabeler{result: conversation.LabelFailure(stderrors.New("not an array"))}},
		{"panic", &stubLabeler{panics: true}},
		{"timeout", &stubLabeler{delay: time.Second, result: conversation.LabelSuccess([]models.Intent{models.IntentCartInquiry})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(t, nil, WithLabeler(tt.labeler, 20*time.Millisecond))

			got := c.Analyze(context.Background(), "where is my package", "", "")

			assert.Equal(t, []models.Intent{models.IntentOrderTracking}, got.Intents)
			assert.InDelta(t, 0.2, got.Confidence, 1e-9)
		})
	}
}

func TestAnalyze_Sentiment(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		sentiment models.Sentiment
		priority  models.Priority
		escalate  bool
	}{
		{"neutral", "do you sell hats", models.SentimentNeutral, models.PriorityMedium, false},
		{"positive", "thanks, that was great", models.SentimentPositive, models.PriorityMedium, false},
		{"one negative", "the box was damaged", models.SentimentNegative, models.PriorityMedium, false},
		{"two negatives", "this is ridiculous, I want a refund", models.SentimentNegative, models.PriorityHigh, true},
		{"urgent", "I need this fixed ASAP", models.SentimentNegative, models.PriorityUrgent, true},
		{"urgent beats negative", "terrible, awful, I will call my lawyer", models.SentimentNegative, models.PriorityUrgent, true},
	}

	c := newClassifier(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Analyze(context.Background(), tt.message, "", "")
			assert.Equal(t, tt.sentiment, got.Sentiment)
			assert.Equal(t, tt.priority, got.Priority)
			assert.Equal(t, tt.escalate, got.RequiresEscalation)
		})
	}
}

func TestAnalyze_AngryRefundIsBillingWithEscalation(t *testing.T) {
	c := newClassifier(t, nil)

	got := c.Analyze(context.Background(), "this is ridiculous, I want a refund", "", "")

	assert.Equal(t, []models.Intent{models.IntentBillingInquiry}, got.Intents)
	assert.True(t, got.RequiresEscalation)
}

func TestAnalyze_AggressiveFallback(t *testing.T) {
	c := newClassifier(t, nil)

	got := c.Analyze(context.Background(), "it still hasn't arrived", "", "")

	assert.Equal(t, []models.Intent{models.IntentOrderTracking}, got.Intents)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
}

func TestAnalyze_ConfidenceClamped(t *testing.T) {
	labeler := &stubLabeler{result: conversation.LabelSuccess(models.AllIntents)}
	c := newClassifier(t, nil, WithLabeler(labeler, time.Second))

	got := c.Analyze(context.Background(),
		"track my order, show me products in my cart, is it in stock, I want a human, refund my payment", "", "")

	assert.LessOrEqual(t, got.Confidence, 1.0)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	assert.Len(t, got.Intents, len(models.AllIntents))
}

func TestAnalyze_NoIntentsIsEmptySlice(t *testing.T) {
	c := newClassifier(t, nil)

	got := c.Analyze(context.Background(), "hello", "", "")

	assert.NotNil(t, got.Intents)
	assert.Empty(t, got.Intents)
}

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected models.Entities
	}{
		{
			name:     "email only",
			message:  "it's john.doe+shop@example.co.uk.",
			expected: models.Entities{Email: "john.doe+shop@example.co.uk"},
		},
		{
			name:     "hash and bare numbers",
			message:  "orders #1001 and 1002, also #1001 again",
			expected: models.Entities{OrderNumbers: []string{"1001", "1002"}},
		},
		{
			name:     "digits inside email ignored",
			message:  "user12345@mail.com",
			expected: models.Entities{Email: "user12345@mail.com"},
		},
		{
			name:     "short numbers ignored",
			message:  "I ordered 3 items",
			expected: models.Entities{},
		},
		{
			name:     "years are not order numbers",
			message:  "I ordered it in 2023 and again in 1999",
			expected: models.Entities{},
		},
		{
			name:     "hash keeps a year-like number",
			message:  "order #2023 please",
			expected: models.Entities{OrderNumbers: []string{"2023"}},
		},
		{
			name:     "phone and date fragments ignored",
			message:  "call me at 555-1234 or (415) 555-0199, bought 2023-05-01",
			expected: models.Entities{},
		},
		{
			name:     "number at end of sentence",
			message:  "my order is 10452.",
			expected: models.Entities{OrderNumbers: []string{"10452"}},
		},
		{
			name:     "quoted product",
			message:  `do you have "Aero Runner 2" in blue`,
			expected: models.Entities{Products: []string{"Aero Runner 2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractEntities(tt.message))
		})
	}
}
