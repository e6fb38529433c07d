// internal/models/intent.go
package models

// Intent is a categorical label for what the customer wants.
type Intent string

const (
	IntentOrderTracking     Intent = "orderTracking"
	IntentProductSearch     Intent = "productSearch"
	IntentCartInquiry       Intent = "cartInquiry"
	IntentProductQuestion   Intent = "productQuestion"
	IntentSupportEscalation Intent = "supportEscalation"
	IntentBillingInquiry    Intent = "billingInquiry"
)

// AllIntents is the closed label set, in classification order.
var AllIntents = []Intent{
	IntentOrderTracking,
	IntentProductSearch,
	IntentCartInquiry,
	IntentProductQuestion,
	IntentSupportEscalation,
	IntentBillingInquiry,
}

func (i Intent) Valid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

// ParseIntent accepts a label from an external classifier.
func ParseIntent(s string) (Intent, bool) {
	i := Intent(s)
	return i, i.Valid()
}

type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

type Priority string

const (
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities; unknown values rank below medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether p is as severe as other.
func (p Priority) AtLeast(other Priority) bool {
	return p.Rank() >= other.Rank()
}

type Entities struct {
	Email        string   `json:"email,omitempty"`
	OrderNumbers []string `json:"orderNumbers,omitempty"`
	Products     []string `json:"products,omitempty"`
}

// IntentAnalysis is the classifier output for one message.
type IntentAnalysis struct {
	Intents            []Intent  `json:"intents"`
	Entities           Entities  `json:"entities"`
	Sentiment          Sentiment `json:"sentiment"`
	Priority           Priority  `json:"priority"`
	RequiresEscalation bool      `json:"requiresEscalation"`
	Confidence         float64   `json:"confidence"`
}

func (a IntentAnalysis) HasIntent(intent Intent) bool {
	for _, i := range a.Intents {
		if i == intent {
			return true
		}
	}
	return false
}
