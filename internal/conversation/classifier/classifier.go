// Package classifier turns a customer message into intents, entities and
// sentiment. It never fails: the optional AI step degrades to the
// pattern-based baseline.
package classifier

import (
	"context"
	"fmt"
	"time"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/common/metrics"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

const (
	matchBoost       = 0.2
	overrideBoost    = 0.3
	aiBoost          = 0.2
	entitySeed       = 0.8
	inheritedSeed    = 0.85
	fallbackSeed     = 0.7
	defaultAITimeout = 3 * time.Second
)

// ContextReader is the read side of the conversation store.
type ContextReader interface {
	Get(conversationID string) *models.ConversationContext
}

type Classifier struct {
	contexts  ContextReader
	labeler   conversation.IntentLabeler
	aiTimeout time.Duration
	logger    logger.Logger
}

type Option func(*Classifier)

// WithLabeler enables AI-assisted classification with the given per-call timeout.
func WithLabeler(labeler conversation.IntentLabeler, timeout time.Duration) Option {
	return func(c *Classifier) {
		c.labeler = labeler
		if timeout > 0 {
			c.aiTimeout = timeout
		}
	}
}

func New(contexts ContextReader, log logger.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		contexts:  contexts,
		aiTimeout: defaultAITimeout,
		logger:    logger.ForComponent(log, "classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze classifies message. knownEmail is an address the caller already has
// for the customer; it fills the email entity but never implies an intent.
func (c *Classifier) Analyze(ctx context.Context, message, knownEmail, conversationID string) models.IntentAnalysis {
	text := normalize(message)
	a := analysis{}

	// Baseline pattern pass.
	for _, group := range intentGroups {
		if group.matches(text) {
			a.add(group.intent, matchBoost)
		}
	}

	// Entities; a bare email or order number reads as an order follow-up.
	entities := ExtractEntities(message)
	if (entities.Email != "" || len(entities.OrderNumbers) > 0) && len(a.intents) == 0 {
		a.add(models.IntentOrderTracking, 0)
		a.raise(entitySeed)
	}
	if entities.Email == "" {
		entities.Email = knownEmail
	}

	if orderKeyword.MatchString(text) && (len(a.intents) == 0 || a.intents[0] != models.IntentOrderTracking) {
		a.prepend(models.IntentOrderTracking)
		a.boost(overrideBoost)
	}

	if len(a.intents) == 0 {
		c.inherit(&a, conversationID)
	}

	c.applyLabels(ctx, &a, message)

	sentiment, priority, escalate := scoreSentiment(text)

	if len(a.intents) == 0 {
		for _, bucket := range fallbackBuckets {
			if bucket.regex.MatchString(text) {
				a.add(bucket.intent, 0)
			}
		}
		if len(a.intents) > 0 {
			a.raise(fallbackSeed)
		}
	}

	result := models.IntentAnalysis{
		Intents:            a.intents,
		Entities:           entities,
		Sentiment:          sentiment,
		Priority:           priority,
		RequiresEscalation: escalate,
		Confidence:         a.confidence,
	}
	if result.Intents == nil {
		result.Intents = []models.Intent{}
	}

	c.logger.Debug("Message classified", map[string]interface{}{
		"conversationId":     conversationID,
		"intents":            result.Intents,
		"confidence":         result.Confidence,
		"sentiment":          result.Sentiment,
		"requiresEscalation": result.RequiresEscalation,
	})
	return result
}

func (c *Classifier) inherit(a *analysis, conversationID string) {
	if c.contexts == nil || conversationID == "" {
		return
	}
	existing := c.contexts.Get(conversationID)
	if existing == nil || existing.WaitingFor == models.SlotNone || !existing.ActiveIntent.Valid() {
		return
	}
	a.add(existing.ActiveIntent, 0)
	a.raise(inheritedSeed)
}

func (c *Classifier) applyLabels(ctx context.Context, a *analysis, message string) {
	if c.labeler == nil {
		return
	}

	result := c.label(ctx, message)
	if !result.OK() {
		metrics.AIClassifications.WithLabelValues(metrics.OutcomeFailed).Inc()
		c.logger.Warn("AI classification failed, using pattern baseline", map[string]interface{}{
			"labeler": c.labeler.Name(),
			"error":   result.Err.Error(),
			"code":    errors.CodeOf(result.Err),
		})
		return
	}

	accepted := 0
	for _, label := range result.Labels {
		if !label.Valid() {
			continue
		}
		a.add(label, 0)
		accepted++
	}
	if accepted == 0 {
		metrics.AIClassifications.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return
	}
	metrics.AIClassifications.WithLabelValues(metrics.OutcomeSuccess).Inc()
	a.boost(aiBoost)
}

// label calls the labeler under a timeout and turns a panic into a failure result.
func (c *Classifier) label(ctx context.Context, message string) (result conversation.LabelResult) {
	ctx, cancel := context.WithTimeout(ctx, c.aiTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = conversation.LabelFailure(errors.NewClassificationFailedError(fmt.Errorf("labeler panic: %v", r)))
		}
	}()

	result = c.labeler.Label(ctx, message, models.AllIntents)
	if result.Err == nil && ctx.Err() != nil {
		result = conversation.LabelFailure(errors.NewClassificationTimeoutError(ctx.Err()))
	}
	return result
}

func scoreSentiment(text string) (models.Sentiment, models.Priority, bool) {
	negative := countMatches(text, negativeKeywords)
	urgent := countMatches(text, urgentKeywords)

	sentiment := models.SentimentNeutral
	priority := models.PriorityMedium
	escalate := false

	switch {
	case urgent >= 1:
		priority = models.PriorityUrgent
		escalate = true
	case negative >= 2:
		priority = models.PriorityHigh
		escalate = true
	}

	if negative > 0 || urgent > 0 {
		sentiment = models.SentimentNegative
	} else if countMatches(text, positiveKeywords) > 0 {
		sentiment = models.SentimentPositive
	}
	return sentiment, priority, escalate
}

// analysis accumulates intents and confidence during one Analyze call.
// Confidence only ever goes up and is capped at 1.
type analysis struct {
	intents    []models.Intent
	confidence float64
}

func (a *analysis) has(intent models.Intent) bool {
	for _, i := range a.intents {
		if i == intent {
			return true
		}
	}
	return false
}

func (a *analysis) add(intent models.Intent, boost float64) {
	if a.has(intent) {
		return
	}
	a.intents = append(a.intents, intent)
	a.boost(boost)
}

func (a *analysis) prepend(intent models.Intent) {
	out := make([]models.Intent, 0, len(a.intents)+1)
	out = append(out, intent)
	for _, i := range a.intents {
		if i != intent {
			out = append(out, i)
		}
	}
	a.intents = out
}

func (a *analysis) boost(delta float64) {
	a.raise(a.confidence + delta)
}

func (a *analysis) raise(value float64) {
	if value > 1.0 {
		value = 1.0
	}
	if value > a.confidence {
		a.confidence = value
	}
}
