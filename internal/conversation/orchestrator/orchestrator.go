// Package orchestrator runs one inbound message through classify, plan,
// dispatch and format, and owns the human-handoff fallback.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/common/metrics"
	"support-chatbot/internal/common/observability"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/conversation/classifier"
	"support-chatbot/internal/conversation/dispatcher"
	"support-chatbot/internal/conversation/formatter"
	"support-chatbot/internal/conversation/planner"
	"support-chatbot/internal/models"
)

const (
	defaultReplyThreshold = 0.5
	defaultReplyTimeout   = 5 * time.Second
)

type Orchestrator struct {
	classifier *classifier.Classifier
	planner    *planner.Planner
	dispatcher *dispatcher.Dispatcher
	formatter  *formatter.Formatter

	caps           conversation.Capabilities
	obs            *observability.Observability
	replyEnabled   bool
	replyThreshold float64
	replyTimeout   time.Duration
	logger         logger.Logger
}

type options struct {
	obs            *observability.Observability
	labelTimeout   time.Duration
	lookupTimeout  time.Duration
	replyEnabled   bool
	replyThreshold float64
	replyTimeout   time.Duration
}

type Option func(*options)

func WithObservability(obs *observability.Observability) Option {
	return func(o *options) { o.obs = obs }
}

// WithAIClassification sets the timeout of the optional labeler call.
func WithAIClassification(timeout time.Duration) Option {
	return func(o *options) { o.labelTimeout = timeout }
}

// WithLookupTimeout bounds each dispatched action.
func WithLookupTimeout(timeout time.Duration) Option {
	return func(o *options) { o.lookupTimeout = timeout }
}

// WithAIReply enables blending a generated reply into low-confidence general answers.
func WithAIReply(threshold float64, timeout time.Duration) Option {
	return func(o *options) {
		o.replyEnabled = true
		o.replyThreshold = threshold
		if timeout > 0 {
			o.replyTimeout = timeout
		}
	}
}

// New wires the pipeline around store. Nil capabilities are treated as not configured.
func New(store conversation.ContextStore, caps conversation.Capabilities, log logger.Logger, opts ...Option) *Orchestrator {
	o := options{replyThreshold: defaultReplyThreshold, replyTimeout: defaultReplyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	var classifierOpts []classifier.Option
	if caps.Labeler != nil {
		classifierOpts = append(classifierOpts, classifier.WithLabeler(caps.Labeler, o.labelTimeout))
	}

	return &Orchestrator{
		classifier:     classifier.New(store, log, classifierOpts...),
		planner:        planner.New(store, log),
		dispatcher:     dispatcher.New(caps, log, dispatcher.WithActionTimeout(o.lookupTimeout)),
		formatter:      formatter.New(),
		caps:           caps,
		obs:            o.obs,
		replyEnabled:   o.replyEnabled,
		replyThreshold: o.replyThreshold,
		replyTimeout:   o.replyTimeout,
		logger:         logger.ForComponent(log, "orchestrator"),
	}
}

// passResult is what one pipeline pass produced, kept for recording.
type passResult struct {
	analysis models.IntentAnalysis
	plan     models.ResponsePlan
	response models.FormattedResponse
}

// ProcessMessage never fails: any error or panic inside the pipeline yields
// the fixed human-handoff reply.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message string, customer models.CustomerContext) models.FormattedResponse {
	start := time.Now()
	ctx, span := o.obs.StartSpan(ctx, "support.process_message",
		attribute.String("conversation.id", customer.ConversationID),
		attribute.String("tenant.id", customer.TenantID),
	)
	defer span.End()

	stage := "classify"
	pass, err := o.run(ctx, message, customer, &stage)
	if err != nil {
		reference := uuid.NewString()
		metrics.PipelineFailures.WithLabelValues(stage).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		o.logger.Error("Pipeline failed, handing off to a human", map[string]interface{}{
			"conversationId": customer.ConversationID,
			"stage":          stage,
			"reference":      reference,
			"code":           errors.CodeOf(err),
			"error":          err.Error(),
		})
		pass.response = formatter.HumanHandoff()
		pass.response.Metadata.Reference = reference
	}

	resp := pass.response
	duration := time.Since(start)
	responseType := string(resp.Metadata.ResponseType)
	metrics.MessagesProcessed.WithLabelValues(responseType, resp.Metadata.Source).Inc()
	metrics.PipelineDuration.WithLabelValues(responseType).Observe(duration.Seconds())
	o.obs.RecordMessageProcessed(ctx, responseType, resp.Metadata.Source)
	o.obs.RecordMessageDuration(ctx, duration, responseType)
	span.SetAttributes(
		attribute.String("response.type", responseType),
		attribute.String("response.source", resp.Metadata.Source),
	)

	o.record(ctx, message, customer, pass, duration)
	return resp
}

func (o *Orchestrator) run(ctx context.Context, message string, customer models.CustomerContext, stage *string) (pass passResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewPipelineFailedError(*stage, fmt.Errorf("panic: %v", r))
		}
	}()

	*stage = "classify"
	stageCtx, span := o.obs.StartSpan(ctx, "support.classify")
	pass.analysis = o.classifier.Analyze(stageCtx, message, customer.Email, customer.ConversationID)
	span.End()

	*stage = "plan"
	_, span = o.obs.StartSpan(ctx, "support.plan")
	pass.plan = o.planner.Plan(pass.analysis, message, customer.ConversationID)
	span.End()

	*stage = "dispatch"
	stageCtx, span = o.obs.StartSpan(ctx, "support.dispatch",
		attribute.Int("actions", len(pass.plan.Actions)))
	results := o.dispatcher.Execute(stageCtx, pass.plan.Actions, customer, message)
	span.End()

	*stage = "format"
	pass.response, err = o.formatter.Format(pass.plan, results, message)
	if err != nil {
		return pass, err
	}

	*stage = "reply"
	o.blendReply(ctx, message, pass.analysis, &pass.response)
	return pass, nil
}

// blendReply swaps in a generated answer for general replies the pipeline was
// unsure about. Generation failures keep the deterministic text.
func (o *Orchestrator) blendReply(ctx context.Context, message string, analysis models.IntentAnalysis, resp *models.FormattedResponse) {
	if !o.replyEnabled || o.caps.Replies == nil {
		return
	}
	if resp.Metadata.ResponseType != models.ResponseGeneral ||
		resp.Metadata.Confidence >= o.replyThreshold ||
		len(resp.Metadata.IntegrationsUsed) > 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, o.replyTimeout)
	defer cancel()

	text, err := o.caps.Replies.GenerateReply(ctx, message, analysis)
	if err != nil || strings.TrimSpace(text) == "" {
		if err == nil {
			err = errors.NewReplyGenerationError(fmt.Errorf("empty reply"))
		}
		o.logger.Warn("AI reply failed, keeping template reply", map[string]interface{}{
			"replier": o.caps.Replies.Name(),
			"code":    errors.CodeOf(err),
			"error":   err.Error(),
		})
		return
	}

	resp.Text = strings.TrimSpace(text)
	resp.Metadata.Source = models.SourceAIBlend
	resp.Metadata.IntegrationsUsed = append(resp.Metadata.IntegrationsUsed, o.caps.Replies.Name())
}

// record never lets a recorder failure or panic reach the caller; the reply
// is already decided.
func (o *Orchestrator) record(ctx context.Context, message string, customer models.CustomerContext, pass passResult, duration time.Duration) {
	if o.caps.Recorder == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err := errors.NewRecordFailedError("recorder", fmt.Errorf("panic: %v", r))
			o.logger.Error("Interaction recorder panicked", map[string]interface{}{
				"conversationId": customer.ConversationID,
				"code":           string(err.Code),
				"error":          err.Error(),
			})
		}
	}()

	resp := pass.response
	interaction := models.Interaction{
		ID:               uuid.NewString(),
		ConversationID:   customer.ConversationID,
		TenantID:         customer.TenantID,
		Channel:          customer.Channel,
		Message:          message,
		Intents:          pass.analysis.Intents,
		ResponseType:     resp.Metadata.ResponseType,
		Source:           resp.Metadata.Source,
		Confidence:       resp.Metadata.Confidence,
		IntegrationsUsed: resp.Metadata.IntegrationsUsed,
		Escalated:        resp.Metadata.Source == models.SourceFallback || pass.plan.HasAction(models.ActionEscalation),
		DurationMS:       duration.Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}
	if interaction.Intents == nil {
		interaction.Intents = []models.Intent{}
	}

	if err := o.caps.Recorder.Record(ctx, interaction); err != nil {
		o.logger.Warn("Failed to record interaction", map[string]interface{}{
			"conversationId": customer.ConversationID,
			"code":           errors.CodeOf(err),
			"error":          err.Error(),
		})
	}
}
