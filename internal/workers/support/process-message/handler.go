// Package processmessage runs one customer message through the support
// pipeline as a BPMN service task.
package processmessage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/common/metrics"
	"support-chatbot/internal/common/validation"
	"support-chatbot/internal/models"
)

const (
	TaskType = "support.message.process"

	defaultChannel = "workflow"
)

// MessageProcessor is satisfied by the orchestrator.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message string, customer models.CustomerContext) models.FormattedResponse
}

type Handler struct {
	config       *Config
	processor    MessageProcessor
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, processor MessageProcessor, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		processor:    processor,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("Processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput([]byte(job.GetVariables()))
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, input)

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, errors.NewInputParsingError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("Job completed", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"responseType": output.ResponseType,
		"escalated":    output.Escalated,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// ParseInput validates raw job variables and binds them to Input.
func ParseInput(raw []byte) (*Input, error) {
	_, result, err := validation.DecodeAndValidate(raw, validation.MessageInputSchema)
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	if !result.Valid {
		return nil, errors.NewInvalidRequestError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	if input.Customer.Channel == "" {
		input.Customer.Channel = defaultChannel
	}
	return &input, nil
}

// Execute never fails: pipeline errors already surface as the fallback reply.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	resp := h.processor.ProcessMessage(ctx, input.Message, input.Customer)
	actions := resp.Actions
	if actions == nil {
		actions = []models.QuickAction{}
	}
	return &Output{
		Reply:            resp.Text,
		Actions:          actions,
		ResponseType:     resp.Metadata.ResponseType,
		Source:           resp.Metadata.Source,
		Confidence:       resp.Metadata.Confidence,
		IntegrationsUsed: resp.Metadata.IntegrationsUsed,
		Escalated:        resp.Metadata.ResponseType == models.ResponseEscalation || resp.Metadata.Source == models.SourceFallback,
		Reference:        resp.Metadata.Reference,
	}
}
