// internal/integrations/llm/labeler.go
package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

const labelSchema = `{
  "type": "array",
  "maxItems": 6,
  "uniqueItems": true,
  "items": {"type": "string", "minLength": 1}
}`

var labelSchemaLoader = gojsonschema.NewStringLoader(labelSchema)

// Labeler asks the model to pick intents from a closed set. Anything other
// than a JSON array of strings is a failed call; strings outside the allowed
// set are dropped.
type Labeler struct {
	client *Client
}

func NewLabeler(client *Client) *Labeler {
	return &Labeler{client: client}
}

func (l *Labeler) Name() string { return Name }

func (l *Labeler) Label(ctx context.Context, message string, allowed []models.Intent) conversation.LabelResult {
	names := make([]string, 0, len(allowed))
	for _, i := range allowed {
		names = append(names, string(i))
	}

	system := "You label customer support messages for an online store. " +
		"Reply with a JSON array containing zero or more of these labels and nothing else: " +
		strings.Join(names, ", ") + "."

	content, err := l.client.complete(ctx, system, message, 50)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return conversation.LabelFailure(errors.NewClassificationTimeoutError(err))
		}
		return conversation.LabelFailure(errors.NewClassificationFailedError(err))
	}

	labels, err := parseLabels(content, allowed)
	if err != nil {
		return conversation.LabelFailure(errors.NewClassificationFailedError(err))
	}
	return conversation.LabelSuccess(labels)
}

// parseLabels validates raw against the label schema and keeps the allowed
// labels in the order given.
func parseLabels(raw string, allowed []models.Intent) ([]models.Intent, error) {
	raw = stripFences(raw)

	var labels []string
	doc := gojsonschema.NewStringLoader(raw)
	result, err := gojsonschema.Validate(labelSchemaLoader, doc)
	if err != nil {
		return nil, fmt.Errorf("label response is not JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("label response failed validation: %s", strings.Join(msgs, "; "))
	}

	value, err := doc.LoadJSON()
	if err != nil {
		return nil, fmt.Errorf("label response is not JSON: %w", err)
	}
	for _, item := range value.([]interface{}) {
		labels = append(labels, item.(string))
	}

	out := []models.Intent{}
	for _, label := range labels {
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(label), string(a)) {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
