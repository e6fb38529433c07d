// internal/integrations/llm/replier.go
package llm

import (
	"context"
	"fmt"
	"strings"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/models"
)

const replyPrompt = `You are the customer support assistant of an online store.
Answer briefly and politely in at most three sentences.
You cannot look up orders, carts or accounts yourself; when the customer needs that, ask for their order number or email.
Never invent order details, prices or policies.`

// Replier writes a free-form answer for messages no template fits.
type Replier struct {
	client *Client
}

func NewReplier(client *Client) *Replier {
	return &Replier{client: client}
}

func (r *Replier) Name() string { return Name }

func (r *Replier) GenerateReply(ctx context.Context, message string, analysis models.IntentAnalysis) (string, error) {
	system := replyPrompt
	if analysis.Sentiment == models.SentimentNegative {
		system += "\nThe customer seems upset; acknowledge that first."
	}

	text, err := r.client.complete(ctx, system, message, 200)
	if err != nil {
		return "", errors.NewReplyGenerationError(err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.NewReplyGenerationError(fmt.Errorf("empty completion"))
	}
	return text, nil
}
