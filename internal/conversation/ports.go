// Package conversation declares the capabilities the support pipeline depends on.
// Concrete providers live under internal/integrations and are wired in internal/app.
package conversation

import (
	"context"

	"support-chatbot/internal/models"
)

// ContextStore holds per-conversation memory between turns.
type ContextStore interface {
	Get(conversationID string) *models.ConversationContext
	Set(conversationID string, update models.ContextUpdate) *models.ConversationContext
}

// LabelResult is the outcome of an AI labelling call. Err set means the call
// failed and Labels must be ignored.
type LabelResult struct {
	Labels []models.Intent
	Err    error
}

func (r LabelResult) OK() bool { return r.Err == nil }

func LabelSuccess(labels []models.Intent) LabelResult {
	return LabelResult{Labels: labels}
}

func LabelFailure(err error) LabelResult {
	return LabelResult{Err: err}
}

// IntentLabeler asks an external model to pick labels from a closed set.
type IntentLabeler interface {
	Name() string
	Label(ctx context.Context, message string, allowed []models.Intent) LabelResult
}

// OrderLookup finds orders. FindOrderByNumber returns (nil, nil) when no order
// matches and a SEARCH_UNAVAILABLE error when the backend cannot search at all.
type OrderLookup interface {
	Name() string
	SearchOrdersByEmail(ctx context.Context, email string) ([]models.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*models.Order, error)
}

type ProductSearcher interface {
	Name() string
	SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error)
	ListProducts(ctx context.Context, limit int) ([]models.Product, error)
}

type CartLookup interface {
	Name() string
	DraftOrdersByEmail(ctx context.Context, email string) ([]models.DraftOrder, error)
}

// CustomerSupport is a CRM able to open escalation tickets.
type CustomerSupport interface {
	Name() string
	FindOrCreateCustomer(ctx context.Context, email, name string) (*models.Customer, error)
	CreateTicket(ctx context.Context, req models.TicketRequest) (*models.Ticket, error)
}

// ReplyGenerator produces a free-form answer for messages the pipeline could
// not route anywhere specific.
type ReplyGenerator interface {
	Name() string
	GenerateReply(ctx context.Context, message string, analysis models.IntentAnalysis) (string, error)
}

// Recorder persists an analytics summary of a processed message.
type Recorder interface {
	Record(ctx context.Context, interaction models.Interaction) error
}

// Pinger is implemented by adapters that can check their own connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Capabilities bundles the optional adapters. Nil fields are "not configured".
type Capabilities struct {
	Labeler  IntentLabeler
	Orders   OrderLookup
	Products ProductSearcher
	Carts    CartLookup
	Support  CustomerSupport
	Replies  ReplyGenerator
	Recorder Recorder
}
