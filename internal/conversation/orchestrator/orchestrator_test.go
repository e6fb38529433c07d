package orchestrator

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/conversation/conversationtest"
	"support-chatbot/internal/conversation/memory"
	"support-chatbot/internal/models"
)

type harness struct {
	orch     *Orchestrator
	store    *memory.Store
	commerce *conversationtest.Commerce
	support  *conversationtest.Support
	recorder *conversationtest.Recorder
}

func newHarness(t *testing.T, opts ...Option) *harness {
	h := &harness{
		store:    memory.NewStore(memory.DefaultTTL),
		commerce: conversationtest.NewCommerce(),
		support:  &conversationtest.Support{},
		recorder: &conversationtest.Recorder{},
	}
	caps := conversation.Capabilities{
		Orders:   h.commerce,
		Products: h.commerce,
		Carts:    h.commerce,
		Support:  h.support,
		Recorder: h.recorder,
	}
	h.orch = New(h.store, caps, logger.NewTestLogger(t), opts...)
	return h
}

func customer(id string) models.CustomerContext {
	return models.CustomerContext{ConversationID: id, TenantID: "tenant-1", Channel: "web"}
}

func TestProcessMessage_OrderWithoutInfoAsksForEmail(t *testing.T) {
	h := newHarness(t)

	resp := h.orch.ProcessMessage(context.Background(), "where is my order", customer("conv-a"))

	assert.Equal(t, models.ResponseOrderStatus, resp.Metadata.ResponseType)
	assert.Contains(t, resp.Text, "email address")
	assert.Empty(t, h.commerce.Calls, "no lookup runs without an email or order number")
	assert.Empty(t, resp.Metadata.IntegrationsUsed)

	ctx := h.store.Get("conv-a")
	require.NotNil(t, ctx)
	assert.Equal(t, models.SlotEmail, ctx.WaitingFor)
}

func TestProcessMessage_EmailFollowUpWithNoOrdersAsksForNumber(t *testing.T) {
	h := newHarness(t)

	h.orch.ProcessMessage(context.Background(), "where is my order", customer("conv-b"))
	resp := h.orch.ProcessMessage(context.Background(), "my email is a@b.com", customer("conv-b"))

	ctx := h.store.Get("conv-b")
	require.NotNil(t, ctx)
	assert.Equal(t, "a@b.com", ctx.CollectedData.Email)
	assert.Equal(t, models.SlotOrderNumber, ctx.WaitingFor)

	assert.Equal(t, []string{"orders_by_email:a@b.com"}, h.commerce.Calls)
	assert.Contains(t, resp.Text, "couldn't find any orders for a@b.com")
	assert.Contains(t, resp.Text, "order number")
	assert.Equal(t, []string{"fake-commerce"}, resp.Metadata.IntegrationsUsed)
}

func TestProcessMessage_ProductSearchStripsStopWords(t *testing.T) {
	h := newHarness(t)
	h.commerce.Products = []models.Product{{ID: "p1", Title: "Studio Headphones", Variants: []models.Variant{{Price: "99.00", InventoryQuantity: 3}}}}

	resp := h.orch.ProcessMessage(context.Background(), "I need headphones", customer("conv-c"))

	assert.Equal(t, models.ResponseProductRecommendations, resp.Metadata.ResponseType)
	assert.Equal(t, []string{"search_products:headphones"}, h.commerce.Calls)
	assert.Contains(t, resp.Text, "Studio Headphones")
	assert.Equal(t, []models.Intent{models.IntentProductSearch}, resp.Metadata.Intents)
}

func TestProcessMessage_AngryRefundEscalatesAndLooksUpBilling(t *testing.T) {
	h := newHarness(t)
	h.commerce.OrdersByEmail["a@b.com"] = []models.Order{{Name: "#1001", TotalPrice: "20.00", Currency: "USD", FinancialStatus: "paid"}}
	c := customer("conv-d")
	c.Email = "a@b.com"

	resp := h.orch.ProcessMessage(context.Background(), "this is ridiculous, I want a refund", c)

	assert.Equal(t, models.ResponseEscalation, resp.Metadata.ResponseType)
	require.Len(t, h.support.Tickets, 1)
	assert.Equal(t, models.PriorityHigh, h.support.Tickets[0].Priority)
	assert.Equal(t, models.ReasonNegativeSentiment, h.support.Tickets[0].Reason)
	assert.Contains(t, h.commerce.Calls, "orders_by_email:a@b.com", "billing lookup runs alongside escalation")
	assert.Contains(t, resp.Text, "support ticket T-1")

	require.Len(t, h.recorder.Interactions, 1)
	assert.True(t, h.recorder.Interactions[0].Escalated)
}

func TestProcessMessage_RepeatedEmptyLookupsKeepOfferingRetry(t *testing.T) {
	h := newHarness(t)

	first := h.orch.ProcessMessage(context.Background(), "my email is a@b.com and my order is #1001", customer("conv-e"))
	second := h.orch.ProcessMessage(context.Background(), "any news on #1001?", customer("conv-e"))

	for _, resp := range []models.FormattedResponse{first, second} {
		assert.Equal(t, models.ResponseOrderStatus, resp.Metadata.ResponseType)
		assert.Contains(t, resp.Text, "couldn't find any orders for a@b.com")
		assert.NotContains(t, resp.Text, "jane@example.com")

		var labels []string
		for _, a := range resp.Actions {
			labels = append(labels, a.Label)
		}
		assert.Contains(t, labels, "Try a different email")
		assert.Contains(t, labels, "Provide order number")
	}

	ctx := h.store.Get("conv-e")
	require.NotNil(t, ctx)
	assert.Equal(t, "a@b.com", ctx.CollectedData.Email)
	assert.Equal(t, []string{"1001"}, ctx.CollectedData.OrderNumbers)
	assert.Equal(t, models.SlotNone, ctx.WaitingFor)
}

func TestProcessMessage_OrderFound(t *testing.T) {
	h := newHarness(t)
	h.commerce.OrdersByEmail["a@b.com"] = []models.Order{{
		Name:              "#1001",
		TotalPrice:        "42.00",
		Currency:          "USD",
		FulfillmentStatus: "fulfilled",
		LineItems:         []models.LineItem{{Title: "Mug", Quantity: 2}},
	}}

	resp := h.orch.ProcessMessage(context.Background(), "track order for a@b.com", customer("conv-f"))

	assert.Contains(t, resp.Text, "Order #1001: Fulfilled")
	assert.Contains(t, resp.Text, "• 2 x Mug")
}

type panicStore struct{}

func (panicStore) Get(string) *models.ConversationContext { panic("store corrupted") }

func (panicStore) Set(string, models.ContextUpdate) *models.ConversationContext {
	panic("store corrupted")
}

func TestProcessMessage_FailureBoundary(t *testing.T) {
	recorder := &conversationtest.Recorder{}
	orch := New(panicStore{}, conversation.Capabilities{Recorder: recorder}, logger.NewTestLogger(t))

	resp := orch.ProcessMessage(context.Background(), "where is my order", customer("conv-x"))

	assert.Equal(t, models.SourceFallback, resp.Metadata.Source)
	assert.Contains(t, resp.Text, "human agent")
	assert.NotContains(t, resp.Text, "store corrupted")
	assert.NotEmpty(t, resp.Metadata.Reference)

	require.Len(t, recorder.Interactions, 1)
	assert.True(t, recorder.Interactions[0].Escalated)
	assert.Equal(t, models.SourceFallback, recorder.Interactions[0].Source)
}

func TestProcessMessage_AIReplyBlend(t *testing.T) {
	replier := &conversationtest.Replier{Reply: "  Hi! I can help with orders, products and more.  "}
	orch := New(memory.NewStore(0), conversation.Capabilities{Replies: replier}, logger.NewTestLogger(t),
		WithAIReply(0.5, time.Second))

	resp := orch.ProcessMessage(context.Background(), "hello", customer("conv-g"))

	assert.Equal(t, 1, replier.Calls)
	assert.Equal(t, models.SourceAIBlend, resp.Metadata.Source)
	assert.Equal(t, "Hi! I can help with orders, products and more.", resp.Text)
	assert.Equal(t, []string{"fake-replier"}, resp.Metadata.IntegrationsUsed)
	assert.NotEmpty(t, resp.Actions)
}

func TestProcessMessage_AIReplyFailureKeepsTemplate(t *testing.T) {
	replier := &conversationtest.Replier{Err: stderrors.New("rate limited")}
	orch := New(memory.NewStore(0), conversation.Capabilities{Replies: replier}, logger.NewTestLogger(t),
		WithAIReply(0.5, time.Second))

	resp := orch.ProcessMessage(context.Background(), "hello", customer("conv-h"))

	assert.Equal(t, models.SourcePipeline, resp.Metadata.Source)
	assert.Contains(t, resp.Text, "I can help you with")
}

func TestProcessMessage_AIReplyNotUsedWhenDisabledOrConfident(t *testing.T) {
	replier := &conversationtest.Replier{Reply: "generated"}

	disabled := New(memory.NewStore(0), conversation.Capabilities{Replies: replier}, logger.NewTestLogger(t))
	disabled.ProcessMessage(context.Background(), "hello", customer("conv-i"))

	h := newHarness(t, WithAIReply(0.5, time.Second))
	h.orch.caps.Replies = replier
	resp := h.orch.ProcessMessage(context.Background(), "where is my order", customer("conv-j"))

	assert.Equal(t, 0, replier.Calls)
	assert.Equal(t, models.SourcePipeline, resp.Metadata.Source)
}

func TestProcessMessage_AILabelsRoute(t *testing.T) {
	commerce := conversationtest.NewCommerce()
	labeler := &conversationtest.Labeler{Result: conversation.LabelSuccess([]models.Intent{models.IntentProductSearch})}
	orch := New(memory.NewStore(0), conversation.Capabilities{Labeler: labeler, Products: commerce}, logger.NewTestLogger(t),
		WithAIClassification(time.Second))

	resp := orch.ProcessMessage(context.Background(), "hello there", customer("conv-k"))

	assert.Equal(t, models.ResponseProductRecommendations, resp.Metadata.ResponseType)
	assert.Equal(t, []string{"list_products"}, commerce.Calls)
}

func TestProcessMessage_RecorderFailureIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.recorder.Err = stderrors.New("db down")

	resp := h.orch.ProcessMessage(context.Background(), "where is my order", customer("conv-l"))

	assert.Equal(t, models.SourcePipeline, resp.Metadata.Source)
	require.Len(t, h.recorder.Interactions, 1)
	rec := h.recorder.Interactions[0]
	assert.Equal(t, "conv-l", rec.ConversationID)
	assert.Equal(t, "tenant-1", rec.TenantID)
	assert.Equal(t, models.ResponseOrderStatus, rec.ResponseType)
	assert.NotEmpty(t, rec.ID)
}

type panicRecorder struct{}

func (panicRecorder) Record(context.Context, models.Interaction) error { panic("recorder boom") }

func TestProcessMessage_RecorderPanicIsContained(t *testing.T) {
	orch := New(memory.NewStore(0), conversation.Capabilities{Recorder: panicRecorder{}}, logger.NewTestLogger(t))

	var resp models.FormattedResponse
	require.NotPanics(t, func() {
		resp = orch.ProcessMessage(context.Background(), "hello", customer("conv-m"))
	})
	assert.Equal(t, models.ResponseGeneral, resp.Metadata.ResponseType)
	assert.Equal(t, models.SourcePipeline, resp.Metadata.Source)
}

func TestProcessMessage_LookupPanicOffersRetry(t *testing.T) {
	h := newHarness(t)
	h.commerce.PanicOnOrders = true

	resp := h.orch.ProcessMessage(context.Background(), "where is my order? my email is a@b.com", customer("conv-n"))

	assert.Equal(t, models.ResponseOrderStatus, resp.Metadata.ResponseType)
	assert.Equal(t, models.SourcePipeline, resp.Metadata.Source)
	assert.Contains(t, resp.Text, "trouble reaching our order system")
	assert.NotContains(t, resp.Text, "jane@example.com")
}

func TestStatus(t *testing.T) {
	commerce := conversationtest.NewCommerce()
	orders := &conversationtest.Pinger{Commerce: commerce, Err: stderrors.New("401")}
	products := &conversationtest.Pinger{Commerce: commerce}
	orch := New(memory.NewStore(0), conversation.Capabilities{
		Orders:   orders,
		Products: products,
		Carts:    commerce,
	}, logger.NewTestLogger(t))

	status := orch.Status(context.Background())

	assert.Equal(t, StatusDisconnected, status[CapabilityOrders])
	assert.Equal(t, StatusConnected, status[CapabilityProducts])
	assert.Equal(t, StatusConnected, status[CapabilityCarts])
	assert.Equal(t, StatusNotConfigured, status[CapabilitySupport])
	assert.Equal(t, StatusNotConfigured, status[CapabilityAIClassification])
	assert.Len(t, status, 7)
}
