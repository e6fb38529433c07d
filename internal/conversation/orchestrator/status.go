// internal/conversation/orchestrator/status.go
package orchestrator

import (
	"context"
	"time"

	"support-chatbot/internal/conversation"
)

type CapabilityStatus string

const (
	StatusConnected     CapabilityStatus = "connected"
	StatusDisconnected  CapabilityStatus = "disconnected"
	StatusNotConfigured CapabilityStatus = "not_configured"
)

// Capability names reported by Status.
const (
	CapabilityAIClassification = "ai_classification"
	CapabilityOrders           = "orders"
	CapabilityProducts         = "products"
	CapabilityCarts            = "carts"
	CapabilitySupport          = "support"
	CapabilityAIReply          = "ai_reply"
	CapabilityRecorder         = "interactions"
)

const pingTimeout = 3 * time.Second

// Status probes every capability. Adapters implementing conversation.Pinger are
// pinged; the rest are reported connected when configured.
func (o *Orchestrator) Status(ctx context.Context) map[string]CapabilityStatus {
	candidates := map[string]interface{}{}
	if o.caps.Labeler != nil {
		candidates[CapabilityAIClassification] = o.caps.Labeler
	}
	if o.caps.Orders != nil {
		candidates[CapabilityOrders] = o.caps.Orders
	}
	if o.caps.Products != nil {
		candidates[CapabilityProducts] = o.caps.Products
	}
	if o.caps.Carts != nil {
		candidates[CapabilityCarts] = o.caps.Carts
	}
	if o.caps.Support != nil {
		candidates[CapabilitySupport] = o.caps.Support
	}
	if o.caps.Replies != nil {
		candidates[CapabilityAIReply] = o.caps.Replies
	}
	if o.caps.Recorder != nil {
		candidates[CapabilityRecorder] = o.caps.Recorder
	}

	report := map[string]CapabilityStatus{
		CapabilityAIClassification: StatusNotConfigured,
		CapabilityOrders:           StatusNotConfigured,
		CapabilityProducts:         StatusNotConfigured,
		CapabilityCarts:            StatusNotConfigured,
		CapabilitySupport:          StatusNotConfigured,
		CapabilityAIReply:          StatusNotConfigured,
		CapabilityRecorder:         StatusNotConfigured,
	}
	for name, capability := range candidates {
		report[name] = probe(ctx, capability)
	}
	return report
}

func probe(ctx context.Context, capability interface{}) CapabilityStatus {
	pinger, ok := capability.(conversation.Pinger)
	if !ok {
		return StatusConnected
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		return StatusDisconnected
	}
	return StatusConnected
}
