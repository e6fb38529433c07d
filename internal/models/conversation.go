// internal/models/conversation.go
package models

import "time"

// Slot names the piece of information the bot is waiting for.
type Slot string

const (
	SlotNone        Slot = ""
	SlotEmail       Slot = "email"
	SlotOrderNumber Slot = "order_number"
)

type CollectedData struct {
	Email        string   `json:"email,omitempty"`
	OrderNumbers []string `json:"orderNumbers,omitempty"`
}

// ConversationContext is the short-lived memory of one conversation.
type ConversationContext struct {
	ConversationID string        `json:"conversationId"`
	ActiveIntent   Intent        `json:"activeIntent,omitempty"`
	WaitingFor     Slot          `json:"waitingFor,omitempty"`
	CollectedData  CollectedData `json:"collectedData"`
	Timestamp      time.Time     `json:"timestamp"`
	MessageCount   int           `json:"messageCount"`
}

// Clone returns a deep copy so callers never alias stored state.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	out := *c
	if c.CollectedData.OrderNumbers != nil {
		out.CollectedData.OrderNumbers = append([]string(nil), c.CollectedData.OrderNumbers...)
	}
	return &out
}

func (c *ConversationContext) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.Timestamp) > ttl
}

// ContextUpdate is a partial write. A nil field means "no value supplied" and
// leaves the stored value untouched; OrderNumbers replaces the stored list
// whenever it is non-nil.
type ContextUpdate struct {
	ActiveIntent *Intent
	WaitingFor   *Slot
	Email        *string
	OrderNumbers []string
}

// CustomerContext is supplied by the caller with every inbound message.
type CustomerContext struct {
	ConversationID string `json:"conversationId"`
	TenantID       string `json:"tenantId,omitempty"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	Channel        string `json:"channel,omitempty"`
}
