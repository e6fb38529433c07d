// internal/models/response.go
package models

import "time"

type QuickActionType string

const (
	QuickReply QuickActionType = "reply"
	QuickLink  QuickActionType = "link"
)

// QuickAction is a suggested reply button or link shown under a message.
type QuickAction struct {
	Type  QuickActionType `json:"type"`
	Label string          `json:"label"`
	Value string          `json:"value"`
}

// Response sources.
const (
	SourcePipeline = "pipeline"
	SourceAIBlend  = "ai_blend"
	SourceFallback = "fallback"
)

type ResponseMetadata struct {
	Source           string       `json:"source"`
	ResponseType     ResponseType `json:"responseType"`
	Confidence       float64      `json:"confidence"`
	IntegrationsUsed []string     `json:"integrationsUsed"`
	Intents          []Intent     `json:"intents,omitempty"`
	Reference        string       `json:"reference,omitempty"`
}

type FormattedResponse struct {
	Text     string           `json:"text"`
	Actions  []QuickAction    `json:"actions"`
	Metadata ResponseMetadata `json:"metadata"`
}

// Interaction is the analytics summary of one processed message.
type Interaction struct {
	ID               string       `json:"id"`
	ConversationID   string       `json:"conversationId"`
	TenantID         string       `json:"tenantId,omitempty"`
	Channel          string       `json:"channel,omitempty"`
	Message          string       `json:"message"`
	Intents          []Intent     `json:"intents"`
	ResponseType     ResponseType `json:"responseType"`
	Source           string       `json:"source"`
	Confidence       float64      `json:"confidence"`
	IntegrationsUsed []string     `json:"integrationsUsed"`
	Escalated        bool         `json:"escalated"`
	DurationMS       int64        `json:"durationMs"`
	CreatedAt        time.Time    `json:"createdAt"`
}
