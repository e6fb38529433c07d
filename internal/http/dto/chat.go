// internal/http/dto/chat.go
package dto

import (
	"time"

	"support-chatbot/internal/models"
)

// MessageRequest is the body of POST /api/v1/chat/messages.
type MessageRequest struct {
	Message  string                 `json:"message"`
	Customer models.CustomerContext `json:"customer"`
}

type MessageResponse struct {
	RequestID      string                   `json:"requestId"`
	ConversationID string                   `json:"conversationId"`
	Reply          models.FormattedResponse `json:"reply"`
}

type StatusResponse struct {
	Integrations map[string]string `json:"integrations"`
	CheckedAt    time.Time         `json:"checkedAt"`
}

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
