// internal/workers/support/process-message/models.go
package processmessage

import "support-chatbot/internal/models"

// Input is the job variable shape the worker reads.
type Input struct {
	Message  string                 `json:"message"`
	Customer models.CustomerContext `json:"customer"`
}

// Output is merged into the process instance variables on completion.
type Output struct {
	Reply            string               `json:"supportReply"`
	Actions          []models.QuickAction `json:"supportActions"`
	ResponseType     models.ResponseType  `json:"supportResponseType"`
	Source           string               `json:"supportSource"`
	Confidence       float64              `json:"supportConfidence"`
	IntegrationsUsed []string             `json:"supportIntegrationsUsed"`
	Escalated        bool                 `json:"supportEscalated"`
	Reference        string               `json:"supportReference,omitempty"`
}
