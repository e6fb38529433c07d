// internal/models/results.go
package models

// LookupStatus separates "nothing matched" from "the call failed".
type LookupStatus string

const (
	LookupFound    LookupStatus = "found"
	LookupNotFound LookupStatus = "not_found"
	LookupFailed   LookupStatus = "failed"
	LookupSkipped  LookupStatus = "skipped"
)

type OrderLookupResult struct {
	Status       LookupStatus `json:"status"`
	Email        string       `json:"email,omitempty"`
	OrderNumbers []string     `json:"orderNumbers,omitempty"`
	Orders       []Order      `json:"orders,omitempty"`
}

type ProductSearchResult struct {
	Status   LookupStatus `json:"status"`
	Query    string       `json:"query"`
	Products []Product    `json:"products,omitempty"`
}

type CartResult struct {
	Status LookupStatus `json:"status"`
	Email  string       `json:"email,omitempty"`
	Carts  []DraftOrder `json:"carts,omitempty"`
}

type TicketResult struct {
	Status     LookupStatus     `json:"status"`
	TicketID   string           `json:"ticketId,omitempty"`
	CustomerID string           `json:"customerId,omitempty"`
	Reason     EscalationReason `json:"reason"`
	Priority   Priority         `json:"priority"`
}

// CommerceResults holds everything fetched from the commerce backend.
type CommerceResults struct {
	Orders         *OrderLookupResult   `json:"orders,omitempty"`
	Products       *ProductSearchResult `json:"products,omitempty"`
	ProductDetails *ProductSearchResult `json:"productDetails,omitempty"`
	Cart           *CartResult          `json:"cart,omitempty"`
	Billing        *OrderLookupResult   `json:"billing,omitempty"`
}

type SupportResults struct {
	Ticket *TicketResult `json:"ticket,omitempty"`
}

// DispatchResults is the result bag keyed by capability family.
type DispatchResults struct {
	Commerce         CommerceResults `json:"commerce"`
	Support          SupportResults  `json:"support"`
	IntegrationsUsed []string        `json:"integrationsUsed"`
}

// UseIntegration records name once, keeping first-use order.
func (r *DispatchResults) UseIntegration(name string) {
	if name == "" {
		return
	}
	for _, n := range r.IntegrationsUsed {
		if n == name {
			return
		}
	}
	r.IntegrationsUsed = append(r.IntegrationsUsed, name)
}
