// internal/models/commerce.go
package models

import "time"

type Order struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	OrderNumber       string        `json:"orderNumber"`
	Email             string        `json:"email,omitempty"`
	TotalPrice        string        `json:"totalPrice"`
	Currency          string        `json:"currency"`
	FinancialStatus   string        `json:"financialStatus,omitempty"`
	FulfillmentStatus string        `json:"fulfillmentStatus,omitempty"`
	CancelledAt       *time.Time    `json:"cancelledAt,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	LineItems         []LineItem    `json:"lineItems"`
	Fulfillments      []Fulfillment `json:"fulfillments,omitempty"`
	ShippingAddress   *Address      `json:"shippingAddress,omitempty"`
}

// MatchesNumber reports whether n (with or without '#') identifies the order.
func (o Order) MatchesNumber(n string) bool {
	n = trimHash(n)
	if n == "" {
		return false
	}
	return trimHash(o.Name) == n || o.OrderNumber == n || o.ID == n
}

func trimHash(s string) string {
	for len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	return s
}

type LineItem struct {
	Title        string `json:"title"`
	VariantTitle string `json:"variantTitle,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
}

type Fulfillment struct {
	TrackingNumber  string    `json:"trackingNumber,omitempty"`
	TrackingCompany string    `json:"trackingCompany,omitempty"`
	TrackingURL     string    `json:"trackingUrl,omitempty"`
	ShipmentStatus  string    `json:"shipmentStatus,omitempty"`
	Status          string    `json:"status,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Address struct {
	Name     string `json:"name,omitempty"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
}

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	ProductType string    `json:"productType,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
}

// InStock reports whether any variant has inventory.
func (p Product) InStock() bool {
	for _, v := range p.Variants {
		if v.InventoryQuantity > 0 {
			return true
		}
	}
	return false
}

type Variant struct {
	Title             string `json:"title,omitempty"`
	Price             string `json:"price"`
	CompareAtPrice    string `json:"compareAtPrice,omitempty"`
	InventoryQuantity int    `json:"inventoryQuantity"`
}

// DraftOrder is an open cart-equivalent record.
type DraftOrder struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Status     string     `json:"status"`
	InvoiceURL string     `json:"invoiceUrl,omitempty"`
	TotalPrice string     `json:"totalPrice"`
	Currency   string     `json:"currency"`
	LineItems  []LineItem `json:"lineItems"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Customer is a CRM customer record.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// TicketRequest carries everything a CRM needs to open an escalation.
type TicketRequest struct {
	CustomerID     string           `json:"customerId"`
	Email          string           `json:"email"`
	ConversationID string           `json:"conversationId,omitempty"`
	Reason         EscalationReason `json:"reason"`
	Priority       Priority         `json:"priority"`
	Subject        string           `json:"subject"`
	Description    string           `json:"description"`
}

type Ticket struct {
	ID         string   `json:"id"`
	CustomerID string   `json:"customerId"`
	Priority   Priority `json:"priority"`
}
