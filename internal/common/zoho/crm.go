// Package zoho is a CustomerSupport provider backed by Zoho CRM: customers
// are Contacts and escalations are Cases.
package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/errors"
	httpclient "support-chatbot/internal/common/http"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/models"
)

const (
	Name = "zoho"

	defaultBaseURL = "https://www.zohoapis.com/crm/v3"
)

// Zoho Cases only know Low, Medium and High.
var casePriorities = map[models.Priority]string{
	models.PriorityMedium: "Medium",
	models.PriorityHigh:   "High",
	models.PriorityUrgent: "High",
}

type CRMClient struct {
	http   *httpclient.Client
	logger logger.Logger
}

type Contact struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"Email"`
	FirstName string `json:"First_Name,omitempty"`
	LastName  string `json:"Last_Name"`
	Source    string `json:"Lead_Source,omitempty"`
}

func (c Contact) fullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type Case struct {
	Subject     string `json:"Subject"`
	Description string `json:"Description"`
	Priority    string `json:"Priority"`
	Status      string `json:"Status"`
	Origin      string `json:"Case_Origin"`
	Email       string `json:"Email,omitempty"`
	ContactID   string `json:"Related_To,omitempty"`
}

type writeResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func (r writeResponse) id() (string, error) {
	if len(r.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if r.Data[0].Status != "success" {
		return "", fmt.Errorf("%s: %s", r.Data[0].Code, r.Data[0].Message)
	}
	return r.Data[0].Details.ID, nil
}

func NewCRMClient(cfg config.ZohoConfig, log logger.Logger, opts ...httpclient.Option) *CRMClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	opts = append([]httpclient.Option{
		httpclient.WithHeader("Authorization", "Zoho-oauthtoken "+cfg.AuthToken),
		httpclient.WithMaxRetries(2),
	}, opts...)

	return &CRMClient{
		http:   httpclient.NewClient(base, 30*time.Second, opts...),
		logger: logger.ForComponent(log, "zoho"),
	}
}

func (c *CRMClient) Name() string { return Name }

// SearchContacts returns the contacts with the given email. Zoho answers 204
// with an empty body when nothing matches.
func (c *CRMClient) SearchContacts(ctx context.Context, email string) ([]Contact, error) {
	var result struct {
		Data []Contact `json:"data"`
	}
	err := c.http.DoJSON(ctx, http.MethodGet, "/Contacts/search", url.Values{"email": {email}}, nil, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return result.Data, nil
}

func (c *CRMClient) CreateContact(ctx context.Context, contact *Contact) (string, error) {
	payload := map[string]interface{}{"data": []Contact{*contact}}

	var resp writeResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, "/Contacts", nil, payload, &resp); err != nil {
		return "", fmt.Errorf("failed to create contact: %w", err)
	}
	id, err := resp.id()
	if err != nil {
		return "", fmt.Errorf("contact creation failed: %w", err)
	}
	return id, nil
}

func (c *CRMClient) CreateCase(ctx context.Context, cs *Case) (string, error) {
	payload := map[string]interface{}{"data": []Case{*cs}}

	var resp writeResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, "/Cases", nil, payload, &resp); err != nil {
		return "", fmt.Errorf("failed to create case: %w", err)
	}
	id, err := resp.id()
	if err != nil {
		return "", fmt.Errorf("case creation failed: %w", err)
	}
	return id, nil
}

func (c *CRMClient) FindOrCreateCustomer(ctx context.Context, email, name string) (*models.Customer, error) {
	contacts, err := c.SearchContacts(ctx, email)
	if err != nil {
		return nil, errors.NewCRMAPIError("find_customer", err)
	}
	if len(contacts) > 0 {
		return &models.Customer{ID: contacts[0].ID, Email: email, Name: contacts[0].fullName()}, nil
	}

	contact := newContact(email, name)
	id, err := c.CreateContact(ctx, contact)
	if err != nil {
		return nil, errors.NewCRMAPIError("create_customer", err)
	}

	c.logger.Info("Contact created", map[string]interface{}{"contactId": id})
	return &models.Customer{ID: id, Email: email, Name: contact.fullName()}, nil
}

// newContact splits name into Zoho's first and last name fields. Last_Name is
// mandatory, so the email's local part stands in when no name is known.
func newContact(email, name string) *Contact {
	contact := &Contact{Email: email, Source: "Chat"}
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		contact.LastName = strings.SplitN(email, "@", 2)[0]
	case 1:
		contact.LastName = parts[0]
	default:
		contact.FirstName = strings.Join(parts[:len(parts)-1], " ")
		contact.LastName = parts[len(parts)-1]
	}
	return contact
}

func (c *CRMClient) CreateTicket(ctx context.Context, req models.TicketRequest) (*models.Ticket, error) {
	priority, ok := casePriorities[req.Priority]
	if !ok {
		priority = "Medium"
	}
	subject := req.Subject
	if req.Priority == models.PriorityUrgent {
		subject = "[URGENT] " + subject
	}

	id, err := c.CreateCase(ctx, &Case{
		Subject:     subject,
		Description: req.Description,
		Priority:    priority,
		Status:      "New",
		Origin:      "Chat",
		Email:       req.Email,
		ContactID:   req.CustomerID,
	})
	if err != nil {
		return nil, errors.NewCRMAPIError("create_ticket", err)
	}
	return &models.Ticket{ID: id, CustomerID: req.CustomerID, Priority: req.Priority}, nil
}

func (c *CRMClient) Ping(ctx context.Context) error {
	if err := c.http.DoJSON(ctx, http.MethodGet, "/users", url.Values{"type": {"CurrentUser"}}, nil, nil); err != nil {
		return errors.NewCRMAPIError("ping", err)
	}
	return nil
}
