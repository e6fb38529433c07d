// Package kustomer implements CustomerSupport against the Kustomer REST API:
// escalations become conversations carrying an internal note.
package kustomer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/errors"
	httpclient "support-chatbot/internal/common/http"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/models"
)

const (
	Name = "kustomer"

	defaultBaseURL = "https://api.kustomerapp.com"
	defaultTimeout = 10 * time.Second
)

// Kustomer priorities run 1 (lowest) to 5 (highest).
var priorities = map[models.Priority]int{
	models.PriorityMedium: 3,
	models.PriorityHigh:   4,
	models.PriorityUrgent: 5,
}

type Client struct {
	http   *httpclient.Client
	logger logger.Logger
}

func New(cfg config.KustomerConfig, log logger.Logger, opts ...httpclient.Option) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts = append([]httpclient.Option{
		httpclient.WithHeader("Authorization", "Bearer "+cfg.APIKey),
		httpclient.WithMaxRetries(2),
	}, opts...)

	return &Client{
		http:   httpclient.NewClient(base, timeout, opts...),
		logger: logger.ForComponent(log, "kustomer"),
	}
}

func (c *Client) Name() string { return Name }

type resource struct {
	ID         string `json:"id"`
	Attributes struct {
		Name   string `json:"name"`
		Emails []struct {
			Email string `json:"email"`
		} `json:"emails"`
	} `json:"attributes"`
}

type envelope struct {
	Data resource `json:"data"`
}

func (r resource) toCustomer(fallbackEmail string) *models.Customer {
	email := fallbackEmail
	if len(r.Attributes.Emails) > 0 && r.Attributes.Emails[0].Email != "" {
		email = r.Attributes.Emails[0].Email
	}
	return &models.Customer{ID: r.ID, Email: email, Name: r.Attributes.Name}
}

// FindOrCreateCustomer looks the customer up by email and creates one on 404.
func (c *Client) FindOrCreateCustomer(ctx context.Context, email, name string) (*models.Customer, error) {
	var found envelope
	err := c.http.DoJSON(ctx, http.MethodGet, "/v1/customers/email="+url.PathEscape(email), nil, nil, &found)
	if err == nil && found.Data.ID != "" {
		return found.Data.toCustomer(email), nil
	}
	if err != nil && !httpclient.IsStatus(err, http.StatusNotFound) {
		return nil, errors.NewCRMAPIError("find_customer", err)
	}

	if name == "" {
		name = email
	}
	body := map[string]interface{}{
		"name":   name,
		"emails": []map[string]string{{"email": email}},
	}
	var created envelope
	if err := c.http.DoJSON(ctx, http.MethodPost, "/v1/customers", nil, body, &created); err != nil {
		return nil, errors.NewCRMAPIError("create_customer", err)
	}
	if created.Data.ID == "" {
		return nil, errors.NewCRMAPIError("create_customer", fmt.Errorf("response carried no customer id"))
	}

	c.logger.Info("Customer created", map[string]interface{}{"customerId": created.Data.ID})
	return created.Data.toCustomer(email), nil
}

// CreateTicket opens a conversation for the customer and attaches the
// description as a note. A failed note does not fail the ticket.
func (c *Client) CreateTicket(ctx context.Context, req models.TicketRequest) (*models.Ticket, error) {
	priority, ok := priorities[req.Priority]
	if !ok {
		priority = priorities[models.PriorityMedium]
	}
	body := map[string]interface{}{
		"customer": req.CustomerID,
		"name":     req.Subject,
		"priority": priority,
		"tags":     []string{"chatbot", string(req.Reason)},
	}

	var conv envelope
	if err := c.http.DoJSON(ctx, http.MethodPost, "/v1/conversations", nil, body, &conv); err != nil {
		return nil, errors.NewCRMAPIError("create_conversation", err)
	}
	if conv.Data.ID == "" {
		return nil, errors.NewCRMAPIError("create_conversation", fmt.Errorf("response carried no conversation id"))
	}

	note := map[string]interface{}{"body": req.Description}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/v1/conversations/"+conv.Data.ID+"/notes", nil, note, nil); err != nil {
		c.logger.Warn("Failed to attach note to conversation", map[string]interface{}{
			"conversationId": conv.Data.ID,
			"error":          err.Error(),
		})
	}

	return &models.Ticket{ID: conv.Data.ID, CustomerID: req.CustomerID, Priority: req.Priority}, nil
}

// Ping checks the API key.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.http.DoJSON(ctx, http.MethodGet, "/v1/users/current", nil, nil, nil); err != nil {
		return errors.NewCRMAPIError("ping", err)
	}
	return nil
}
