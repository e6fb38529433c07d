// Package alerts notifies the support team when a high-priority escalation
// ticket is opened. It wraps a CustomerSupport provider so the dispatcher is
// unaware of it.
package alerts

import (
	"context"
	"fmt"
	"strings"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/common/metrics"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

const (
	ChannelEmail = "email"
	ChannelTopic = "topic"
)

type EmailSender interface {
	SendEmail(ctx context.Context, from string, to []string, subject, body string) error
}

type TopicPublisher interface {
	Publish(ctx context.Context, topicARN, subject, message string, attributes map[string]string) error
}

type Config struct {
	MinPriority models.Priority
	FromEmail   string
	ToEmails    []string
	TopicARN    string
}

type Option func(*Support)

func WithEmail(sender EmailSender) Option {
	return func(s *Support) { s.email = sender }
}

func WithTopic(publisher TopicPublisher) Option {
	return func(s *Support) { s.topic = publisher }
}

// Support is a CustomerSupport that alerts after creating qualifying tickets.
// Alert failures never fail the ticket.
type Support struct {
	inner  conversation.CustomerSupport
	cfg    Config
	email  EmailSender
	topic  TopicPublisher
	logger logger.Logger
}

func New(inner conversation.CustomerSupport, cfg Config, log logger.Logger, opts ...Option) *Support {
	if !cfg.MinPriority.AtLeast(models.PriorityMedium) {
		cfg.MinPriority = models.PriorityUrgent
	}
	s := &Support{
		inner:  inner,
		cfg:    cfg,
		logger: logger.ForComponent(log, "alerts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Support) Name() string { return s.inner.Name() }

func (s *Support) FindOrCreateCustomer(ctx context.Context, email, name string) (*models.Customer, error) {
	return s.inner.FindOrCreateCustomer(ctx, email, name)
}

func (s *Support) CreateTicket(ctx context.Context, req models.TicketRequest) (*models.Ticket, error) {
	ticket, err := s.inner.CreateTicket(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Priority.AtLeast(s.cfg.MinPriority) {
		s.notify(ctx, req, ticket)
	}
	return ticket, nil
}

func (s *Support) notify(ctx context.Context, req models.TicketRequest, ticket *models.Ticket) {
	subject := fmt.Sprintf("[%s] Support escalation %s", strings.ToUpper(string(req.Priority)), ticket.ID)
	body := alertBody(req, ticket, s.inner.Name())

	if s.email != nil && len(s.cfg.ToEmails) > 0 {
		err := s.email.SendEmail(ctx, s.cfg.FromEmail, s.cfg.ToEmails, subject, body)
		s.result(ChannelEmail, ticket.ID, err)
	}
	if s.topic != nil && s.cfg.TopicARN != "" {
		attrs := map[string]string{
			"priority": string(req.Priority),
			"reason":   string(req.Reason),
		}
		err := s.topic.Publish(ctx, s.cfg.TopicARN, subject, body, attrs)
		s.result(ChannelTopic, ticket.ID, err)
	}
}

func (s *Support) result(channel, ticketID string, err error) {
	if err != nil {
		metrics.EscalationAlerts.WithLabelValues(channel, metrics.OutcomeFailed).Inc()
		alertErr := errors.NewAlertSendFailedError(channel, err)
		s.logger.Warn("Escalation alert failed", map[string]interface{}{
			"ticketId": ticketID,
			"channel":  channel,
			"code":     alertErr.Code,
			"error":    alertErr.Error(),
		})
		return
	}
	metrics.EscalationAlerts.WithLabelValues(channel, metrics.OutcomeSuccess).Inc()
	s.logger.Info("Escalation alert sent", map[string]interface{}{
		"ticketId": ticketID,
		"channel":  channel,
	})
}

func alertBody(req models.TicketRequest, ticket *models.Ticket, crm string) string {
	lines := []string{
		fmt.Sprintf("Ticket: %s (%s)", ticket.ID, crm),
		fmt.Sprintf("Priority: %s", req.Priority),
		fmt.Sprintf("Reason: %s", req.Reason),
		fmt.Sprintf("Customer: %s", req.Email),
	}
	if req.ConversationID != "" {
		lines = append(lines, fmt.Sprintf("Conversation: %s", req.ConversationID))
	}
	lines = append(lines, "", req.Description)
	return strings.Join(lines, "\n")
}

func (s *Support) Ping(ctx context.Context) error {
	if p, ok := s.inner.(conversation.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
