// Package dispatcher executes planned actions against the configured
// commerce and CRM adapters. Actions run one after another; a failing action
// is logged and marked failed without stopping the rest.
package dispatcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/common/metrics"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

const (
	defaultProductLimit = 5
	detailsLimit        = 3
)

type Dispatcher struct {
	orders   conversation.OrderLookup
	products conversation.ProductSearcher
	carts    conversation.CartLookup
	support  conversation.CustomerSupport

	actionTimeout time.Duration
	productLimit  int
	logger        logger.Logger
}

type Option func(*Dispatcher)

// WithActionTimeout bounds each action's external calls.
func WithActionTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.actionTimeout = d }
}

func WithProductLimit(n int) Option {
	return func(dp *Dispatcher) {
		if n > 0 {
			dp.productLimit = n
		}
	}
}

func New(caps conversation.Capabilities, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		orders:       caps.Orders,
		products:     caps.Products,
		carts:        caps.Carts,
		support:      caps.Support,
		productLimit: defaultProductLimit,
		logger:       logger.ForComponent(log, "dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs actions in order and collects their results by capability family.
func (d *Dispatcher) Execute(ctx context.Context, actions []models.Action, customer models.CustomerContext, message string) models.DispatchResults {
	results := models.DispatchResults{IntegrationsUsed: []string{}}

	for _, action := range actions {
		d.run(ctx, action, customer, message, &results)
	}
	return results
}

func (d *Dispatcher) run(ctx context.Context, action models.Action, customer models.CustomerContext, message string, results *models.DispatchResults) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Action panicked", map[string]interface{}{
				"action": string(action.Kind()),
				"panic":  fmt.Sprint(r),
			})
			d.markFailed(action, customer, results)
		}
	}()

	if d.actionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.actionTimeout)
		defer cancel()
	}

	switch a := action.(type) {
	case models.OrderLookupAction:
		results.Commerce.Orders = d.lookupOrders(ctx, a, customer, results)
	case models.ProductSearchAction:
		results.Commerce.Products = d.searchProducts(ctx, a.Query, d.productLimit, action.Kind(), results)
	case models.ProductDetailsAction:
		results.Commerce.ProductDetails = d.searchProducts(ctx, a.Query, detailsLimit, action.Kind(), results)
	case models.CartViewAction:
		results.Commerce.Cart = d.viewCart(ctx, a, customer, results)
	case models.EscalationAction:
		results.Support.Ticket = d.escalate(ctx, a, customer, message, results)
	case models.BillingAction:
		results.Commerce.Billing = d.lookupBilling(ctx, a, customer, results)
	default:
		err := errors.NewUnsupportedActionError(string(action.Kind()))
		d.logger.Error("Unsupported action", map[string]interface{}{"error": err.Error()})
	}
}

// markFailed fills the action's result slot after a panic so the formatter
// answers with a retry message instead of treating the lookup as never run.
func (d *Dispatcher) markFailed(action models.Action, customer models.CustomerContext, results *models.DispatchResults) {
	switch a := action.(type) {
	case models.OrderLookupAction:
		results.Commerce.Orders = &models.OrderLookupResult{
			Status:       models.LookupFailed,
			Email:        firstNonEmpty(a.Email, customer.Email),
			OrderNumbers: a.OrderNumbers,
		}
	case models.ProductSearchAction:
		results.Commerce.Products = &models.ProductSearchResult{Status: models.LookupFailed, Query: a.Query}
	case models.ProductDetailsAction:
		results.Commerce.ProductDetails = &models.ProductSearchResult{Status: models.LookupFailed, Query: a.Query}
	case models.CartViewAction:
		// An unreadable cart is shown as an empty one.
		results.Commerce.Cart = &models.CartResult{
			Status: models.LookupNotFound,
			Email:  firstNonEmpty(a.Email, customer.Email),
			Carts:  []models.DraftOrder{},
		}
	case models.EscalationAction:
		results.Support.Ticket = &models.TicketResult{Status: models.LookupFailed, Reason: a.Reason, Priority: a.Priority}
	case models.BillingAction:
		results.Commerce.Billing = &models.OrderLookupResult{
			Status:       models.LookupFailed,
			Email:        firstNonEmpty(a.Email, customer.Email),
			OrderNumbers: a.OrderNumbers,
		}
	}
}

func (d *Dispatcher) lookupOrders(ctx context.Context, a models.OrderLookupAction, customer models.CustomerContext, results *models.DispatchResults) *models.OrderLookupResult {
	email := firstNonEmpty(a.Email, customer.Email)
	res := &models.OrderLookupResult{Email: email, OrderNumbers: a.OrderNumbers}

	if d.orders == nil {
		res.Status = models.LookupSkipped
		d.record("orders", models.ActionOrderLookup, metrics.OutcomeSkipped)
		return res
	}
	results.UseIntegration(d.orders.Name())

	failed := false
	if email != "" {
		orders, err := d.orders.SearchOrdersByEmail(ctx, email)
		if err != nil {
			failed = true
			d.logFailure(ctx, d.orders.Name(), "search_orders_by_email", err)
		} else if len(orders) > 0 {
			res.Orders = narrowOrders(orders, a.OrderNumbers)
		}
	}

	if len(res.Orders) == 0 {
		for _, number := range a.OrderNumbers {
			order, err := d.orders.FindOrderByNumber(ctx, number)
			if err != nil {
				if errors.HasCode(err, errors.ErrCodeSearchUnavailable) {
					d.logger.Info("Order number search unavailable, treating as no match", map[string]interface{}{
						"integration": d.orders.Name(),
						"orderNumber": number,
					})
					continue
				}
				failed = true
				d.logFailure(ctx, d.orders.Name(), "find_order_by_number", err)
				continue
			}
			if order != nil {
				res.Orders = append(res.Orders, *order)
			}
		}
	}

	res.Status = outcomeStatus(len(res.Orders), failed)
	d.record(d.orders.Name(), models.ActionOrderLookup, string(res.Status))
	return res
}

// narrowOrders keeps the orders matching one of numbers; with no numbers, or
// no match, every order is kept.
func narrowOrders(orders []models.Order, numbers []string) []models.Order {
	if len(numbers) == 0 {
		return orders
	}
	var matched []models.Order
	for _, o := range orders {
		for _, n := range numbers {
			if o.MatchesNumber(n) {
				matched = append(matched, o)
				break
			}
		}
	}
	if len(matched) == 0 {
		return orders
	}
	return matched
}

func (d *Dispatcher) searchProducts(ctx context.Context, query string, limit int, kind models.ActionKind, results *models.DispatchResults) *models.ProductSearchResult {
	res := &models.ProductSearchResult{Query: query}
	if d.products == nil {
		res.Status = models.LookupSkipped
		d.record("products", kind, metrics.OutcomeSkipped)
		return res
	}
	results.UseIntegration(d.products.Name())

	var (
		products []models.Product
		err      error
	)
	if query == "" || query == models.BrowseQuery {
		products, err = d.products.ListProducts(ctx, limit)
	} else {
		products, err = d.products.SearchProducts(ctx, query, limit)
	}
	if err != nil {
		d.logFailure(ctx, d.products.Name(), string(kind), err)
	}
	res.Products = products
	res.Status = outcomeStatus(len(products), err != nil)
	d.record(d.products.Name(), kind, string(res.Status))
	return res
}

func (d *Dispatcher) viewCart(ctx context.Context, a models.CartViewAction, customer models.CustomerContext, results *models.DispatchResults) *models.CartResult {
	email := firstNonEmpty(a.Email, customer.Email)
	res := &models.CartResult{Email: email, Carts: []models.DraftOrder{}}

	if d.carts == nil || email == "" {
		res.Status = models.LookupSkipped
		d.record("carts", models.ActionCartView, metrics.OutcomeSkipped)
		return res
	}
	results.UseIntegration(d.carts.Name())

	carts, err := d.carts.DraftOrdersByEmail(ctx, email)
	if err != nil {
		// An unreadable cart is shown as an empty one.
		d.logFailure(ctx, d.carts.Name(), "draft_orders_by_email", err)
		res.Status = models.LookupNotFound
		d.record(d.carts.Name(), models.ActionCartView, metrics.OutcomeFailed)
		return res
	}
	if carts != nil {
		res.Carts = carts
	}
	res.Status = outcomeStatus(len(carts), false)
	d.record(d.carts.Name(), models.ActionCartView, string(res.Status))
	return res
}

func (d *Dispatcher) escalate(ctx context.Context, a models.EscalationAction, customer models.CustomerContext, message string, results *models.DispatchResults) *models.TicketResult {
	res := &models.TicketResult{Reason: a.Reason, Priority: a.Priority}
	email := firstNonEmpty(a.Email, customer.Email)

	if d.support == nil || email == "" {
		res.Status = models.LookupSkipped
		d.record("support", models.ActionEscalation, metrics.OutcomeSkipped)
		return res
	}
	results.UseIntegration(d.support.Name())

	crmCustomer, err := d.support.FindOrCreateCustomer(ctx, email, customer.Name)
	if err != nil {
		d.logFailure(ctx, d.support.Name(), "find_or_create_customer", err)
		res.Status = models.LookupFailed
		d.record(d.support.Name(), models.ActionEscalation, metrics.OutcomeFailed)
		return res
	}
	res.CustomerID = crmCustomer.ID

	ticket, err := d.support.CreateTicket(ctx, models.TicketRequest{
		CustomerID:     crmCustomer.ID,
		Email:          email,
		ConversationID: customer.ConversationID,
		Reason:         a.Reason,
		Priority:       a.Priority,
		Subject:        ticketSubject(a.Reason),
		Description:    ticketDescription(a, customer, message),
	})
	if err != nil {
		d.logFailure(ctx, d.support.Name(), "create_ticket", err)
		res.Status = models.LookupFailed
		d.record(d.support.Name(), models.ActionEscalation, metrics.OutcomeFailed)
		return res
	}

	res.TicketID = ticket.ID
	res.Status = models.LookupFound
	d.record(d.support.Name(), models.ActionEscalation, metrics.OutcomeSuccess)
	d.logger.Info("Escalation ticket created", map[string]interface{}{
		"conversationId": customer.ConversationID,
		"ticketId":       ticket.ID,
		"reason":         string(a.Reason),
		"priority":       string(a.Priority),
	})
	return res
}

func (d *Dispatcher) lookupBilling(ctx context.Context, a models.BillingAction, customer models.CustomerContext, results *models.DispatchResults) *models.OrderLookupResult {
	email := firstNonEmpty(a.Email, customer.Email)
	res := &models.OrderLookupResult{Email: email, OrderNumbers: a.OrderNumbers}

	if d.orders == nil || email == "" {
		res.Status = models.LookupSkipped
		d.record("orders", models.ActionBilling, metrics.OutcomeSkipped)
		return res
	}
	results.UseIntegration(d.orders.Name())

	orders, err := d.orders.SearchOrdersByEmail(ctx, email)
	if err != nil {
		d.logFailure(ctx, d.orders.Name(), "billing_orders_by_email", err)
	}
	res.Orders = narrowOrders(orders, a.OrderNumbers)
	res.Status = outcomeStatus(len(res.Orders), err != nil)
	d.record(d.orders.Name(), models.ActionBilling, string(res.Status))
	return res
}

func (d *Dispatcher) logFailure(ctx context.Context, integration, operation string, err error) {
	var stdErr *errors.StandardError
	if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		stdErr = errors.NewLookupTimeoutError(integration, operation, err)
	} else if existing, ok := errors.AsStandardError(err); ok {
		stdErr = existing
	} else {
		stdErr = errors.NewLookupFailedError(integration, operation, err)
	}
	d.logger.Error("Integration call failed", map[string]interface{}{
		"integration": integration,
		"operation":   operation,
		"code":        string(stdErr.Code),
		"error":       stdErr.Error(),
	})
}

func (d *Dispatcher) record(integration string, kind models.ActionKind, outcome string) {
	metrics.IntegrationCalls.WithLabelValues(integration, string(kind), outcome).Inc()
}

func outcomeStatus(n int, failed bool) models.LookupStatus {
	switch {
	case n > 0:
		return models.LookupFound
	case failed:
		return models.LookupFailed
	default:
		return models.LookupNotFound
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func ticketSubject(reason models.EscalationReason) string {
	switch reason {
	case models.ReasonCustomerRequested:
		return "Customer asked for a human agent"
	case models.ReasonUrgentIssue:
		return "Urgent customer issue"
	default:
		return "Unhappy customer needs follow-up"
	}
}

func ticketDescription(a models.EscalationAction, customer models.CustomerContext, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer message: %q\n", message)
	fmt.Fprintf(&b, "Reason: %s\n", a.Reason)
	fmt.Fprintf(&b, "Priority: %s\n", a.Priority)
	if customer.ConversationID != "" {
		fmt.Fprintf(&b, "Conversation: %s\n", customer.ConversationID)
	}
	if customer.Channel != "" {
		fmt.Fprintf(&b, "Channel: %s\n", customer.Channel)
	}
	if customer.Name != "" {
		fmt.Fprintf(&b, "Customer name: %s\n", customer.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}
