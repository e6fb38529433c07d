// Package conversationtest provides in-memory capability fakes for pipeline tests.
package conversationtest

import (
	"context"
	"fmt"
	"sync"

	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

// Commerce fakes the order, product and cart capabilities.
type Commerce struct {
	mu sync.Mutex

	OrdersByEmail  map[string][]models.Order
	OrdersByNumber map[string]models.Order
	Products       []models.Product
	Carts          map[string][]models.DraftOrder

	EmailErr      error
	NumberErr     error
	ProductErr    error
	CartErr       error
	PanicOnCart   bool
	PanicOnOrders bool

	Calls []string
}

func NewCommerce() *Commerce {
	return &Commerce{
		OrdersByEmail:  make(map[string][]models.Order),
		OrdersByNumber: make(map[string]models.Order),
		Carts:          make(map[string][]models.DraftOrder),
	}
}

func (c *Commerce) Name() string { return "fake-commerce" }

func (c *Commerce) called(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, fmt.Sprintf(format, args...))
}

func (c *Commerce) SearchOrdersByEmail(_ context.Context, email string) ([]models.Order, error) {
	c.called("orders_by_email:%s", email)
	if c.PanicOnOrders {
		panic("order backend exploded")
	}
	if c.EmailErr != nil {
		return nil, c.EmailErr
	}
	return c.OrdersByEmail[email], nil
}

func (c *Commerce) FindOrderByNumber(_ context.Context, number string) (*models.Order, error) {
	c.called("order_by_number:%s", number)
	if c.NumberErr != nil {
		return nil, c.NumberErr
	}
	order, ok := c.OrdersByNumber[number]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (c *Commerce) SearchProducts(_ context.Context, query string, limit int) ([]models.Product, error) {
	c.called("search_products:%s", query)
	if c.ProductErr != nil {
		return nil, c.ProductErr
	}
	return limitProducts(c.Products, limit), nil
}

func (c *Commerce) ListProducts(_ context.Context, limit int) ([]models.Product, error) {
	c.called("list_products")
	if c.ProductErr != nil {
		return nil, c.ProductErr
	}
	return limitProducts(c.Products, limit), nil
}

func (c *Commerce) DraftOrdersByEmail(_ context.Context, email string) ([]models.DraftOrder, error) {
	c.called("draft_orders:%s", email)
	if c.PanicOnCart {
		panic("cart backend exploded")
	}
	if c.CartErr != nil {
		return nil, c.CartErr
	}
	return c.Carts[email], nil
}

func limitProducts(products []models.Product, limit int) []models.Product {
	if limit > 0 && len(products) > limit {
		return products[:limit]
	}
	return products
}

// Support fakes a CRM.
type Support struct {
	mu sync.Mutex

	CustomerErr error
	TicketErr   error
	Tickets     []models.TicketRequest
}

func (s *Support) Name() string { return "fake-crm" }

func (s *Support) FindOrCreateCustomer(_ context.Context, email, name string) (*models.Customer, error) {
	if s.CustomerErr != nil {
		return nil, s.CustomerErr
	}
	return &models.Customer{ID: "cust-" + email, Email: email, Name: name}, nil
}

func (s *Support) CreateTicket(_ context.Context, req models.TicketRequest) (*models.Ticket, error) {
	if s.TicketErr != nil {
		return nil, s.TicketErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tickets = append(s.Tickets, req)
	return &models.Ticket{ID: fmt.Sprintf("T-%d", len(s.Tickets)), CustomerID: req.CustomerID, Priority: req.Priority}, nil
}

// Labeler returns a fixed result.
type Labeler struct {
	Result conversation.LabelResult
}

func (l *Labeler) Name() string { return "fake-labeler" }

func (l *Labeler) Label(context.Context, string, []models.Intent) conversation.LabelResult {
	return l.Result
}

// Replier returns a fixed reply or error.
type Replier struct {
	Reply string
	Err   error
	Calls int
}

func (r *Replier) Name() string { return "fake-replier" }

func (r *Replier) GenerateReply(context.Context, string, models.IntentAnalysis) (string, error) {
	r.Calls++
	return r.Reply, r.Err
}

// Recorder keeps every interaction in memory.
type Recorder struct {
	mu           sync.Mutex
	Err          error
	Interactions []models.Interaction
}

func (r *Recorder) Record(_ context.Context, interaction models.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Interactions = append(r.Interactions, interaction)
	return r.Err
}

// Pinger reports a fixed connectivity error.
type Pinger struct {
	*Commerce
	Err error
}

func (p *Pinger) Ping(context.Context) error { return p.Err }
