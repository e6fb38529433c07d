// Package shopify implements the order, product and cart capabilities on top
// of the Shopify Admin REST API.
package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/errors"
	httpclient "support-chatbot/internal/common/http"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/models"
)

const (
	Name = "shopify"

	defaultAPIVersion = "2024-01"
	defaultTimeout    = 10 * time.Second
	pageLimit         = 250
	orderLimit        = 50
)

type Client struct {
	http       *httpclient.Client
	apiVersion string
	logger     logger.Logger
}

// New builds a client for cfg.StoreDomain. A domain without a scheme is
// reached over https.
func New(cfg config.ShopifyConfig, log logger.Logger, opts ...httpclient.Option) *Client {
	base := cfg.StoreDomain
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts = append([]httpclient.Option{
		httpclient.WithHeader("X-Shopify-Access-Token", cfg.AccessToken),
		httpclient.WithMaxRetries(cfg.MaxRetries),
	}, opts...)

	return &Client{
		http:       httpclient.NewClient(base, timeout, opts...),
		apiVersion: version,
		logger:     logger.ForComponent(log, "shopify"),
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) path(resource string) string {
	return fmt.Sprintf("/admin/api/%s/%s.json", c.apiVersion, resource)
}

// Ping checks the token against the shop resource.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.http.DoJSON(ctx, http.MethodGet, c.path("shop"), nil, nil, nil); err != nil {
		return errors.NewLookupFailedError(Name, "ping", err)
	}
	return nil
}

func (c *Client) SearchOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	query := url.Values{
		"email":  {email},
		"status": {"any"},
		"limit":  {fmt.Sprint(orderLimit)},
	}

	var resp ordersResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, c.path("orders"), query, nil, &resp); err != nil {
		return nil, errors.NewLookupFailedError(Name, "search_orders_by_email", err)
	}

	orders := make([]models.Order, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		orders = append(orders, o.toModel())
	}
	c.logger.Debug("Orders searched by email", map[string]interface{}{"count": len(orders)})
	return orders, nil
}

// FindOrderByNumber looks an order up by its display name. Stores whose token
// cannot search by name answer 403, 404 or 501; those become SEARCH_UNAVAILABLE
// so callers can treat them as no match.
func (c *Client) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	number = strings.TrimPrefix(strings.TrimSpace(number), "#")
	query := url.Values{
		"name":   {"#" + number},
		"status": {"any"},
	}

	var resp ordersResponse
	err := c.http.DoJSON(ctx, http.MethodGet, c.path("orders"), query, nil, &resp)
	if err != nil {
		if httpclient.IsStatus(err, http.StatusForbidden, http.StatusNotFound, http.StatusNotImplemented) {
			return nil, errors.NewSearchUnavailableError(Name, httpclient.StatusCode(err))
		}
		return nil, errors.NewLookupFailedError(Name, "find_order_by_number", err)
	}

	for _, o := range resp.Orders {
		m := o.toModel()
		if m.MatchesNumber(number) {
			return &m, nil
		}
	}
	return nil, nil
}

func (c *Client) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	products, err := c.fetchProducts(ctx, limit)
	if err != nil {
		return nil, errors.NewLookupFailedError(Name, "list_products", err)
	}
	return products, nil
}

// SearchProducts filters the active catalog client side. The Admin API has no
// full-text product search, so titles weigh more than tags and descriptions.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	products, err := c.fetchProducts(ctx, pageLimit)
	if err != nil {
		return nil, errors.NewLookupFailedError(Name, "search_products", err)
	}

	terms := strings.Fields(strings.ToLower(query))
	type scored struct {
		product models.Product
		score   int
	}
	var hits []scored
	for _, p := range products {
		if s := relevance(p, terms); s > 0 {
			hits = append(hits, scored{p, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]models.Product, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, h.product)
	}
	c.logger.Debug("Products searched", map[string]interface{}{
		"query":   query,
		"scanned": len(products),
		"matched": len(hits),
	})
	return out, nil
}

func (c *Client) fetchProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > pageLimit {
		limit = pageLimit
	}
	query := url.Values{
		"status": {"active"},
		"limit":  {fmt.Sprint(limit)},
	}

	var resp productsResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, c.path("products"), query, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		if p.Status != "" && p.Status != "active" {
			continue
		}
		out = append(out, p.toModel())
	}
	return out, nil
}

func relevance(p models.Product, terms []string) int {
	title := strings.ToLower(p.Title)
	tags := strings.ToLower(strings.Join(p.Tags, " ") + " " + p.ProductType)
	other := strings.ToLower(p.Vendor + " " + p.Description)

	score := 0
	for _, t := range terms {
		switch {
		case strings.Contains(title, t):
			score += 3
		case strings.Contains(tags, t):
			score += 2
		case strings.Contains(other, t):
			score++
		}
	}
	return score
}

// DraftOrdersByEmail returns the open draft orders placed under email.
func (c *Client) DraftOrdersByEmail(ctx context.Context, email string) ([]models.DraftOrder, error) {
	query := url.Values{
		"status": {"open"},
		"limit":  {fmt.Sprint(pageLimit)},
	}

	var resp draftOrdersResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, c.path("draft_orders"), query, nil, &resp); err != nil {
		return nil, errors.NewLookupFailedError(Name, "draft_orders_by_email", err)
	}

	var out []models.DraftOrder
	for _, d := range resp.DraftOrders {
		if strings.EqualFold(d.email(), email) {
			out = append(out, d.toModel())
		}
	}
	return out, nil
}
