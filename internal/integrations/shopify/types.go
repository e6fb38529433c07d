// internal/integrations/shopify/types.go
package shopify

import (
	"strconv"
	"strings"
	"time"

	"support-chatbot/internal/models"
)

// Admin REST payloads, decoded only as far as the pipeline needs them.

type ordersResponse struct {
	Orders []order `json:"orders"`
}

type order struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	OrderNumber       int64         `json:"order_number"`
	Email             string        `json:"email"`
	TotalPrice        string        `json:"total_price"`
	Currency          string        `json:"currency"`
	FinancialStatus   string        `json:"financial_status"`
	FulfillmentStatus *string       `json:"fulfillment_status"`
	CancelledAt       *time.Time    `json:"cancelled_at"`
	CreatedAt         time.Time     `json:"created_at"`
	LineItems         []lineItem    `json:"line_items"`
	Fulfillments      []fulfillment `json:"fulfillments"`
	ShippingAddress   *address      `json:"shipping_address"`
}

type lineItem struct {
	Title        string `json:"title"`
	VariantTitle string `json:"variant_title"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
}

type fulfillment struct {
	Status          string    `json:"status"`
	ShipmentStatus  *string   `json:"shipment_status"`
	TrackingNumber  string    `json:"tracking_number"`
	TrackingCompany string    `json:"tracking_company"`
	TrackingURL     string    `json:"tracking_url"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type address struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

type productsResponse struct {
	Products []product `json:"products"`
}

type product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body_html"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Handle      string    `json:"handle"`
	Status      string    `json:"status"`
	Tags        string    `json:"tags"`
	Variants    []variant `json:"variants"`
	Images      []struct {
		Src string `json:"src"`
	} `json:"images"`
}

type variant struct {
	Title             string  `json:"title"`
	Price             string  `json:"price"`
	CompareAtPrice    *string `json:"compare_at_price"`
	InventoryQuantity int     `json:"inventory_quantity"`
}

type draftOrdersResponse struct {
	DraftOrders []draftOrder `json:"draft_orders"`
}

type draftOrder struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Status     string     `json:"status"`
	InvoiceURL string     `json:"invoice_url"`
	TotalPrice string     `json:"total_price"`
	Currency   string     `json:"currency"`
	LineItems  []lineItem `json:"line_items"`
	CreatedAt  time.Time  `json:"created_at"`
	Customer   *struct {
		Email string `json:"email"`
	} `json:"customer"`
}

func (d draftOrder) email() string {
	if d.Email != "" {
		return d.Email
	}
	if d.Customer != nil {
		return d.Customer.Email
	}
	return ""
}

func (o order) toModel() models.Order {
	out := models.Order{
		ID:              strconv.FormatInt(o.ID, 10),
		Name:            o.Name,
		OrderNumber:     strconv.FormatInt(o.OrderNumber, 10),
		Email:           o.Email,
		TotalPrice:      o.TotalPrice,
		Currency:        o.Currency,
		FinancialStatus: o.FinancialStatus,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		LineItems:       toLineItems(o.LineItems),
	}
	if o.FulfillmentStatus != nil {
		out.FulfillmentStatus = *o.FulfillmentStatus
	}
	for _, f := range o.Fulfillments {
		mf := models.Fulfillment{
			TrackingNumber:  f.TrackingNumber,
			TrackingCompany: f.TrackingCompany,
			TrackingURL:     f.TrackingURL,
			Status:          f.Status,
			UpdatedAt:       f.UpdatedAt,
		}
		if f.ShipmentStatus != nil {
			mf.ShipmentStatus = *f.ShipmentStatus
		}
		out.Fulfillments = append(out.Fulfillments, mf)
	}
	if a := o.ShippingAddress; a != nil {
		out.ShippingAddress = &models.Address{
			Name:     a.Name,
			Address1: a.Address1,
			Address2: a.Address2,
			City:     a.City,
			Province: a.Province,
			Zip:      a.Zip,
			Country:  a.Country,
		}
	}
	return out
}

func (p product) toModel() models.Product {
	out := models.Product{
		ID:          strconv.FormatInt(p.ID, 10),
		Title:       p.Title,
		Description: p.BodyHTML,
		Vendor:      p.Vendor,
		Handle:      p.Handle,
		ProductType: p.ProductType,
		Tags:        splitTags(p.Tags),
	}
	for _, img := range p.Images {
		if img.Src != "" {
			out.Images = append(out.Images, img.Src)
		}
	}
	for _, v := range p.Variants {
		mv := models.Variant{Title: v.Title, Price: v.Price, InventoryQuantity: v.InventoryQuantity}
		if v.CompareAtPrice != nil {
			mv.CompareAtPrice = *v.CompareAtPrice
		}
		out.Variants = append(out.Variants, mv)
	}
	return out
}

func (d draftOrder) toModel() models.DraftOrder {
	return models.DraftOrder{
		ID:         strconv.FormatInt(d.ID, 10),
		Name:       d.Name,
		Email:      d.email(),
		Status:     d.Status,
		InvoiceURL: d.InvoiceURL,
		TotalPrice: d.TotalPrice,
		Currency:   d.Currency,
		LineItems:  toLineItems(d.LineItems),
		CreatedAt:  d.CreatedAt,
	}
}

func toLineItems(items []lineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, li := range items {
		out = append(out, models.LineItem{
			Title:        li.Title,
			VariantTitle: li.VariantTitle,
			Quantity:     li.Quantity,
			Price:        li.Price,
		})
	}
	return out
}

func splitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
