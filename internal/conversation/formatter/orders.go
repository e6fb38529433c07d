// internal/conversation/formatter/orders.go
package formatter

import (
	"fmt"
	"strings"

	"support-chatbot/internal/models"
)

func formatOrderStatus(res *models.OrderLookupResult) (string, []models.QuickAction) {
	switch {
	case res == nil:
		return askForEmail()
	case res.Status == models.LookupFound && len(res.Orders) > 0:
		return renderOrders(res.Orders)
	case res.Status == models.LookupFailed:
		text := "I'm having trouble reaching our order system right now. Please try again in a moment, " +
			"or I can connect you with a human agent."
		return text, []models.QuickAction{replyTryAgain, replyHuman}
	case res.Status == models.LookupSkipped:
		text := "I can't look up orders automatically right now, but a member of our team can check it for you."
		return text, []models.QuickAction{replyHuman, replyMainMenu}
	case res.Email != "":
		return askForOrderNumber(res.Email)
	case len(res.OrderNumbers) > 0:
		text := fmt.Sprintf("I couldn't find order %s. Could you share the email address you used at checkout so I can search by that instead?",
			"#"+strings.TrimPrefix(res.OrderNumbers[0], "#"))
		return text, []models.QuickAction{replyGiveNumber, replyHuman}
	default:
		return askForEmail()
	}
}

func askForEmail() (string, []models.QuickAction) {
	text := "I'd be happy to help you track your order! Please share the email address you used at checkout " +
		"(for example: jane@example.com)."
	return text, []models.QuickAction{replyHaveNumber, replyHuman}
}

func askForOrderNumber(email string) (string, []models.QuickAction) {
	text := strings.Join([]string{
		fmt.Sprintf("I couldn't find any orders for %s. This can happen when:", email),
		"• the order was placed very recently",
		"• a different email address was used at checkout",
		"• the order was placed as a guest",
		"",
		"Could you share your order number (for example #1001)?",
	}, "\n")
	return text, []models.QuickAction{replyGiveNumber, replyOtherEmail, replyHuman}
}

func renderOrders(orders []models.Order) (string, []models.QuickAction) {
	var b strings.Builder
	var actions []models.QuickAction

	if len(orders) > 1 {
		fmt.Fprintf(&b, "I found %d orders:\n\n", len(orders))
	}
	for i, o := range orders {
		if i == maxOrders {
			fmt.Fprintf(&b, "...and %d more orders\n", len(orders)-maxOrders)
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		writeOrder(&b, o)
		if f := trackingFulfillment(o); f != nil && f.TrackingURL != "" && len(actions) < maxOrders {
			actions = append(actions, link("Track "+o.Name, f.TrackingURL))
		}
	}

	actions = append(actions, reply("Track another order"), replyHuman)
	return strings.TrimRight(b.String(), "\n"), actions
}

func writeOrder(b *strings.Builder, o models.Order) {
	fmt.Fprintf(b, "Order %s: %s\n", o.Name, OrderStatusLabel(o))

	if len(o.LineItems) > 0 {
		b.WriteString("Items:\n")
		for i, item := range o.LineItems {
			if i == maxItems {
				fmt.Fprintf(b, "...and %d more\n", len(o.LineItems)-maxItems)
				break
			}
			title := item.Title
			if item.VariantTitle != "" {
				title = fmt.Sprintf("%s (%s)", item.Title, item.VariantTitle)
			}
			fmt.Fprintf(b, "• %d x %s\n", item.Quantity, title)
		}
	}
	fmt.Fprintf(b, "Total: %s %s\n", o.TotalPrice, o.Currency)

	if f := trackingFulfillment(o); f != nil {
		carrier := f.TrackingCompany
		if carrier == "" {
			carrier = "Carrier"
		}
		fmt.Fprintf(b, "Tracking: %s %s\n", carrier, f.TrackingNumber)
		if f.TrackingURL != "" {
			fmt.Fprintf(b, "Track your package: %s\n", f.TrackingURL)
		}
	}

	if addr := formatAddress(o.ShippingAddress); addr != "" {
		fmt.Fprintf(b, "Shipping to: %s\n", addr)
	}
}

// OrderStatusLabel derives a customer-facing status. Precedence: cancelled,
// fulfilled or delivered, latest shipment status, tracking number present,
// partial fulfillment, pending payment, then processing.
func OrderStatusLabel(o models.Order) string {
	if o.CancelledAt != nil {
		return "Cancelled"
	}

	switch strings.ToLower(o.FulfillmentStatus) {
	case "fulfilled":
		return "Fulfilled"
	case "delivered":
		return "Delivered"
	}

	if latest := latestFulfillment(o); latest != nil {
		switch strings.ToLower(latest.ShipmentStatus) {
		case "delivered":
			return "Delivered"
		case "out_for_delivery":
			return "Out for delivery"
		case "in_transit":
			return "In transit"
		}
	}

	if trackingFulfillment(o) != nil {
		return "Shipped"
	}
	if strings.ToLower(o.FulfillmentStatus) == "partial" {
		return "Partially shipped"
	}
	if strings.ToLower(o.FinancialStatus) == "pending" {
		return "Payment pending"
	}
	return "Processing"
}

func latestFulfillment(o models.Order) *models.Fulfillment {
	var latest *models.Fulfillment
	for i := range o.Fulfillments {
		f := &o.Fulfillments[i]
		if latest == nil || !f.UpdatedAt.Before(latest.UpdatedAt) {
			latest = f
		}
	}
	return latest
}

// trackingFulfillment returns the most recently updated fulfillment that has a
// tracking number.
func trackingFulfillment(o models.Order) *models.Fulfillment {
	var found *models.Fulfillment
	for i := range o.Fulfillments {
		f := &o.Fulfillments[i]
		if f.TrackingNumber == "" {
			continue
		}
		if found == nil || !f.UpdatedAt.Before(found.UpdatedAt) {
			found = f
		}
	}
	return found
}

func formatAddress(a *models.Address) string {
	if a == nil {
		return ""
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(a.City, a.Province, a.Zip), " "))
	parts := nonEmpty(a.Name, a.Address1, a.Address2, cityLine, a.Country)
	return strings.Join(parts, ", ")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
