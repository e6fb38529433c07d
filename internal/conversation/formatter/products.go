// internal/conversation/formatter/products.go
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"support-chatbot/internal/models"
)

const maxDescription = 280

func formatProducts(res *models.ProductSearchResult) (string, []models.QuickAction) {
	if res == nil || res.Status != models.LookupFound || len(res.Products) == 0 {
		return noProducts(res)
	}

	var b strings.Builder
	if res.Query == "" || res.Query == models.BrowseQuery {
		b.WriteString("Here are some products you might like:\n\n")
	} else {
		fmt.Fprintf(&b, "Here's what I found for \"%s\":\n\n", res.Query)
	}
	for i, p := range res.Products {
		if i == maxProducts {
			break
		}
		fmt.Fprintf(&b, "%d. %s", i+1, p.Title)
		if price := priceLine(p); price != "" {
			fmt.Fprintf(&b, " - %s", price)
		}
		if !p.InStock() && len(p.Variants) > 0 {
			b.WriteString(" (out of stock)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nWould you like more details on any of these?")

	return b.String(), []models.QuickAction{reply("Show me more"), reply("Something else"), replyHuman}
}

func noProducts(res *models.ProductSearchResult) (string, []models.QuickAction) {
	if res != nil && res.Status == models.LookupFailed {
		text := "I'm having trouble reaching our catalog right now. Please try again in a moment."
		return text, []models.QuickAction{replyTryAgain, replyHuman}
	}
	if res == nil || res.Query == "" || res.Query == models.BrowseQuery {
		text := "I couldn't load any products just now. Tell me what you're looking for and I'll search for it."
		return text, []models.QuickAction{replyBrowse, replyHuman}
	}
	text := fmt.Sprintf("I couldn't find any products matching \"%s\". Try a different word, or browse everything we carry.", res.Query)
	return text, []models.QuickAction{replyBrowse, reply("Something else"), replyHuman}
}

func formatProductDetails(res *models.ProductSearchResult) (string, []models.QuickAction) {
	if res == nil || res.Status != models.LookupFound || len(res.Products) == 0 {
		if res != nil && res.Status == models.LookupFailed {
			return "I'm having trouble reaching our catalog right now. Please try again in a moment.",
				[]models.QuickAction{replyTryAgain, replyHuman}
		}
		query := "that product"
		if res != nil && res.Query != "" && res.Query != models.BrowseQuery {
			query = fmt.Sprintf("\"%s\"", res.Query)
		}
		text := fmt.Sprintf("I couldn't find details for %s. Could you tell me the product name as it appears on our store?", query)
		return text, []models.QuickAction{replyBrowse, replyHuman}
	}

	p := res.Products[0]
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Vendor != "" {
		fmt.Fprintf(&b, " by %s", p.Vendor)
	}
	b.WriteString("\n")
	if desc := truncate(stripTags(p.Description), maxDescription); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n")
	}
	if price := priceLine(p); price != "" {
		fmt.Fprintf(&b, "Price: %s\n", price)
	}
	if p.InStock() {
		b.WriteString("Availability: In stock\n")
	} else if len(p.Variants) > 0 {
		b.WriteString("Availability: Out of stock\n")
	}
	if len(p.Variants) > 1 {
		b.WriteString("Options:\n")
		for i, v := range p.Variants {
			if i == maxItems {
				fmt.Fprintf(&b, "...and %d more\n", len(p.Variants)-maxItems)
				break
			}
			stock := "in stock"
			if v.InventoryQuantity <= 0 {
				stock = "out of stock"
			}
			fmt.Fprintf(&b, "• %s: %s (%s)\n", v.Title, v.Price, stock)
		}
	}

	actions := []models.QuickAction{reply("Similar products"), replyHuman}
	if len(p.Images) > 0 {
		actions = append([]models.QuickAction{link("View image", p.Images[0])}, actions...)
	}
	return strings.TrimRight(b.String(), "\n"), actions
}

func formatCart(res *models.CartResult) (string, []models.QuickAction) {
	if res == nil || res.Status != models.LookupFound || len(res.Carts) == 0 {
		if res == nil || res.Email == "" {
			text := "I can look up your cart if you share the email address you shop with."
			return text, []models.QuickAction{replyBrowse, replyHuman}
		}
		text := "I couldn't find any saved items in your cart. Want me to help you find something?"
		return text, []models.QuickAction{replyBrowse, replyTrackOrder}
	}

	var b strings.Builder
	var actions []models.QuickAction
	for i, cart := range res.Carts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Your cart %s:\n", cart.Name)
		for j, item := range cart.LineItems {
			if j == maxItems {
				fmt.Fprintf(&b, "...and %d more\n", len(cart.LineItems)-maxItems)
				break
			}
			fmt.Fprintf(&b, "• %d x %s - %s\n", item.Quantity, item.Title, item.Price)
		}
		fmt.Fprintf(&b, "Total: %s %s\n", cart.TotalPrice, cart.Currency)
		if cart.InvoiceURL != "" {
			actions = append(actions, link("Complete checkout", cart.InvoiceURL))
		}
	}
	actions = append(actions, replyBrowse, replyHuman)
	return strings.TrimRight(b.String(), "\n"), actions
}

// priceLine renders the first variant price, with the compare-at price when
// the item is discounted.
func priceLine(p models.Product) string {
	if len(p.Variants) == 0 || p.Variants[0].Price == "" {
		return ""
	}
	v := p.Variants[0]
	price, err1 := strconv.ParseFloat(v.Price, 64)
	compare, err2 := strconv.ParseFloat(v.CompareAtPrice, 64)
	if err1 == nil && err2 == nil && compare > price {
		return fmt.Sprintf("%s (was %s)", v.Price, v.CompareAtPrice)
	}
	return v.Price
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
