// Package formatter renders dispatch results into the customer-facing reply.
// Output depends only on the plan's response type and the results; no
// internal error text is ever included.
package formatter

import (
	"fmt"
	"strings"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/models"
)

const (
	maxItems    = 3
	maxOrders   = 3
	maxProducts = 5
)

// Quick replies reused across templates.
var (
	replyHuman      = reply("Talk to a human")
	replyTrackOrder = reply("Track my order")
	replyBrowse     = reply("Browse products")
	replyViewCart   = reply("View my cart")
	replyHaveNumber = reply("I have my order number")
	replyOtherEmail = reply("Try a different email")
	replyGiveNumber = reply("Provide order number")
	replyMainMenu   = reply("Main menu")
	replyTryAgain   = reply("Try again")
)

type Formatter struct{}

func New() *Formatter {
	return &Formatter{}
}

// Format renders plan and results. It fails only for a response type it does
// not know.
func (f *Formatter) Format(plan models.ResponsePlan, results models.DispatchResults, message string) (models.FormattedResponse, error) {
	var (
		text    string
		actions []models.QuickAction
	)

	switch plan.ResponseType {
	case models.ResponseOrderStatus:
		text, actions = formatOrderStatus(results.Commerce.Orders)
	case models.ResponseProductRecommendations:
		text, actions = formatProducts(results.Commerce.Products)
	case models.ResponseCartDisplay:
		text, actions = formatCart(results.Commerce.Cart)
	case models.ResponseProductDetails:
		text, actions = formatProductDetails(results.Commerce.ProductDetails)
	case models.ResponseEscalation:
		text, actions = formatEscalation(results.Support.Ticket)
	case models.ResponseBillingSupport:
		text, actions = formatBilling(results.Commerce.Billing)
	case models.ResponseGeneral:
		text, actions = formatGeneral()
	default:
		return models.FormattedResponse{}, errors.NewPipelineFailedError("format",
			fmt.Errorf("unknown response type %q", plan.ResponseType))
	}

	integrations := results.IntegrationsUsed
	if integrations == nil {
		integrations = []string{}
	}
	if actions == nil {
		actions = []models.QuickAction{}
	}

	return models.FormattedResponse{
		Text:    text,
		Actions: actions,
		Metadata: models.ResponseMetadata{
			Source:           models.SourcePipeline,
			ResponseType:     plan.ResponseType,
			Confidence:       plan.Confidence,
			IntegrationsUsed: integrations,
			Intents:          plan.Intents,
		},
	}, nil
}

// HumanHandoff is the fixed reply used when the pipeline itself fails.
func HumanHandoff() models.FormattedResponse {
	return models.FormattedResponse{
		Text: "I'm sorry, something went wrong on my side. Let me connect you with a human agent who can help you right away.",
		Actions: []models.QuickAction{
			replyHuman,
			replyMainMenu,
		},
		Metadata: models.ResponseMetadata{
			Source:           models.SourceFallback,
			ResponseType:     models.ResponseEscalation,
			IntegrationsUsed: []string{},
		},
	}
}

func formatGeneral() (string, []models.QuickAction) {
	text := strings.Join([]string{
		"I can help you with:",
		"• Tracking an order",
		"• Finding products",
		"• Checking your cart",
		"• Billing questions",
		"• Reaching a human agent",
		"",
		"What would you like to do?",
	}, "\n")
	return text, []models.QuickAction{replyTrackOrder, replyBrowse, replyViewCart, replyHuman}
}

func formatEscalation(ticket *models.TicketResult) (string, []models.QuickAction) {
	if ticket != nil && ticket.Status == models.LookupFound {
		when := "shortly"
		if ticket.Priority == models.PriorityUrgent {
			when = "as a priority"
		}
		text := fmt.Sprintf("I'm sorry for the trouble. I've opened support ticket %s and a member of our team will follow up with you %s.",
			ticket.TicketID, when)
		return text, []models.QuickAction{replyTrackOrder, replyMainMenu}
	}

	if ticket != nil && ticket.Status == models.LookupSkipped {
		text := "I'm sorry for the trouble. I'd like to hand this over to our support team. " +
			"Could you share the email address we can reach you at?"
		return text, []models.QuickAction{replyHuman, replyMainMenu}
	}

	text := "I'm sorry for the trouble. I'm connecting you with a human agent who can look into this for you."
	return text, []models.QuickAction{replyHuman, replyMainMenu}
}

func formatBilling(res *models.OrderLookupResult) (string, []models.QuickAction) {
	if res == nil || res.Status != models.LookupFound {
		text := "I can help with billing questions. Please share the email address used for your purchase, " +
			"or your order number (for example #1001), and I'll pull up your recent charges."
		if res != nil && res.Status == models.LookupFailed {
			text = "I couldn't reach our billing records just now. Please try again in a moment, or I can connect you with our billing team."
		}
		return text, []models.QuickAction{replyGiveNumber, replyHuman}
	}

	var b strings.Builder
	b.WriteString("Here's a summary of your recent orders:\n")
	for i, o := range res.Orders {
		if i == maxOrders {
			fmt.Fprintf(&b, "...and %d more\n", len(res.Orders)-maxOrders)
			break
		}
		fmt.Fprintf(&b, "• Order %s: %s %s (%s)\n", o.Name, o.TotalPrice, o.Currency, paymentLabel(o.FinancialStatus))
	}
	b.WriteString("\nFor refunds or questions about a charge, our billing team can take it from here.")
	return b.String(), []models.QuickAction{reply("Request a refund"), replyHuman}
}

func paymentLabel(status string) string {
	switch strings.ToLower(status) {
	case "paid":
		return "Paid"
	case "pending", "authorized":
		return "Payment pending"
	case "refunded":
		return "Refunded"
	case "partially_refunded":
		return "Partially refunded"
	case "voided":
		return "Voided"
	case "":
		return "Unknown"
	default:
		return humanize(status)
	}
}

func reply(label string) models.QuickAction {
	return models.QuickAction{Type: models.QuickReply, Label: label, Value: label}
}

func link(label, url string) models.QuickAction {
	return models.QuickAction{Type: models.QuickLink, Label: label, Value: url}
}

func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
