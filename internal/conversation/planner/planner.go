// Package planner turns a classified message into an ordered list of backend
// actions and the response template that will render their results.
package planner

import (
	"regexp"
	"strings"

	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

// Coarse keyword classes for the last-resort pass.
var (
	fallbackOrder   = regexp.MustCompile(`\b(order|track)`)
	fallbackProduct = regexp.MustCompile(`\b(product|shop)`)
	fallbackCart    = regexp.MustCompile(`\bcart`)
)

type Planner struct {
	store  conversation.ContextStore
	logger logger.Logger
}

func New(store conversation.ContextStore, log logger.Logger) *Planner {
	return &Planner{
		store:  store,
		logger: logger.ForComponent(log, "planner"),
	}
}

// Plan chooses one primary action by intent priority, appends escalation and
// billing actions, and writes the conversation state needed by the next turn.
func (p *Planner) Plan(analysis models.IntentAnalysis, message, conversationID string) models.ResponsePlan {
	plan := models.ResponsePlan{
		Actions:    []models.Action{},
		Intents:    analysis.Intents,
		Confidence: analysis.Confidence,
	}

	switch {
	case analysis.HasIntent(models.IntentOrderTracking):
		p.planOrderTracking(&plan, analysis, conversationID)
	case analysis.HasIntent(models.IntentProductSearch):
		plan.Actions = append(plan.Actions, models.ProductSearchAction{Query: searchQuery(analysis.Entities, message)})
		plan.ResponseType = models.ResponseProductRecommendations
		p.remember(conversationID, models.IntentProductSearch)
	case analysis.HasIntent(models.IntentCartInquiry):
		plan.Actions = append(plan.Actions, models.CartViewAction{Email: p.resolveEmail(analysis, conversationID)})
		plan.ResponseType = models.ResponseCartDisplay
		p.remember(conversationID, models.IntentCartInquiry)
	case analysis.HasIntent(models.IntentProductQuestion):
		plan.Actions = append(plan.Actions, models.ProductDetailsAction{Query: detailsQuery(analysis.Entities, message)})
		plan.ResponseType = models.ResponseProductDetails
		p.remember(conversationID, models.IntentProductQuestion)
	}

	if analysis.RequiresEscalation || analysis.HasIntent(models.IntentSupportEscalation) {
		plan.Actions = append(plan.Actions, models.EscalationAction{
			Reason:   escalationReason(analysis),
			Priority: escalationPriority(analysis),
			Email:    p.resolveEmail(analysis, conversationID),
		})
		if plan.ResponseType == "" {
			plan.ResponseType = models.ResponseEscalation
		}
	}

	if analysis.HasIntent(models.IntentBillingInquiry) {
		plan.Actions = append(plan.Actions, models.BillingAction{
			Email:        p.resolveEmail(analysis, conversationID),
			OrderNumbers: analysis.Entities.OrderNumbers,
		})
		if plan.ResponseType == "" {
			plan.ResponseType = models.ResponseBillingSupport
		}
	}

	if len(plan.Actions) == 0 && plan.ResponseType == "" {
		p.fallback(&plan, analysis, message, conversationID)
	}
	if plan.ResponseType == "" {
		plan.ResponseType = models.ResponseGeneral
	}

	p.logger.Debug("Response planned", map[string]interface{}{
		"conversationId": conversationID,
		"responseType":   plan.ResponseType,
		"actions":        plan.ActionKinds(),
	})
	return plan
}

// planOrderTracking merges new entities into what the conversation already
// collected and records which slot is still missing, even when no lookup can
// run yet.
func (p *Planner) planOrderTracking(plan *models.ResponsePlan, analysis models.IntentAnalysis, conversationID string) {
	plan.ResponseType = models.ResponseOrderStatus

	var existing *models.ConversationContext
	if p.store != nil && conversationID != "" {
		existing = p.store.Get(conversationID)
	}

	email := analysis.Entities.Email
	var orderNumbers []string
	if existing != nil {
		if email == "" {
			email = existing.CollectedData.Email
		}
		orderNumbers = unionStrings(orderNumbers, existing.CollectedData.OrderNumbers)
	}
	orderNumbers = unionStrings(orderNumbers, analysis.Entities.OrderNumbers)

	waiting := models.SlotNone
	switch {
	case email == "":
		waiting = models.SlotEmail
	case len(orderNumbers) == 0:
		waiting = models.SlotOrderNumber
	}

	if p.store != nil && conversationID != "" {
		intent := models.IntentOrderTracking
		update := models.ContextUpdate{
			ActiveIntent: &intent,
			WaitingFor:   &waiting,
			OrderNumbers: orderNumbers,
		}
		if email != "" {
			update.Email = &email
		}
		p.store.Set(conversationID, update)
	}

	if email != "" || len(orderNumbers) > 0 {
		plan.Actions = append(plan.Actions, models.OrderLookupAction{
			Email:        email,
			OrderNumbers: orderNumbers,
		})
	}
}

func (p *Planner) fallback(plan *models.ResponsePlan, analysis models.IntentAnalysis, message, conversationID string) {
	text := strings.ToLower(message)
	switch {
	case fallbackOrder.MatchString(text):
		p.planOrderTracking(plan, analysis, conversationID)
	case fallbackProduct.MatchString(text):
		plan.Actions = append(plan.Actions, models.ProductSearchAction{Query: models.BrowseQuery})
		plan.ResponseType = models.ResponseProductRecommendations
	case fallbackCart.MatchString(text):
		plan.Actions = append(plan.Actions, models.CartViewAction{Email: p.resolveEmail(analysis, conversationID)})
		plan.ResponseType = models.ResponseCartDisplay
	}
}

// remember records a non-order intent and clears any pending slot.
func (p *Planner) remember(conversationID string, intent models.Intent) {
	if p.store == nil || conversationID == "" {
		return
	}
	waiting := models.SlotNone
	p.store.Set(conversationID, models.ContextUpdate{ActiveIntent: &intent, WaitingFor: &waiting})
}

func (p *Planner) resolveEmail(analysis models.IntentAnalysis, conversationID string) string {
	if analysis.Entities.Email != "" {
		return analysis.Entities.Email
	}
	if p.store == nil || conversationID == "" {
		return ""
	}
	if existing := p.store.Get(conversationID); existing != nil {
		return existing.CollectedData.Email
	}
	return ""
}

func escalationReason(analysis models.IntentAnalysis) models.EscalationReason {
	switch {
	case analysis.HasIntent(models.IntentSupportEscalation):
		return models.ReasonCustomerRequested
	case analysis.Priority == models.PriorityUrgent:
		return models.ReasonUrgentIssue
	default:
		return models.ReasonNegativeSentiment
	}
}

func escalationPriority(analysis models.IntentAnalysis) models.Priority {
	if analysis.Priority == "" {
		return models.PriorityMedium
	}
	return analysis.Priority
}

func unionStrings(base, extra []string) []string {
	out := base
	for _, s := range extra {
		found := false
		for _, existing := range out {
			if existing == s {
				found = true
				break
			}
		}
		if !found {
			out = append(out, s)
		}
	}
	return out
}
