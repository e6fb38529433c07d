// internal/models/action.go
package models

// ActionKind identifies an Action variant.
type ActionKind string

const (
	ActionOrderLookup    ActionKind = "order_lookup"
	ActionProductSearch  ActionKind = "product_search"
	ActionCartView       ActionKind = "cart_view"
	ActionProductDetails ActionKind = "product_details"
	ActionEscalation     ActionKind = "escalation"
	ActionBilling        ActionKind = "billing_lookup"
)

// BrowseQuery is the placeholder query meaning "list anything".
const BrowseQuery = "browse"

// Action is a planned backend operation. The set of implementations is closed:
// only types in this package satisfy it.
type Action interface {
	Kind() ActionKind
	isAction()
}

type OrderLookupAction struct {
	Email        string   `json:"email,omitempty"`
	OrderNumbers []string `json:"orderNumbers,omitempty"`
}

type ProductSearchAction struct {
	Query string `json:"query"`
}

type CartViewAction struct {
	Email string `json:"email,omitempty"`
}

type ProductDetailsAction struct {
	Query string `json:"query"`
}

type EscalationReason string

const (
	ReasonCustomerRequested EscalationReason = "customer_requested_agent"
	ReasonUrgentIssue       EscalationReason = "urgent_issue"
	ReasonNegativeSentiment EscalationReason = "negative_sentiment"
)

type EscalationAction struct {
	Reason   EscalationReason `json:"reason"`
	Priority Priority         `json:"priority"`
	Email    string           `json:"email,omitempty"`
}

type BillingAction struct {
	Email        string   `json:"email,omitempty"`
	OrderNumbers []string `json:"orderNumbers,omitempty"`
}

func (OrderLookupAction) Kind() ActionKind    { return ActionOrderLookup }
func (ProductSearchAction) Kind() ActionKind  { return ActionProductSearch }
func (CartViewAction) Kind() ActionKind       { return ActionCartView }
func (ProductDetailsAction) Kind() ActionKind { return ActionProductDetails }
func (EscalationAction) Kind() ActionKind     { return ActionEscalation }
func (BillingAction) Kind() ActionKind        { return ActionBilling }

func (OrderLookupAction) isAction()    {}
func (ProductSearchAction) isAction()  {}
func (CartViewAction) isAction()       {}
func (ProductDetailsAction) isAction() {}
func (EscalationAction) isAction()     {}
func (BillingAction) isAction()        {}

// ResponseType selects the formatter template.
type ResponseType string

const (
	ResponseOrderStatus            ResponseType = "order_status"
	ResponseProductRecommendations ResponseType = "product_recommendations"
	ResponseCartDisplay            ResponseType = "cart_display"
	ResponseProductDetails         ResponseType = "product_details"
	ResponseEscalation             ResponseType = "escalation"
	ResponseBillingSupport         ResponseType = "billing_support"
	ResponseGeneral                ResponseType = "general"
)

// ResponsePlan is the planner output: ordered actions plus a template selector.
type ResponsePlan struct {
	Actions      []Action     `json:"actions"`
	ResponseType ResponseType `json:"responseType"`
	Intents      []Intent     `json:"intents,omitempty"`
	Confidence   float64      `json:"confidence"`
}

func (p ResponsePlan) HasAction(kind ActionKind) bool {
	for _, a := range p.Actions {
		if a.Kind() == kind {
			return true
		}
	}
	return false
}

// ActionKinds lists the plan's action kinds in order.
func (p ResponsePlan) ActionKinds() []ActionKind {
	kinds := make([]ActionKind, 0, len(p.Actions))
	for _, a := range p.Actions {
		kinds = append(kinds, a.Kind())
	}
	return kinds
}
