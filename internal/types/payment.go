package types

// PaymentEventType is the normalized kind of an inbound payment webhook
type PaymentEventType string

const (
	PaymentEventCheckoutCompleted PaymentEventType = "checkout.completed"
	PaymentEventCheckoutExpired   PaymentEventType = "checkout.expired"
	PaymentEventIgnored           PaymentEventType = "ignored"
)

// Checkout session metadata keys
const (
	CheckoutMetadataLeadID   = "lead_id"
	CheckoutMetadataPlanType = "plan_type"
)

// PaymentEvent is a verified payment webhook reduced to what reconciliation needs
type PaymentEvent struct {
	ID              string
	Type            PaymentEventType
	ProviderType    string
	SessionID       string
	PaymentIntentID string
	AmountTotal     *int64
	Currency        string
	CustomerEmail   string
	Metadata        map[string]string
}

// LeadID returns the lead id embedded in the session metadata
func (e *PaymentEvent) LeadID() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[CheckoutMetadataLeadID]
}

// PlanType returns the plan key embedded in the session metadata
func (e *PaymentEvent) PlanType() PlanType {
	if e.Metadata == nil {
		return ""
	}
	return PlanType(e.Metadata[CheckoutMetadataPlanType])
}

// CheckoutSessionRequest describes a single plan purchase
type CheckoutSessionRequest struct {
	LeadID        string
	PlanType      PlanType
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider session handed back to the funnel
type CheckoutSession struct {
	ID  string
	URL string
}
