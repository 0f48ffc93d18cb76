package revenuecat

import (
	"time"

	"github.com/quizfunnel/leadsync/internal/types"
)

const (
	attributeEmail = "$email"
	platformStripe = "stripe"
)

type subscriberResponse struct {
	RequestDate string `json:"request_date"`
	Subscriber  struct {
		OriginalAppUserID string                         `json:"original_app_user_id"`
		FirstSeen         string                         `json:"first_seen"`
		Entitlements      map[string]entitlementResponse `json:"entitlements"`
	} `json:"subscriber"`
}

type entitlementResponse struct {
	ExpiresDate       *time.Time `json:"expires_date"`
	PurchaseDate      *time.Time `json:"purchase_date"`
	ProductIdentifier string     `json:"product_identifier"`
}

type attributeValue struct {
	Value string `json:"value"`
}

type setAttributesRequest struct {
	Attributes map[string]attributeValue `json:"attributes"`
}

type grantPromotionalRequest struct {
	Duration types.EntitlementDuration `json:"duration"`
}

type receiptRequest struct {
	AppUserID  string                    `json:"app_user_id"`
	FetchToken string                    `json:"fetch_token"`
	ProductID  string                    `json:"product_id,omitempty"`
	Price      *float64                  `json:"price,omitempty"`
	Currency   string                    `json:"currency,omitempty"`
	Attributes map[string]attributeValue `json:"attributes,omitempty"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// webhookPayload is the envelope RevenueCat posts to webhook endpoints
type webhookPayload struct {
	APIVersion string       `json:"api_version"`
	Event      webhookEvent `json:"event"`
}

type webhookEvent struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"`
	AppUserID         string   `json:"app_user_id"`
	OriginalAppUserID string   `json:"original_app_user_id"`
	Aliases           []string `json:"aliases"`
	ProductID         string   `json:"product_id"`
	NewProductID      string   `json:"new_product_id"`
	EntitlementIDs    []string `json:"entitlement_ids"`
	PeriodType        string   `json:"period_type"`
	PurchasedAtMs     *int64   `json:"purchased_at_ms"`
	ExpirationAtMs    *int64   `json:"expiration_at_ms"`
	Environment       string   `json:"environment"`
	Store             string   `json:"store"`
	TransactionID     string   `json:"transaction_id"`
	Price             *float64 `json:"price"`
	Currency          *string  `json:"currency"`
}

func (r *subscriberResponse) toSubscriber(appUserID string) *types.Subscriber {
	sub := &types.Subscriber{
		AppUserID:    appUserID,
		Entitlements: make(map[string]types.SubscriberEntitlement, len(r.Subscriber.Entitlements)),
	}
	for id, ent := range r.Subscriber.Entitlements {
		sub.Entitlements[id] = types.SubscriberEntitlement{
			ProductIdentifier: ent.ProductIdentifier,
			ExpiresAt:         ent.ExpiresDate,
		}
	}
	return sub
}

func msToTime(ms *int64) *time.Time {
	if ms == nil || *ms <= 0 {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
