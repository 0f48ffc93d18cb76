package revenuecat

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

// ParseWebhook checks the hex HMAC-SHA256 of the raw body against the signature header,
// then decodes the event. A missing secret rejects every webhook.
func (c *Client) ParseWebhook(payload []byte, signature string) (*types.EntitlementEvent, error) {
	if err := VerifySignature(payload, signature, c.webhookSecret); err != nil {
		c.logger.Warnw("RevenueCat webhook verification failed", "error", err)
		return nil, err
	}

	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid entitlement webhook payload").
			Mark(ierr.ErrValidation)
	}
	if body.Event.Type == "" {
		return nil, ierr.NewError("entitlement webhook without event type").
			WithHint("Invalid entitlement webhook payload").
			Mark(ierr.ErrValidation)
	}

	ev := body.Event
	appUserID := ev.AppUserID
	if appUserID == "" {
		appUserID = ev.OriginalAppUserID
	}
	aliases := ev.Aliases
	if ev.OriginalAppUserID != "" && ev.OriginalAppUserID != appUserID {
		aliases = append([]string{ev.OriginalAppUserID}, aliases...)
	}

	return &types.EntitlementEvent{
		ID:          ev.ID,
		Type:        types.EntitlementEventType(ev.Type),
		AppUserID:   appUserID,
		Aliases:     aliases,
		ProductID:   ev.ProductID,
		NewProduct:  ev.NewProductID,
		Price:       ev.Price,
		Currency:    lo.FromPtr(ev.Currency),
		PurchasedAt: msToTime(ev.PurchasedAtMs),
		ExpiresAt:   msToTime(ev.ExpirationAtMs),
		Environment: ev.Environment,
		Store:       ev.Store,
	}, nil
}

// VerifySignature compares in constant time
func VerifySignature(payload []byte, signature string, secret string) error {
	if secret == "" {
		return ierr.NewError("entitlement webhook secret not configured").
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrUnauthorized)
	}

	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(provided) == 0 {
		return ierr.NewError("malformed webhook signature").
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrUnauthorized)
	}

	if !hmac.Equal(provided, Sign(payload, secret)) {
		return ierr.NewError("webhook signature mismatch").
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrUnauthorized)
	}
	return nil
}

// Sign returns the raw HMAC-SHA256 of payload
func Sign(payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignHex returns the header value RevenueCat sends for payload
func SignHex(payload []byte, secret string) string {
	return hex.EncodeToString(Sign(payload, secret))
}
