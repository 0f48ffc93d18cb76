package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent is an outbound lead lifecycle notification
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	LeadID    string          `json:"lead_id"`
	RequestID string          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Outbound notification event names
const (
	WebhookEventLeadCreated             = "lead.created"
	WebhookEventLeadUpdated             = "lead.updated"
	WebhookEventLeadPaid                = "lead.paid"
	WebhookEventLeadSubscriptionUpdated = "lead.subscription.updated"
	WebhookEventLeadEntitlementGranted  = "lead.entitlement.granted"
	WebhookEventLeadEntitlementRevoked  = "lead.entitlement.revoked"
)

type PubSubType string

const (
	MemoryPubSub PubSubType = "memory"
)
