package dto

// WebhookResponse acknowledges a verified provider webhook
type WebhookResponse struct {
	Received bool `json:"received"`
}
