package types

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"

	// inbound webhook signatures
	HeaderStripeSignature     = "Stripe-Signature"
	HeaderRevenueCatSignature = "X-RevenueCat-Signature"
)
