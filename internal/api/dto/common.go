package dto

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// PlanResponse exposes one catalog entry to the funnel
type PlanResponse struct {
	Key           string `json:"key"`
	Label         string `json:"label"`
	AmountInCents int64  `json:"amountInCents"`
	Currency      string `json:"currency"`
}
