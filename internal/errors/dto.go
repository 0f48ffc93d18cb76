package errors

// ErrorResponse is the envelope every failed API call returns
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the client facing message. RequestID lets operators find the
// matching server log line.
type ErrorDetail struct {
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// NewErrorResponse builds the envelope for a message shown to the caller
func NewErrorResponse(message string, details map[string]any, requestID string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	}
}
