package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// safeDetailsPrefix tags safe details that the error handler decodes into the response
const safeDetailsPrefix = "__json__:"

// ErrorBuilder chains context onto an error. It is not an error itself,
// Mark (or Err) ends the chain.
type ErrorBuilder struct {
	err error
}

// NewError starts a chain from an internal message that is never shown to clients
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a chain from an existing error, keeping its marks and hints
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithHint sets the message the API returns to the caller
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches fields returned under "details" for client errors,
// e.g. the rejected plan type. Unencodable details are dropped.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	encoded, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, safeDetailsPrefix+"%s", errors.Safe(string(encoded)))
	return b
}

// Mark tags the error with a sentinel, which decides the HTTP status
func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

// Err returns the error without a mark
func (b *ErrorBuilder) Err() error {
	return b.err
}

// ReportableDetails collects every detail attached with WithReportableDetails.
// Later keys win when the chain carries the same key twice.
func ReportableDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			encoded, ok := strings.CutPrefix(payload, safeDetailsPrefix)
			if !ok || encoded == "" {
				continue
			}
			var fields map[string]any
			if err := json.Unmarshal([]byte(encoded), &fields); err != nil {
				continue
			}
			for k, v := range fields {
				details[k] = v
			}
		}
	}
	return details
}

// DisplayMessage returns the first non-empty hint, or a generic message
func DisplayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}
