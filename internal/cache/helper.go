package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// startSpan opens a sentry cache span for op on key. Without a hub in ctx there is no
// span and every helper below accepts nil.
func startSpan(ctx context.Context, op, key string) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "cache."+op)
	span.Description = key
	span.SetData("cache.key", []string{key})
	return span
}

// finishSpan records whether the key was already present and closes the span.
// For Add a hit means the webhook event was seen before.
func finishSpan(span *sentry.Span, hit bool) {
	if span == nil {
		return
	}
	span.SetData("cache.hit", hit)
	span.Status = sentry.SpanStatusOK
	span.Finish()
}
