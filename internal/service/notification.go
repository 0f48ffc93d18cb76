package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/quizfunnel/leadsync/internal/api/dto"
	"github.com/quizfunnel/leadsync/internal/domain/lead"
	"github.com/quizfunnel/leadsync/internal/types"
)

// publishLeadEvent queues a lifecycle notification carrying the lead projection.
// Failures are logged and never surface to the caller.
func (p ServiceParams) publishLeadEvent(ctx context.Context, eventName string, l *lead.Lead) {
	if p.WebhookPublisher == nil || l == nil {
		return
	}

	payload, err := json.Marshal(dto.NewLeadResponse(l))
	if err != nil {
		p.Logger.Errorw("failed to marshal lead notification payload", "error", err, "lead_id", l.ID)
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION_EVENT),
		EventName: eventName,
		LeadID:    l.ID,
		RequestID: types.GetRequestID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   json.RawMessage(payload),
	}
	if err := p.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		p.Logger.Errorf("failed to publish %s event: %v", event.EventName, err)
	}
}
