package publisher_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/testutil"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/webhook/publisher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPublisher(t *testing.T, webhook config.Webhook) (publisher.WebhookPublisher, *testutil.InMemoryPubSub) {
	t.Helper()
	ps := testutil.NewInMemoryPubSub()
	pub, err := publisher.NewPublisher(ps, &config.Configuration{Webhook: webhook}, logger.NewNoopLogger())
	require.NoError(t, err)
	return pub, ps
}

func TestPublishWebhook(t *testing.T) {
	ctx := types.SetRequestID(context.Background(), "req_1")

	t.Run("publishes to the configured topic", func(t *testing.T) {
		pub, ps := newPublisher(t, config.Webhook{Enabled: true, Topic: "leads"})

		event := &types.WebhookEvent{
			EventName: types.WebhookEventLeadPaid,
			LeadID:    "lead_1",
			Payload:   json.RawMessage(`{"id":"lead_1"}`),
		}
		require.NoError(t, pub.PublishWebhook(ctx, event))

		msgs := ps.GetMessages("leads")
		require.Len(t, msgs, 1)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, event.ID, msgs[0].UUID)
		assert.Equal(t, "lead_1", msgs[0].Metadata.Get("lead_id"))
		assert.Equal(t, "req_1", msgs[0].Metadata.Get("request_id"))

		var decoded types.WebhookEvent
		require.NoError(t, json.Unmarshal(msgs[0].Payload, &decoded))
		assert.Equal(t, types.WebhookEventLeadPaid, decoded.EventName)
		assert.Equal(t, "req_1", decoded.RequestID)
	})

	t.Run("disabled notifications publish nothing", func(t *testing.T) {
		pub, ps := newPublisher(t, config.Webhook{Enabled: false, Topic: "leads"})

		require.NoError(t, pub.PublishWebhook(ctx, &types.WebhookEvent{EventName: types.WebhookEventLeadCreated}))
		assert.Empty(t, ps.GetMessages("leads"))
	})

	t.Run("excluded events are skipped", func(t *testing.T) {
		pub, ps := newPublisher(t, config.Webhook{
			Enabled:        true,
			Topic:          "leads",
			ExcludedEvents: []string{types.WebhookEventLeadUpdated},
		})

		require.NoError(t, pub.PublishWebhook(ctx, &types.WebhookEvent{EventName: types.WebhookEventLeadUpdated}))
		require.NoError(t, pub.PublishWebhook(ctx, &types.WebhookEvent{EventName: types.WebhookEventLeadCreated}))
		require.Len(t, ps.GetMessages("leads"), 1)
	})
}
