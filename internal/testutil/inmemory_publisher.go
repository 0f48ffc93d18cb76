package testutil

import (
	"context"
	"sync"

	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/webhook/publisher"
	"github.com/samber/lo"
)

var _ publisher.WebhookPublisher = (*InMemoryWebhookPublisher)(nil)

// InMemoryWebhookPublisher records published lead notifications
type InMemoryWebhookPublisher struct {
	mu     sync.RWMutex
	events []*types.WebhookEvent
	Err    error
}

func NewInMemoryWebhookPublisher() *InMemoryWebhookPublisher {
	return &InMemoryWebhookPublisher{}
}

func (p *InMemoryWebhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryWebhookPublisher) Close() error {
	return nil
}

// Events returns every published event
func (p *InMemoryWebhookPublisher) Events() []*types.WebhookEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*types.WebhookEvent(nil), p.events...)
}

// EventNames returns the names of published events in order
func (p *InMemoryWebhookPublisher) EventNames() []string {
	return lo.Map(p.Events(), func(e *types.WebhookEvent, _ int) string { return e.EventName })
}

// Clear drops recorded events
func (p *InMemoryWebhookPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
