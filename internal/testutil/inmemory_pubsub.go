package testutil

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/quizfunnel/leadsync/internal/pubsub"
)

var _ pubsub.PubSub = (*InMemoryPubSub)(nil)

// InMemoryPubSub stores published messages per topic and fans them out to subscribers
type InMemoryPubSub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *message.Message
	messages    map[string][]*message.Message
	closed      bool
	// PublishErr, when set, fails every Publish
	PublishErr error
}

func NewInMemoryPubSub() *InMemoryPubSub {
	return &InMemoryPubSub{
		subscribers: make(map[string][]chan *message.Message),
		messages:    make(map[string][]*message.Message),
	}
}

func (ps *InMemoryPubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.PublishErr != nil {
		return ps.PublishErr
	}

	ps.messages[topic] = append(ps.messages[topic], msg)
	for _, ch := range ps.subscribers[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe replays stored messages for topic and then streams new ones
func (ps *InMemoryPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan *message.Message, 100)
	for _, msg := range ps.messages[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
	ps.subscribers[topic] = append(ps.subscribers[topic], ch)
	return ch, nil
}

func (ps *InMemoryPubSub) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed {
		return nil
	}
	ps.closed = true
	for _, subs := range ps.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	ps.subscribers = make(map[string][]chan *message.Message)
	return nil
}

// GetMessages returns all messages published to a topic
func (ps *InMemoryPubSub) GetMessages(topic string) []*message.Message {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return append([]*message.Message(nil), ps.messages[topic]...)
}
