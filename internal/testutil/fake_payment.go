package testutil

import (
	"context"
	"sync"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/types"
)

var _ interfaces.PaymentClient = (*FakePaymentClient)(nil)

// FakePaymentClient records checkout requests and returns canned webhook events.
// Signatures equal to ValidSignature verify.
type FakePaymentClient struct {
	mu sync.Mutex

	ValidSignature string
	// Event is returned by ParseWebhook after a valid signature
	Event *types.PaymentEvent
	// ParseErr is returned after a valid signature, standing in for an undecodable body
	ParseErr error

	SessionID   string
	SessionURL  string
	CheckoutErr error

	Requests []*types.CheckoutSessionRequest
}

func NewFakePaymentClient() *FakePaymentClient {
	return &FakePaymentClient{
		ValidSignature: "valid",
		SessionID:      "cs_test_1",
		SessionURL:     "https://checkout.stripe.test/c/cs_test_1",
	}
}

func (f *FakePaymentClient) CreateCheckoutSession(ctx context.Context, req *types.CheckoutSessionRequest) (*types.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if f.CheckoutErr != nil {
		return nil, f.CheckoutErr
	}
	return &types.CheckoutSession{ID: f.SessionID, URL: f.SessionURL}, nil
}

func (f *FakePaymentClient) ParseWebhook(payload []byte, signature string) (*types.PaymentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if signature == "" || signature != f.ValidSignature {
		return nil, ierr.NewError("invalid webhook signature").
			WithHint("Webhook signature verification failed").
			Mark(ierr.ErrUnauthorized)
	}
	if f.ParseErr != nil {
		return nil, f.ParseErr
	}
	if f.Event == nil {
		return &types.PaymentEvent{Type: types.PaymentEventIgnored}, nil
	}
	return f.Event, nil
}
