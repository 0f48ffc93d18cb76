package testutil

import (
	"context"
	"sync"
	"time"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/types"
)

var (
	_ interfaces.EntitlementClient  = (*FakeEntitlementClient)(nil)
	_ interfaces.EntitlementGranter = (*FakeGranter)(nil)
)

// FakeEntitlementClient keeps subscribers and their promotional grants in memory
type FakeEntitlementClient struct {
	mu sync.Mutex

	ValidSignature string
	Event          *types.EntitlementEvent
	ParseErr       error

	Active       map[string]bool
	Emails       map[string]string
	Grants       map[string][]types.EntitlementDuration
	Revoked      []string
	Receipts     []*types.GrantRequest
	HasActiveErr error
}

func NewFakeEntitlementClient() *FakeEntitlementClient {
	return &FakeEntitlementClient{
		ValidSignature: "valid",
		Active:         make(map[string]bool),
		Emails:         make(map[string]string),
		Grants:         make(map[string][]types.EntitlementDuration),
	}
}

func (f *FakeEntitlementClient) GetOrCreateSubscriber(ctx context.Context, appUserID string) (*types.Subscriber, error) {
	return &types.Subscriber{AppUserID: appUserID}, nil
}

func (f *FakeEntitlementClient) SetEmailAttribute(ctx context.Context, appUserID string, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Emails[appUserID] = email
	return nil
}

func (f *FakeEntitlementClient) GrantPromotional(ctx context.Context, appUserID string, duration types.EntitlementDuration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Grants[appUserID] = append(f.Grants[appUserID], duration)
	f.Active[appUserID] = true
	return nil
}

func (f *FakeEntitlementClient) RevokePromotional(ctx context.Context, appUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Revoked = append(f.Revoked, appUserID)
	f.Active[appUserID] = false
	return nil
}

func (f *FakeEntitlementClient) RecordReceipt(ctx context.Context, req *types.GrantRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Receipts = append(f.Receipts, req)
	return nil
}

func (f *FakeEntitlementClient) HasActiveEntitlement(ctx context.Context, appUserID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HasActiveErr != nil {
		return false, f.HasActiveErr
	}
	return f.Active[appUserID], nil
}

func (f *FakeEntitlementClient) ParseWebhook(payload []byte, signature string) (*types.EntitlementEvent, error) {
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
		return &types.EntitlementEvent{Type: types.EntitlementEventTest}, nil
	}
	return f.Event, nil
}

// GrantCount returns how many promotional grants appUserID received
func (f *FakeEntitlementClient) GrantCount(appUserID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Grants[appUserID])
}

// FakeGranter records grant requests and answers with a configurable result
type FakeGranter struct {
	mu sync.Mutex

	StrategyType types.GrantStrategy
	Fail         bool
	Requests     []*types.GrantRequest
	Revoked      []string
	GrantedAt    []time.Time
}

func NewFakeGranter() *FakeGranter {
	return &FakeGranter{StrategyType: types.GrantStrategyPromotional}
}

func (g *FakeGranter) Strategy() types.GrantStrategy {
	return g.StrategyType
}

func (g *FakeGranter) Grant(ctx context.Context, req *types.GrantRequest) *types.GrantResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Requests = append(g.Requests, req)
	if g.Fail {
		return &types.GrantResult{
			Strategy: g.StrategyType,
			Error:    ierr.NewError("grant failed").Mark(ierr.ErrExternalService),
		}
	}
	g.GrantedAt = append(g.GrantedAt, time.Now().UTC())
	return &types.GrantResult{Strategy: g.StrategyType, Success: true}
}

func (g *FakeGranter) Revoke(ctx context.Context, subscriberID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Revoked = append(g.Revoked, subscriberID)
	return nil
}

// GrantCount returns the number of Grant calls
func (g *FakeGranter) GrantCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}
