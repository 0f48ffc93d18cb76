package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

var _ interfaces.IdentityClient = (*FakeIdentityClient)(nil)

// FakeIdentityClient keeps identity users in memory
type FakeIdentityClient struct {
	mu     sync.Mutex
	users  map[string]*types.IdentityUser
	nextID int

	// CreateErr, ChangeEmailErr and TokenErr force the matching call to fail
	CreateErr      error
	ChangeEmailErr error
	TokenErr       error

	Calls []string
}

func NewFakeIdentityClient() *FakeIdentityClient {
	return &FakeIdentityClient{users: make(map[string]*types.IdentityUser)}
}

func (f *FakeIdentityClient) CreateOrGetUser(ctx context.Context, email string) (*types.IdentityUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "CreateOrGetUser:"+email)

	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if u := f.findLocked(email); u != nil {
		return cloneUser(u), nil
	}

	f.nextID++
	u := &types.IdentityUser{
		ID:                    fmt.Sprintf("user_%d", f.nextID),
		PrimaryEmailAddressID: fmt.Sprintf("idn_%d_0", f.nextID),
	}
	u.EmailAddresses = []types.IdentityEmailAddress{{
		ID:           u.PrimaryEmailAddressID,
		EmailAddress: email,
		Verified:     true,
	}}
	f.users[u.ID] = u
	return cloneUser(u), nil
}

func (f *FakeIdentityClient) GetUser(ctx context.Context, userID string) (*types.IdentityUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return nil, ierr.NewError("identity user not found").Mark(ierr.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (f *FakeIdentityClient) FindUserByEmail(ctx context.Context, email string) (*types.IdentityUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u := f.findLocked(email); u != nil {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (f *FakeIdentityClient) ChangePrimaryEmail(ctx context.Context, userID string, email string) (*types.IdentityUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "ChangePrimaryEmail:"+userID+":"+email)

	if f.ChangeEmailErr != nil {
		return nil, f.ChangeEmailErr
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, ierr.NewError("identity user not found").Mark(ierr.ErrNotFound)
	}

	addr := types.IdentityEmailAddress{
		ID:           fmt.Sprintf("idn_%s_%d", userID, len(f.Calls)),
		EmailAddress: email,
		Verified:     true,
	}
	u.EmailAddresses = []types.IdentityEmailAddress{addr}
	u.PrimaryEmailAddressID = addr.ID
	return cloneUser(u), nil
}

func (f *FakeIdentityClient) DeleteEmailAddress(ctx context.Context, emailAddressID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		u.EmailAddresses = lo.Reject(u.EmailAddresses, func(e types.IdentityEmailAddress, _ int) bool {
			return e.ID == emailAddressID
		})
	}
	return nil
}

func (f *FakeIdentityClient) CreateSignInToken(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "CreateSignInToken:"+userID)

	if f.TokenErr != nil {
		return "", f.TokenErr
	}
	return "tok_" + userID, nil
}

// AddUser registers an existing identity user owning email
func (f *FakeIdentityClient) AddUser(id, email string) *types.IdentityUser {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := &types.IdentityUser{
		ID:                    id,
		PrimaryEmailAddressID: "idn_" + id,
		EmailAddresses: []types.IdentityEmailAddress{{
			ID:           "idn_" + id,
			EmailAddress: email,
			Verified:     true,
		}},
	}
	f.users[id] = u
	return cloneUser(u)
}

// CalledWith reports whether a call with the given prefix was made
func (f *FakeIdentityClient) CalledWith(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lo.ContainsBy(f.Calls, func(c string) bool { return strings.HasPrefix(c, prefix) })
}

func (f *FakeIdentityClient) findLocked(email string) *types.IdentityUser {
	for _, u := range f.users {
		for _, e := range u.EmailAddresses {
			if strings.EqualFold(e.EmailAddress, email) {
				return u
			}
		}
	}
	return nil
}

func cloneUser(u *types.IdentityUser) *types.IdentityUser {
	c := *u
	c.EmailAddresses = append([]types.IdentityEmailAddress(nil), u.EmailAddresses...)
	return &c
}
