package clerk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/httpclient"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/stretchr/testify/suite"
)

// fakeClerk keeps users and addresses in memory and speaks the subset of the backend API the client uses
type fakeClerk struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*userResponse
	createHit int
	// raceEmail is registered by a competing request right before the next create
	raceEmail string
}

func newFakeClerk() *fakeClerk {
	return &fakeClerk{users: make(map[string]*userResponse)}
}

func (f *fakeClerk) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d", prefix, f.seq)
}

func (f *fakeClerk) addUser(email string) *userResponse {
	addrID := f.nextID("idn")
	u := &userResponse{
		ID:                    f.nextID("user"),
		PrimaryEmailAddressID: &addrID,
		EmailAddresses:        []emailAddressResponse{{ID: addrID, EmailAddress: email}},
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeClerk) findByEmail(email string) *userResponse {
	for _, u := range f.users {
		for _, e := range u.EmailAddresses {
			if strings.EqualFold(e.EmailAddress, email) {
				return u
			}
		}
	}
	return nil
}

func (f *fakeClerk) findAddress(id string) (*userResponse, int) {
	for _, u := range f.users {
		for i, e := range u.EmailAddresses {
			if e.ID == id {
				return u, i
			}
		}
	}
	return nil, -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeClerk) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		users := []*userResponse{}
		if u := f.findByEmail(r.URL.Query().Get("email_address")); u != nil {
			users = append(users, u)
		}
		writeJSON(w, http.StatusOK, users)
	})

	mux.HandleFunc("POST /v1/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.createHit++
		var req createUserRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if f.raceEmail != "" {
			f.addUser(f.raceEmail)
			f.raceEmail = ""
		}
		if f.findByEmail(req.EmailAddress[0]) != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"errors": []map[string]string{{"code": errCodeIdentifierExists, "message": "taken"}},
			})
			return
		}
		writeJSON(w, http.StatusOK, f.addUser(req.EmailAddress[0]))
	})

	mux.HandleFunc("GET /v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		u, ok := f.users[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"errors": []map[string]string{{"code": "resource_not_found"}}})
			return
		}
		writeJSON(w, http.StatusOK, u)
	})

	mux.HandleFunc("POST /v1/email_addresses", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var req createEmailAddressRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		u, ok := f.users[req.UserID]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{})
			return
		}
		addr := emailAddressResponse{ID: f.nextID("idn"), EmailAddress: req.EmailAddress}
		u.EmailAddresses = append(u.EmailAddresses, addr)
		if req.Primary {
			u.PrimaryEmailAddressID = &addr.ID
		}
		writeJSON(w, http.StatusOK, addr)
	})

	mux.HandleFunc("PATCH /v1/email_addresses/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		u, i := f.findAddress(r.PathValue("id"))
		if u == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{})
			return
		}
		id := u.EmailAddresses[i].ID
		u.PrimaryEmailAddressID = &id
		writeJSON(w, http.StatusOK, u.EmailAddresses[i])
	})

	mux.HandleFunc("DELETE /v1/email_addresses/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		u, i := f.findAddress(r.PathValue("id"))
		if u == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{})
			return
		}
		u.EmailAddresses = append(u.EmailAddresses[:i], u.EmailAddresses[i+1:]...)
		writeJSON(w, http.StatusOK, deletedObjectResponse{ID: r.PathValue("id"), Deleted: true})
	})

	mux.HandleFunc("POST /v1/sign_in_tokens", func(w http.ResponseWriter, r *http.Request) {
		var req createSignInTokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if r.Header.Get("Authorization") != "Bearer sk_test_clerk" || req.ExpiresInSeconds <= 0 {
			writeJSON(w, http.StatusUnauthorized, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, signInTokenResponse{ID: "sit_1", Token: "tok_" + req.UserID})
	})

	return mux
}

type ClientSuite struct {
	suite.Suite
	ctx    context.Context
	fake   *fakeClerk
	server *httptest.Server
	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.fake = newFakeClerk()
	s.server = httptest.NewServer(s.fake.handler())

	cfg := &config.Configuration{
		Identity: config.IdentityConfig{
			BaseURL:        s.server.URL,
			SecretKey:      "sk_test_clerk",
			SignInTokenTTL: time.Hour,
		},
	}
	log := logger.NewNoopLogger()
	s.client = NewClient(cfg, httpclient.NewClient(httpclient.ClientConfig{Timeout: time.Second}, log), log)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) TestCreateOrGetUserCreatesOnce() {
	first, err := s.client.CreateOrGetUser(s.ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal("a@x.com", first.PrimaryEmail())

	second, err := s.client.CreateOrGetUser(s.ctx, "A@x.com")
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(1, s.fake.createHit)
}

func (s *ClientSuite) TestCreateOrGetUserResolvesConcurrentCreate() {
	s.fake.raceEmail = "race@x.com"

	user, err := s.client.CreateOrGetUser(s.ctx, "race@x.com")
	s.Require().NoError(err)
	s.Equal("race@x.com", user.PrimaryEmail())
	s.Len(s.fake.users, 1)
}

func (s *ClientSuite) TestCreateOrGetUserRequiresEmail() {
	_, err := s.client.CreateOrGetUser(s.ctx, "  ")
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ClientSuite) TestGetUserNotFound() {
	_, err := s.client.GetUser(s.ctx, "user_missing")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ClientSuite) TestFindUserByEmailAbsent() {
	user, err := s.client.FindUserByEmail(s.ctx, "nobody@x.com")
	s.Require().NoError(err)
	s.Nil(user)
}

func (s *ClientSuite) TestChangePrimaryEmailRemovesOldAddress() {
	created, err := s.client.CreateOrGetUser(s.ctx, "a@x.com")
	s.Require().NoError(err)

	updated, err := s.client.ChangePrimaryEmail(s.ctx, created.ID, "b@x.com")
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)
	s.Equal("b@x.com", updated.PrimaryEmail())
	s.Len(updated.EmailAddresses, 1)

	old, err := s.client.FindUserByEmail(s.ctx, "a@x.com")
	s.Require().NoError(err)
	s.Nil(old)
}

func (s *ClientSuite) TestChangePrimaryEmailPromotesExistingAddress() {
	created, err := s.client.CreateOrGetUser(s.ctx, "a@x.com")
	s.Require().NoError(err)

	s.fake.mu.Lock()
	u := s.fake.users[created.ID]
	u.EmailAddresses = append(u.EmailAddresses, emailAddressResponse{ID: "idn_extra", EmailAddress: "b@x.com"})
	s.fake.mu.Unlock()

	updated, err := s.client.ChangePrimaryEmail(s.ctx, created.ID, "B@x.com")
	s.Require().NoError(err)
	s.Equal("idn_extra", updated.PrimaryEmailAddressID)
	s.Len(updated.EmailAddresses, 1)
}

func (s *ClientSuite) TestDeleteEmailAddressIgnoresMissing() {
	s.NoError(s.client.DeleteEmailAddress(s.ctx, "idn_gone"))
}

func (s *ClientSuite) TestCreateSignInToken() {
	token, err := s.client.CreateSignInToken(s.ctx, "user_7")
	s.Require().NoError(err)
	s.Equal("tok_user_7", token)
}
