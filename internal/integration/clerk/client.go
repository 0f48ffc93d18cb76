package clerk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/httpclient"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

const defaultSignInTokenTTL = 30 * 24 * time.Hour

// Client talks to the Clerk backend API
type Client struct {
	baseURL        string
	secretKey      string
	signInTokenTTL time.Duration
	httpClient     httpclient.Client
	logger         *logger.Logger
}

var _ interfaces.IdentityClient = (*Client)(nil)

// NewClient creates a new Clerk client
func NewClient(cfg *config.Configuration, httpClient httpclient.Client, logger *logger.Logger) *Client {
	ttl := cfg.Identity.SignInTokenTTL
	if ttl <= 0 {
		ttl = defaultSignInTokenTTL
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.Identity.BaseURL, "/"),
		secretKey:      cfg.Identity.SecretKey,
		signInTokenTTL: ttl,
		httpClient:     httpClient,
		logger:         logger,
	}
}

// CreateOrGetUser looks the email up first and only creates a user when none owns it.
// A concurrent create that wins the race is resolved by looking up again.
func (c *Client) CreateOrGetUser(ctx context.Context, email string) (*types.IdentityUser, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ierr.NewError("email is required").
			WithHint("An email is required to create an identity").
			Mark(ierr.ErrValidation)
	}

	existing, err := c.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		c.logger.Debugw("identity already exists for email", "user_id", existing.ID)
		return existing, nil
	}

	var user userResponse
	err = c.makeRequest(ctx, http.MethodPost, "/v1/users", createUserRequest{
		EmailAddress:         []string{email},
		SkipPasswordRequired: true,
	}, &user)
	if err != nil {
		if c.isIdentifierExists(err) {
			c.logger.Infow("identity created concurrently, looking it up again")
			existing, findErr := c.FindUserByEmail(ctx, email)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	c.logger.Infow("created identity", "user_id", user.ID)
	return user.toIdentityUser(), nil
}

// GetUser fetches a user by id, ErrNotFound when Clerk does not know it
func (c *Client) GetUser(ctx context.Context, userID string) (*types.IdentityUser, error) {
	var user userResponse
	if err := c.makeRequest(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	return user.toIdentityUser(), nil
}

// FindUserByEmail returns nil, nil when no user owns email
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*types.IdentityUser, error) {
	query := url.Values{}
	query.Set("email_address", strings.TrimSpace(email))

	var users []userResponse
	if err := c.makeRequest(ctx, http.MethodGet, "/v1/users?"+query.Encode(), nil, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0].toIdentityUser(), nil
}

// ChangePrimaryEmail adds email as a verified primary address, then removes every other
// address so the previous email no longer resolves to this user.
func (c *Client) ChangePrimaryEmail(ctx context.Context, userID string, email string) (*types.IdentityUser, error) {
	user, err := c.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	target, found := lo.Find(user.EmailAddresses, func(e types.IdentityEmailAddress) bool {
		return strings.EqualFold(e.EmailAddress, email)
	})

	if found {
		if user.PrimaryEmailAddressID != target.ID {
			err = c.makeRequest(ctx, http.MethodPatch, "/v1/email_addresses/"+url.PathEscape(target.ID), updateEmailAddressRequest{
				Verified: lo.ToPtr(true),
				Primary:  lo.ToPtr(true),
			}, nil)
			if err != nil {
				return nil, err
			}
		}
	} else {
		var created emailAddressResponse
		err = c.makeRequest(ctx, http.MethodPost, "/v1/email_addresses", createEmailAddressRequest{
			UserID:       userID,
			EmailAddress: email,
			Verified:     true,
			Primary:      true,
		}, &created)
		if err != nil {
			return nil, err
		}
		target = types.IdentityEmailAddress{ID: created.ID, EmailAddress: created.EmailAddress, Verified: true}
	}

	for _, old := range user.EmailAddresses {
		if old.ID == target.ID {
			continue
		}
		if err := c.DeleteEmailAddress(ctx, old.ID); err != nil {
			return nil, err
		}
	}

	c.logger.Infow("changed identity primary email",
		"user_id", userID,
		"removed_addresses", len(user.EmailAddresses)-lo.Ternary(found, 1, 0),
	)

	return c.GetUser(ctx, userID)
}

// DeleteEmailAddress detaches an address from its user. Already deleted addresses are ignored.
func (c *Client) DeleteEmailAddress(ctx context.Context, emailAddressID string) error {
	var resp deletedObjectResponse
	err := c.makeRequest(ctx, http.MethodDelete, "/v1/email_addresses/"+url.PathEscape(emailAddressID), nil, &resp)
	if err != nil && ierr.IsNotFound(err) {
		return nil
	}
	return err
}

// CreateSignInToken issues a one-time token the funnel exchanges for a session
func (c *Client) CreateSignInToken(ctx context.Context, userID string) (string, error) {
	var resp signInTokenResponse
	err := c.makeRequest(ctx, http.MethodPost, "/v1/sign_in_tokens", createSignInTokenRequest{
		UserID:           userID,
		ExpiresInSeconds: int64(c.signInTokenTTL.Seconds()),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) isIdentifierExists(err error) bool {
	httpErr, ok := httpclient.IsHTTPError(err)
	if !ok || httpErr.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	var body errorResponse
	if jsonErr := json.Unmarshal(httpErr.Response, &body); jsonErr != nil {
		return false
	}
	return body.hasCode(errCodeIdentifierExists)
}

// makeRequest sends an authenticated request and decodes the JSON response into response
func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body interface{}, response interface{}) error {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Invalid identity request data").
				Mark(ierr.ErrSystem)
		}
	}

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method: method,
		URL:    fullURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.secretKey,
			"Accept":        "application/json",
		},
		Body: jsonBody,
	})
	if err != nil {
		return c.wrapError(err, method, endpoint)
	}

	if response != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, response); err != nil {
			c.logger.Errorw("failed to decode clerk response", "error", err, "endpoint", endpoint)
			return ierr.WithError(err).
				WithHint("Invalid response from identity provider").
				Mark(ierr.ErrExternalService)
		}
	}
	return nil
}

func (c *Client) wrapError(err error, method, endpoint string) error {
	statusCode := httpclient.StatusCode(err)
	c.logger.Errorw("clerk API request failed",
		"error", err,
		"method", method,
		"endpoint", strings.SplitN(endpoint, "?", 2)[0],
		"status_code", statusCode,
	)

	details := map[string]interface{}{
		"method":      method,
		"status_code": statusCode,
	}
	if statusCode == http.StatusNotFound {
		return ierr.WithError(err).
			WithHint("Identity not found").
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHint("Identity provider request failed").
		WithReportableDetails(details).
		Mark(ierr.ErrExternalService)
}
