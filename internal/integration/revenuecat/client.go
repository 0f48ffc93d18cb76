package revenuecat

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
	"github.com/shopspring/decimal"
)

// Client talks to the RevenueCat REST API v1
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	entitlementID string
	httpClient    httpclient.Client
	logger        *logger.Logger
	now           func() time.Time
}

var _ interfaces.EntitlementClient = (*Client)(nil)

// NewClient creates a new RevenueCat client
func NewClient(cfg *config.Configuration, httpClient httpclient.Client, logger *logger.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.Entitlement.BaseURL, "/"),
		secretKey:     cfg.Entitlement.SecretKey,
		webhookSecret: cfg.Entitlement.WebhookSecret,
		entitlementID: cfg.Entitlement.EntitlementID,
		httpClient:    httpClient,
		logger:        logger,
		now:           time.Now,
	}
}

// GetOrCreateSubscriber fetches the subscriber, RevenueCat creates unknown app user ids on read
func (c *Client) GetOrCreateSubscriber(ctx context.Context, appUserID string) (*types.Subscriber, error) {
	if err := requireAppUserID(appUserID); err != nil {
		return nil, err
	}

	var resp subscriberResponse
	if err := c.makeRequest(ctx, http.MethodGet, c.subscriberPath(appUserID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toSubscriber(appUserID), nil
}

// SetEmailAttribute stores the reserved $email attribute. Attributes do not create subscribers.
func (c *Client) SetEmailAttribute(ctx context.Context, appUserID string, email string) error {
	if err := requireAppUserID(appUserID); err != nil {
		return err
	}
	if email == "" {
		return nil
	}

	req := setAttributesRequest{
		Attributes: map[string]attributeValue{
			attributeEmail: {Value: email},
		},
	}
	return c.makeRequest(ctx, http.MethodPost, c.subscriberPath(appUserID)+"/attributes", nil, req, nil)
}

// GrantPromotional grants the configured entitlement for duration
func (c *Client) GrantPromotional(ctx context.Context, appUserID string, duration types.EntitlementDuration) error {
	if err := requireAppUserID(appUserID); err != nil {
		return err
	}
	if err := duration.Validate(); err != nil {
		return err
	}

	return c.makeRequest(ctx, http.MethodPost, c.entitlementPath(appUserID)+"/promotional", nil,
		grantPromotionalRequest{Duration: duration}, nil)
}

// RevokePromotional removes every promotional grant of the configured entitlement
func (c *Client) RevokePromotional(ctx context.Context, appUserID string) error {
	if err := requireAppUserID(appUserID); err != nil {
		return err
	}
	return c.makeRequest(ctx, http.MethodPost, c.entitlementPath(appUserID)+"/revoke_promotionals", nil, nil, nil)
}

// RecordReceipt submits the payment session as a Stripe receipt so RevenueCat grants
// from its own product mapping
func (c *Client) RecordReceipt(ctx context.Context, req *types.GrantRequest) error {
	if err := requireAppUserID(req.SubscriberID); err != nil {
		return err
	}
	if req.SessionID == "" {
		return ierr.NewError("fetch token is required").
			WithHint("A payment session id is required to record a receipt").
			Mark(ierr.ErrValidation)
	}

	body := receiptRequest{
		AppUserID:  req.SubscriberID,
		FetchToken: req.SessionID,
		ProductID:  req.ProductID,
		Currency:   strings.ToUpper(req.Currency),
	}
	if req.Price != nil {
		price, _ := decimal.NewFromInt(*req.Price).Shift(-2).Float64()
		body.Price = &price
	}
	if req.Email != "" {
		body.Attributes = map[string]attributeValue{attributeEmail: {Value: req.Email}}
	}

	headers := map[string]string{"X-Platform": platformStripe}
	return c.makeRequest(ctx, http.MethodPost, "/v1/receipts", headers, body, nil)
}

// HasActiveEntitlement reports whether the configured entitlement is in force right now
func (c *Client) HasActiveEntitlement(ctx context.Context, appUserID string) (bool, error) {
	sub, err := c.GetOrCreateSubscriber(ctx, appUserID)
	if err != nil {
		return false, err
	}
	return sub.IsActive(c.entitlementID, c.now()), nil
}

func (c *Client) subscriberPath(appUserID string) string {
	return "/v1/subscribers/" + url.PathEscape(appUserID)
}

func (c *Client) entitlementPath(appUserID string) string {
	return c.subscriberPath(appUserID) + "/entitlements/" + url.PathEscape(c.entitlementID)
}

func requireAppUserID(appUserID string) error {
	if strings.TrimSpace(appUserID) == "" {
		return ierr.NewError("app user id is required").
			WithHint("A subscriber id is required for entitlement calls").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, headers map[string]string, body interface{}, response interface{}) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Invalid entitlement request data").
				Mark(ierr.ErrSystem)
		}
	}

	reqHeaders := map[string]string{
		"Authorization": "Bearer " + c.secretKey,
		"Accept":        "application/json",
	}
	for k, v := range headers {
		reqHeaders[k] = v
	}

	resp, err := c.httpClient.Send(ctx, &httpclient.Request{
		Method:  method,
		URL:     fmt.Sprintf("%s%s", c.baseURL, endpoint),
		Headers: reqHeaders,
		Body:    jsonBody,
	})
	if err != nil {
		return c.wrapError(err, method, endpoint)
	}

	if response != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, response); err != nil {
			c.logger.Errorw("failed to decode revenuecat response", "error", err, "endpoint", endpoint)
			return ierr.WithError(err).
				WithHint("Invalid response from entitlement provider").
				Mark(ierr.ErrExternalService)
		}
	}
	return nil
}

func (c *Client) wrapError(err error, method, endpoint string) error {
	details := map[string]interface{}{
		"method":      method,
		"status_code": httpclient.StatusCode(err),
	}
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		var body errorResponse
		if json.Unmarshal(httpErr.Response, &body) == nil && body.Message != "" {
			details["provider_message"] = body.Message
		}
	}

	c.logger.Errorw("revenuecat API request failed",
		"error", err,
		"method", method,
		"endpoint", endpoint,
		"details", details,
	)

	return ierr.WithError(err).
		WithHint("Entitlement provider request failed").
		WithReportableDetails(details).
		Mark(ierr.ErrExternalService)
}
