package svix

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/svix/svix-webhooks/go/models"
)

// Client wraps the Svix SDK client. All lead notifications go to a single
// application whose uid is webhook.svix.app_id.
type Client struct {
	client *svix.Svix
	appUID string
	logger *logger.Logger

	// resolved lazily on the first send
	mu    sync.Mutex
	appID string
}

// NewClient creates a new Svix client, a disabled client is returned when svix is off
func NewClient(cfg *config.Configuration, logger *logger.Logger) (*Client, error) {
	if !cfg.Webhook.Svix.Enabled {
		return &Client{logger: logger}, nil
	}

	serverURL, err := url.Parse(cfg.Webhook.Svix.BaseURL)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("webhook.svix.base_url is not a valid URL").
			Mark(ierr.ErrValidation)
	}

	svixClient, err := svix.New(cfg.Webhook.Svix.AuthToken, &svix.SvixOptions{
		ServerUrl: serverURL,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create svix client").
			Mark(ierr.ErrSystem)
	}

	return &Client{
		client: svixClient,
		appUID: cfg.Webhook.Svix.AppID,
		logger: logger,
	}, nil
}

// Enabled reports whether messages are actually sent
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// GetOrCreateApplication returns the svix application id for lead notifications
func (c *Client) GetOrCreateApplication(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.appID != "" {
		return c.appID, nil
	}

	app, err := c.client.Application.Get(ctx, c.appUID)
	if err == nil {
		c.appID = app.Id
		return c.appID, nil
	}

	app, err = c.client.Application.Create(ctx, models.ApplicationIn{
		Name: c.appUID,
		Uid:  &c.appUID,
	}, &svix.ApplicationCreateOptions{})
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create svix application").
			WithReportableDetails(map[string]any{
				"app_uid": c.appUID,
			}).
			Mark(ierr.ErrExternalService)
	}

	c.logger.Infow("created svix application", "app_id", app.Id, "app_uid", c.appUID)
	c.appID = app.Id
	return c.appID, nil
}

// SendMessage sends one notification to the application
func (c *Client) SendMessage(ctx context.Context, eventType string, payload json.RawMessage) error {
	if !c.Enabled() {
		return nil
	}

	appID, err := c.GetOrCreateApplication(ctx)
	if err != nil {
		return err
	}

	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		return ierr.WithError(err).
			WithHint("Notification payload must be a JSON object").
			Mark(ierr.ErrValidation)
	}

	_, err = c.client.Message.Create(ctx, appID, models.MessageIn{
		EventType: eventType,
		Payload:   payloadMap,
	}, &svix.MessageCreateOptions{})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to send svix message").
			WithReportableDetails(map[string]any{
				"event_type": eventType,
			}).
			Mark(ierr.ErrExternalService)
	}

	return nil
}

// GetDashboardURL returns a short lived app portal link where operators manage endpoints.
// It is empty when svix is disabled.
func (c *Client) GetDashboardURL(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	appID, err := c.GetOrCreateApplication(ctx)
	if err != nil {
		return "", err
	}

	dashboard, err := c.client.Authentication.AppPortalAccess(ctx, appID, models.AppPortalAccessIn{}, &svix.AuthenticationAppPortalAccessOptions{})
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to get svix dashboard access").
			Mark(ierr.ErrExternalService)
	}

	return dashboard.Url, nil
}
