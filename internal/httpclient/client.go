package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
)

// Request represents an HTTP request
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// Idempotent marks non-GET requests that are safe to retry
	Idempotent bool
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client interface for making HTTP requests
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	// RateLimit is requests per second, zero disables limiting
	RateLimit float64
}

// DefaultClient sends every request with a timeout. Idempotent requests are
// retried up to MaxRetries times on connection errors and 429/5xx responses.
type DefaultClient struct {
	client   *http.Client
	retrying *retryablehttp.Client
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// NewDefaultClient builds the client from the http_client config section
func NewDefaultClient(cfg *config.Configuration, logger *logger.Logger) Client {
	return NewClient(ClientConfig{
		Timeout:    cfg.HTTPClient.Timeout,
		MaxRetries: cfg.HTTPClient.MaxRetries,
		RateLimit:  cfg.HTTPClient.RateLimit,
	}, logger)
}

// NewClient creates a DefaultClient from an explicit config
func NewClient(cc ClientConfig, logger *logger.Logger) *DefaultClient {
	timeout := cc.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retrying := retryablehttp.NewClient()
	retrying.HTTPClient = &http.Client{Timeout: timeout}
	retrying.RetryMax = cc.MaxRetries
	retrying.RetryWaitMin = defaultRetryWaitMin
	retrying.RetryWaitMax = defaultRetryWaitMax
	retrying.Logger = nil
	// hand back the last response instead of a generic "giving up" error
	retrying.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retrying.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.Debugw("retrying outbound request",
				"method", req.Method,
				"url", req.URL.Redacted(),
				"attempt", attempt,
			)
		}
	}

	var limiter *rate.Limiter
	if cc.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cc.RateLimit), 1)
	}

	return &DefaultClient{
		client:   &http.Client{Timeout: timeout},
		retrying: retrying,
		limiter:  limiter,
		logger:   logger,
	}
}

// Send makes an HTTP request and returns the response
func (c *DefaultClient) Send(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Request cancelled while waiting for rate limit").
				Mark(ierr.ErrHTTPClient)
		}
	}

	var (
		resp *http.Response
		err  error
	)
	if req.Method == http.MethodGet || req.Idempotent {
		resp, err = c.sendWithRetry(ctx, req)
	} else {
		resp, err = c.sendOnce(ctx, req)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Request to external service failed").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read response from external service").
			Mark(ierr.ErrHTTPClient)
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	if resp.StatusCode >= 400 {
		return nil, NewError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}

func (c *DefaultClient) sendOnce(ctx context.Context, req *Request) (*http.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	applyHeaders(httpReq, req)
	return c.client.Do(httpReq)
}

func (c *DefaultClient) sendWithRetry(ctx context.Context, req *Request) (*http.Response, error) {
	var body interface{}
	if req.Body != nil {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	applyHeaders(httpReq.Request, req)
	return c.retrying.Do(httpReq)
}

func applyHeaders(httpReq *http.Request, req *Request) {
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
}
