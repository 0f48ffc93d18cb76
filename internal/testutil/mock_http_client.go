package testutil

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/quizfunnel/leadsync/internal/httpclient"
)

var _ httpclient.Client = (*MockHTTPClient)(nil)

// MockHTTPClient implements httpclient.Client with canned responses per URL suffix
type MockHTTPClient struct {
	mu       sync.RWMutex
	routes   map[string]MockResponse
	requests []*httpclient.Request
}

// MockResponse represents a mock HTTP response
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		routes: make(map[string]MockResponse),
	}
}

// RegisterResponse registers a mock response for a given URL
func (m *MockHTTPClient) RegisterResponse(url string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = resp
}

// Send behaves like the real client: statuses of 400 and above come back as errors
func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched MockResponse
	var found bool
	for route, resp := range m.routes {
		if strings.HasSuffix(req.URL, route) {
			matched = resp
			found = true
			break
		}
	}

	if !found {
		return nil, httpclient.NewError(http.StatusNotFound, []byte("Not Found"))
	}
	if matched.StatusCode >= http.StatusBadRequest {
		return nil, httpclient.NewError(matched.StatusCode, matched.Body)
	}

	return &httpclient.Response{
		StatusCode: matched.StatusCode,
		Body:       matched.Body,
		Headers:    matched.Headers,
	}, nil
}

// Requests returns the requests sent so far
func (m *MockHTTPClient) Requests() []*httpclient.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*httpclient.Request(nil), m.requests...)
}

// Clear removes all registered responses and recorded requests
func (m *MockHTTPClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string]MockResponse)
	m.requests = nil
}
