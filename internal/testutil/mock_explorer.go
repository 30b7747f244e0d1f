// Package testutil provides testing utilities for the explorer client.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior of one mock explorer reply.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

type route struct {
	match string
	resp  MockResponse
}

// MockExplorer is a configurable mock GraphQL explorer for testing.
// Responses are chosen by the first registered substring found in the query.
type MockExplorer struct {
	server *httptest.Server
	mu     sync.RWMutex
	routes []route
	queue  []MockResponse

	// Tracking
	RequestCount      int
	Queries           []string
	LastRequestHeader http.Header
}

// NewMockExplorer creates a new mock explorer server.
func NewMockExplorer() *MockExplorer {
	mock := &MockExplorer{}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the GraphQL endpoint of the mock server.
func (m *MockExplorer) URL() string {
	return m.server.URL + "/api/v1/graphql"
}

// Close shuts down the mock server.
func (m *MockExplorer) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and queued responses.
func (m *MockExplorer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.Queries = nil
	m.LastRequestHeader = nil
	m.queue = nil
}

// SetResponse answers every query containing match with resp.
func (m *MockExplorer) SetResponse(match string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route{match: match, resp: resp})
}

// Enqueue adds responses served in order before any route is consulted.
func (m *MockExplorer) Enqueue(resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resps...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockExplorer) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetQueries returns a copy of the queries received, in order.
func (m *MockExplorer) GetQueries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.Queries...)
}

func (m *MockExplorer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	var payload struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal(body, &payload)

	m.mu.Lock()
	m.RequestCount++
	m.Queries = append(m.Queries, payload.Query)
	m.LastRequestHeader = r.Header.Clone()

	resp, ok := m.next(payload.Query)
	m.mu.Unlock()

	if !ok {
		resp = NewDataResponse(`{}`)
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// next must be called with m.mu held.
func (m *MockExplorer) next(query string) (MockResponse, bool) {
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp, true
	}
	for _, rt := range m.routes {
		if strings.Contains(query, rt.match) {
			return rt.resp, true
		}
	}
	return MockResponse{}, false
}

// NewDataResponse creates a 200 OK response with data as the data object.
func NewDataResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data":` + data + `}`,
		Headers: map[string]string{
			"Content-Type":          "application/json; charset=utf-8",
			"X-RateLimit-Limit":     "50",
			"X-RateLimit-Remaining": "49",
			"X-RateLimit-Reset":     "60000",
		},
	}
}

// NewErrorsResponse creates a 200 OK response carrying GraphQL errors.
func NewErrorsResponse(messages ...string) MockResponse {
	errs := make([]map[string]string, len(messages))
	for i, msg := range messages {
		errs[i] = map[string]string{"message": msg}
	}
	b, _ := json.Marshal(map[string]any{"errors": errs})

	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(b),
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewStatusResponse creates a response with the given status code.
func NewStatusResponse(code int) MockResponse {
	return MockResponse{
		StatusCode: code,
		Body:       `<html>moved</html>`,
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}

// NewRateLimitedResponse creates a 200 OK response reporting an exhausted budget.
func NewRateLimitedResponse(data string) MockResponse {
	resp := NewDataResponse(data)
	resp.Headers["X-RateLimit-Remaining"] = "0"
	return resp
}
