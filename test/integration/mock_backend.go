package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// MockBackend is a configurable HTTP test server that simulates the CeBee
// backend. Responses are configured per route ("METHOD /path", with
// ServeMux wildcards such as "{id}") and every received request is recorded
// for later assertion.
type MockBackend struct {
	t      *testing.T
	server *httptest.Server
	mux    *http.ServeMux

	mu         sync.RWMutex
	routes     map[string]*routeConfig
	registered map[string]bool
	received   map[string][]*RecordedRequest
}

// RecordedRequest captures the details of a request received by the mock backend.
type RecordedRequest struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Headers     http.Header
	Body        map[string]any
	RawBody     []byte
	ReceivedAt  time.Time
}

// routeConfig holds the configured responses for a single route.
type routeConfig struct {
	mu        sync.Mutex
	responses []*mockResponse
	current   int
}

type mockResponse struct {
	status     int
	body       any
	delay      time.Duration
	connError  bool
	headerFunc func(http.Header)
}

// RouteMock is a builder for configuring mock responses for a specific route.
type RouteMock struct {
	backend *MockBackend
	route   string
}

// newMockBackend creates a new mock backend and starts the HTTP test server.
func newMockBackend(t *testing.T) *MockBackend {
	t.Helper()

	mb := &MockBackend{
		t:          t,
		mux:        http.NewServeMux(),
		routes:     make(map[string]*routeConfig),
		registered: make(map[string]bool),
		received:   make(map[string][]*RecordedRequest),
	}

	// Fallback for unregistered routes.
	mb.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mb.record("unmatched", r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorReply("mock: no route registered for " + r.Method + " " + r.URL.Path))
	})

	mb.server = httptest.NewServer(mb.mux)
	t.Cleanup(mb.server.Close)

	return mb
}

// URL returns the base URL of the mock backend server.
func (mb *MockBackend) URL() string {
	return mb.server.URL
}

// On returns a builder for configuring responses for a route such as
// "GET /fixtures" or "PATCH /fixtures/{id}".
func (mb *MockBackend) On(route string) *RouteMock {
	mb.mu.Lock()
	if !mb.registered[route] {
		mb.registered[route] = true
		mb.mux.HandleFunc(route, mb.handleRoute(route))
	}
	mb.mu.Unlock()
	return &RouteMock{backend: mb, route: route}
}

// RespondWith configures the route to respond with the given status and body.
func (rm *RouteMock) RespondWith(status int, body any) *RouteMock {
	rm.backend.addResponse(rm.route, &mockResponse{
		status: status,
		body:   body,
	})
	return rm
}

// RespondWithError configures the route to respond with an error body.
func (rm *RouteMock) RespondWithError(status int, message string) *RouteMock {
	return rm.RespondWith(status, ErrorReply(message))
}

// RespondWithDelay configures a delayed response to simulate slow backends.
func (rm *RouteMock) RespondWithDelay(delay time.Duration, status int, body any) *RouteMock {
	rm.backend.addResponse(rm.route, &mockResponse{
		status: status,
		body:   body,
		delay:  delay,
	})
	return rm
}

// RespondWithConnectionError configures the route to close the connection
// to simulate a backend failure.
func (rm *RouteMock) RespondWithConnectionError() *RouteMock {
	rm.backend.addResponse(rm.route, &mockResponse{
		connError: true,
	})
	return rm
}

// RespondWithHeaders configures additional response headers.
func (rm *RouteMock) RespondWithHeaders(status int, body any, headerFunc func(http.Header)) *RouteMock {
	rm.backend.addResponse(rm.route, &mockResponse{
		status:     status,
		body:       body,
		headerFunc: headerFunc,
	})
	return rm
}

func (mb *MockBackend) addResponse(route string, resp *mockResponse) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	cfg, ok := mb.routes[route]
	if !ok {
		cfg = &routeConfig{}
		mb.routes[route] = cfg
	}
	cfg.responses = append(cfg.responses, resp)
}

func (mb *MockBackend) record(route string, r *http.Request) {
	rec := &RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		QueryParams: make(map[string]string),
		Headers:     r.Header.Clone(),
		ReceivedAt:  time.Now(),
	}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			rec.QueryParams[key] = values[0]
		}
	}
	if r.Body != nil {
		body, _ := io.ReadAll(r.Body)
		rec.RawBody = body
		if len(body) > 0 {
			var parsed map[string]any
			if err := json.Unmarshal(body, &parsed); err == nil {
				rec.Body = parsed
			}
		}
	}

	mb.mu.Lock()
	mb.received[route] = append(mb.received[route], rec)
	mb.mu.Unlock()
}

func (mb *MockBackend) handleRoute(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mb.record(route, r)

		// Get configured response.
		resp := mb.getNextResponse(route)
		if resp == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
			return
		}

		if resp.connError {
			// Hijack the connection and close it to simulate a connection error.
			hj, ok := w.(http.Hijacker)
			if ok {
				conn, _, _ := hj.Hijack()
				if conn != nil {
					conn.Close()
				}
			}
			return
		}

		if resp.delay > 0 {
			select {
			case <-time.After(resp.delay):
			case <-r.Context().Done():
				return
			}
		}

		if resp.headerFunc != nil {
			resp.headerFunc(w.Header())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		if resp.body != nil {
			_ = json.NewEncoder(w).Encode(resp.body)
		}
	}
}

func (mb *MockBackend) getNextResponse(route string) *mockResponse {
	mb.mu.RLock()
	cfg, ok := mb.routes[route]
	mb.mu.RUnlock()
	if !ok || cfg == nil {
		return nil
	}

	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	if len(cfg.responses) == 0 {
		return nil
	}

	idx := cfg.current
	if idx >= len(cfg.responses) {
		// Repeat the last response for subsequent calls.
		idx = len(cfg.responses) - 1
	} else {
		cfg.current++
	}
	return cfg.responses[idx]
}

// AssertCalled verifies that the route was called the expected number of times.
func (mb *MockBackend) AssertCalled(t *testing.T, route string, expectedCount int) {
	t.Helper()
	mb.mu.RLock()
	actual := len(mb.received[route])
	mb.mu.RUnlock()
	if actual != expectedCount {
		t.Errorf("mock backend: route %q called %d times, want %d", route, actual, expectedCount)
	}
}

// AssertNotCalled verifies that the route was never called.
func (mb *MockBackend) AssertNotCalled(t *testing.T, route string) {
	t.Helper()
	mb.AssertCalled(t, route, 0)
}

// LastRequest returns the last request received for the given route.
// Returns nil if no requests were recorded.
func (mb *MockBackend) LastRequest(route string) *RecordedRequest {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	reqs := mb.received[route]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

// AllRequests returns all requests received for the given route.
func (mb *MockBackend) AllRequests(route string) []*RecordedRequest {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	reqs := mb.received[route]
	copied := make([]*RecordedRequest, len(reqs))
	copy(copied, reqs)
	return copied
}

// TotalCalls returns the number of requests received across all routes,
// unmatched ones included.
func (mb *MockBackend) TotalCalls() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	n := 0
	for _, reqs := range mb.received {
		n += len(reqs)
	}
	return n
}

// ResetRoute clears recorded requests and configured responses for one
// route. The route stays registered and answers with an empty success.
func (mb *MockBackend) ResetRoute(route string) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	delete(mb.routes, route)
	delete(mb.received, route)
}

// Reset clears all recorded requests and configured responses.
func (mb *MockBackend) Reset() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.routes = make(map[string]*routeConfig)
	mb.received = make(map[string][]*RecordedRequest)
}
