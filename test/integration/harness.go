// Package integration provides a reusable test harness for end-to-end
// testing of the CeBee Predict admin server. It starts the full HTTP server
// with a mock CeBee backend, an in-memory session store and a token issuer
// standing in for the backend's login.
package integration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cebeepredict/admin/internal/apiclient"
	"github.com/cebeepredict/admin/internal/cms"
	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/internal/definition"
	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/internal/table"
	"github.com/cebeepredict/admin/internal/transport"
	"github.com/cebeepredict/admin/internal/ui"
	"github.com/cebeepredict/admin/model"
)

// Cookie names set by the server.
const (
	SessionCookie = "cebee_sid"
	CSRFCookie    = "cebee_csrf"
)

// AllowedOrigin is the CORS origin the harness configures.
const AllowedOrigin = "https://admin.cebeepredict.com"

// TestHarness encapsulates a fully wired admin server with a mock backend
// for integration testing.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	issuer *tokenIssuer

	// Internal components exposed for advanced test scenarios.
	Registry *definition.Registry
	Store    *session.MemoryStore
	Client   *apiclient.Client
	Metrics  *observability.Metrics
	Gatherer *prometheus.Registry

	backend *MockBackend
	cfg     *config.Config
}

// HarnessOption configures the test harness.
type HarnessOption func(*config.Config)

// WithCircuitBreaker enables the backend circuit breaker with cb.
func WithCircuitBreaker(cb config.CircuitBreakerConfig) HarnessOption {
	return func(c *config.Config) {
		cb.Enabled = true
		c.Backend.CircuitBreaker = cb
	}
}

// WithBackendTimeout sets the per-call backend timeout.
func WithBackendTimeout(d time.Duration) HarnessOption {
	return func(c *config.Config) {
		c.Backend.Timeout = d
	}
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *config.Config) {
		c.Server.HandlerTimeout = d
	}
}

// WithRateLimit enables the JSON API rate limit.
func WithRateLimit(requests int, window time.Duration) HarnessOption {
	return func(c *config.Config) {
		c.Server.RateLimit = config.RateLimitConfig{Enabled: true, Requests: requests, Window: window}
	}
}

// NewTestHarness creates and starts a full admin server. The server and the
// mock backend are cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	h := &TestHarness{t: t}

	// Step 1: Start the mock backend.
	h.backend = newMockBackend(t)

	// Step 2: Build config. The breaker and rate limit are off unless a test
	// asks for them.
	h.cfg = config.Defaults()
	h.cfg.Backend.BaseURL = h.backend.URL()
	h.cfg.Backend.Timeout = 5 * time.Second
	h.cfg.Backend.CircuitBreaker.Enabled = false
	h.cfg.Server.HandlerTimeout = 10 * time.Second
	h.cfg.Server.RateLimit.Enabled = false
	h.cfg.Server.CORS.AllowedOrigins = []string{AllowedOrigin}
	for _, opt := range opts {
		opt(h.cfg)
	}

	// Step 3: Load definitions.
	defs, err := definition.NewLoader().LoadBuiltin()
	if err != nil {
		t.Fatalf("load definitions: %v", err)
	}
	if verrs := definition.NewValidator().Validate(defs); len(verrs) > 0 {
		t.Fatalf("builtin definitions invalid: %v", verrs)
	}
	h.Registry = definition.NewRegistry(defs)

	// Step 4: Metrics on a private registry.
	h.Gatherer = prometheus.NewRegistry()
	h.Metrics = observability.InitMetrics(h.Gatherer)
	h.Metrics.SetDefinitionsLoaded(float64(h.Registry.Count()))

	// Step 5: Session store, client and providers.
	h.Store = session.NewMemoryStore()
	h.Client = apiclient.New(h.cfg.Backend, apiclient.WithMetrics(h.Metrics))
	resources := resource.NewProvider(h.Registry, h.cfg.Listing, resource.WithMetrics(h.Metrics))
	content := cms.NewService(h.Registry, nil)
	auth := session.NewAuthenticator(h.Metrics, nil)
	cookies := session.NewCookies(h.Store, h.cfg.Session)
	pages := ui.NewHandler(h.Registry, resources, content, auth, cookies, h.Client,
		table.NewFormatter(h.cfg.Listing.Locale), nil, false)

	// Step 6: Token issuer for login responses.
	h.issuer = newTokenIssuer(t)

	// Step 7: Build router with the full middleware chain.
	router := transport.NewRouter(transport.Dependencies{
		Config:    h.cfg,
		Registry:  h.Registry,
		Resources: resources,
		Content:   content,
		Auth:      auth,
		Cookies:   cookies,
		Client:    h.Client,
		Pages:     pages,
		Metrics:   h.Metrics,
		ReadyHandler: observability.HandleReady(observability.ReadinessChecks{
			DefinitionsLoaded: func() bool { return h.Registry.Count() > 0 },
			Backend:           h.Client,
		}),
		MetricsHandler: observability.HandlerFor(h.Gatherer),
	})

	// Step 8: Start test server.
	h.server = httptest.NewServer(router)
	t.Cleanup(func() {
		h.server.Close()
	})

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// Backend returns the mock CeBee backend.
func (h *TestHarness) Backend() *MockBackend {
	return h.backend
}

// Config returns the config the server was built with.
func (h *TestHarness) Config() *config.Config {
	return h.cfg
}

// BackendToken mints a backend token for subject that expires after ttl.
func (h *TestHarness) BackendToken(subject string, ttl time.Duration) string {
	return h.issuer.Token(subject, ttl)
}

// --- Sessions ---

// Login signs in through the JSON API against a mocked backend login and
// returns the session cookie.
func (h *TestHarness) Login(t *testing.T) *http.Cookie {
	t.Helper()
	h.backend.On("POST /auth/login").RespondWith(http.StatusOK, LoginReply(h.BackendToken("u1", time.Hour), AdminUser()))

	resp := h.POST("/ui/api/auth/login", map[string]string{
		"email":    "ops@cebeepredict.com",
		"password": "secret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", resp.StatusCode, h.ReadBody(resp))
	}
	resp.Body.Close()
	sid := CookieNamed(resp, SessionCookie)
	if sid == nil {
		t.Fatal("login set no session cookie")
	}
	h.backend.ResetRoute("POST /auth/login")
	return sid
}

// SeedSession stores sess under a fresh key and returns the matching
// cookie, bypassing the login endpoint.
func (h *TestHarness) SeedSession(t *testing.T, sess *model.Session) *http.Cookie {
	t.Helper()
	key := session.NewKey()
	if err := h.Store.Save(context.Background(), key, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return &http.Cookie{Name: SessionCookie, Value: key}
}

// CSRF fetches the login page and returns the CSRF cookie it sets.
func (h *TestHarness) CSRF(t *testing.T) *http.Cookie {
	t.Helper()
	resp := h.GET("/login")
	resp.Body.Close()
	c := CookieNamed(resp, CSRFCookie)
	if c == nil {
		t.Fatal("login page set no CSRF cookie")
	}
	return c
}

// --- HTTP client helpers ---

// GET performs a GET request with the given cookies.
func (h *TestHarness) GET(path string, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	return h.Do("GET", path, nil, nil, cookies...)
}

// POST performs a POST request with a JSON body.
func (h *TestHarness) POST(path string, body any, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	return h.Do("POST", path, body, nil, cookies...)
}

// PUT performs a PUT request with a JSON body.
func (h *TestHarness) PUT(path string, body any, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	return h.Do("PUT", path, body, nil, cookies...)
}

// PATCH performs a PATCH request with a JSON body.
func (h *TestHarness) PATCH(path string, body any, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	return h.Do("PATCH", path, body, nil, cookies...)
}

// DELETE performs a DELETE request.
func (h *TestHarness) DELETE(path string, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	return h.Do("DELETE", path, nil, nil, cookies...)
}

// PostForm submits an HTML form. The CSRF cookie, if given, is sent along
// and its value copied into the csrf_token field unless form already has one.
func (h *TestHarness) PostForm(path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	for _, c := range cookies {
		if c.Name == CSRFCookie && !form.Has("csrf_token") {
			form.Set("csrf_token", c.Value)
		}
	}
	return h.Do("POST", path, strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, cookies...)
}

// Do performs a request. An io.Reader body is sent as is; any other non-nil
// body is encoded as JSON with an application/json content type.
func (h *TestHarness) Do(method, path string, body any, headers map[string]string, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()

	var bodyReader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case io.Reader:
		bodyReader = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(context.Background(), method, h.server.URL+path, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}

	client := &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	data := h.ReadBody(resp)
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// ReadBody reads and returns the response body as bytes.
func (h *TestHarness) ReadBody(resp *http.Response) []byte {
	h.t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	return data
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks that the response has the expected status and parses the body.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// AssertErrorCode checks the status and the error envelope code of a JSON
// API error response.
func (h *TestHarness) AssertErrorCode(t *testing.T, resp *http.Response, status int, code string) *model.ErrorEnvelope {
	t.Helper()
	var body struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	h.AssertJSON(t, resp, status, &body)
	if body.Error == nil {
		t.Fatalf("response has no error envelope")
	}
	if body.Error.Code != code {
		t.Errorf("error code = %q, want %q (message %q)", body.Error.Code, code, body.Error.Message)
	}
	return body.Error
}

// --- Fixtures ---

// CookieNamed returns the cookie set by resp with the given name.
func CookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AdminUser returns the user record the backend sends on login.
func AdminUser() map[string]any {
	return map[string]any{
		"_id":   "u1",
		"name":  "Ops Admin",
		"email": "ops@cebeepredict.com",
		"role":  "admin",
	}
}

// LoginReply returns a backend login response.
func LoginReply(token string, user map[string]any) map[string]any {
	return Envelope(map[string]any{"token": token, "user": user})
}

// Envelope wraps data in the backend's success envelope.
func Envelope(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

// PagedEnvelope wraps one server-side page of items with its total.
func PagedEnvelope(items []map[string]any, total int) map[string]any {
	return Envelope(map[string]any{"items": items, "total": total})
}

// ErrorReply returns a backend error body.
func ErrorReply(message string) map[string]any {
	return map[string]any{"success": false, "message": message}
}

// FixtureRow returns a fixture record as the backend sends it.
func FixtureRow(id, home, away, league, kickoff, status string) map[string]any {
	return map[string]any{
		"id":          id,
		"homeTeam":    map[string]any{"name": home},
		"awayTeam":    map[string]any{"name": away},
		"league":      map[string]any{"name": league},
		"kickoffTime": kickoff,
		"status":      status,
	}
}

// DefaultFixtures returns three fixtures in no particular order.
func DefaultFixtures() []map[string]any {
	return []map[string]any{
		FixtureRow("f1", "Arsenal", "Chelsea", "Premier League", "2026-08-15T14:00:00Z", "live"),
		FixtureRow("f2", "Enyimba", "Rangers", "NPFL", "2026-08-16T16:00:00Z", "scheduled"),
		FixtureRow("f3", "Barcelona", "Sevilla", "La Liga", "2026-08-14T19:00:00Z", "finished"),
	}
}

// ManyFixtures returns n fixtures f01..fNN kicking off one hour apart.
func ManyFixtures(n int) []map[string]any {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]map[string]any, n)
	for i := range n {
		rows[i] = FixtureRow(
			fmt.Sprintf("f%02d", i+1),
			fmt.Sprintf("Home %02d", i+1),
			fmt.Sprintf("Away %02d", i+1),
			"Premier League",
			start.Add(time.Duration(i)*time.Hour).Format(time.RFC3339),
			"scheduled",
		)
	}
	return rows
}

// FormatJSON converts a value to indented JSON for test output.
func FormatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
