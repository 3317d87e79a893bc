// Package apiclient is the single gateway to the CeBee Predict REST backend.
// Every call returns a model.Envelope: transport failures, HTTP errors and
// breaker rejections are folded into the envelope instead of being returned
// as Go errors, so page loads can render one consistent error state.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/model"
)

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 10 << 20

// Messages used when the backend gives none.
const (
	MsgUnauthorized = "Unauthorized. Please log in again."
	MsgRateLimited  = "Too many requests. Please try again later."
	MsgNetwork      = "Network error. Please check your connection and try again."
	MsgUnavailable  = "Service temporarily unavailable. Please try again shortly."
	MsgCancelled    = "Request cancelled."
)

// SessionSource supplies the bearer token for outgoing calls and is cleared
// when the backend rejects it.
type SessionSource interface {
	Token(ctx context.Context) string
	Clear(ctx context.Context) error
}

// FormData is a request body sent as-is with its own content type, for
// multipart uploads. Other bodies are encoded as JSON.
type FormData struct {
	Body        io.Reader
	ContentType string
}

// RequestOptions shapes a single backend call.
type RequestOptions struct {
	Method  string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// response is the raw outcome of one HTTP exchange.
type response struct {
	status int
	header http.Header
	body   []byte
}

// Client calls the backend. A Client is safe for concurrent use; WithSession
// returns a copy bound to one session that shares the transport and breaker.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	session SessionSource
	metrics *observability.Metrics
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records backend request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the configured backend.
func New(cfg config.BackendConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     50,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.breaker = newBreaker(cfg.CircuitBreaker, c.metrics, c.logger)
	return c
}

// WithSession returns a copy of c that authenticates with src.
func (c *Client) WithSession(src SessionSource) *Client {
	cp := *c
	cp.session = src
	return &cp
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) model.Envelope {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodGet, Query: query})
}

// Post issues a POST with body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) model.Envelope {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPost, Body: body})
}

// Put issues a PUT with body.
func (c *Client) Put(ctx context.Context, endpoint string, body any) model.Envelope {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPut, Body: body})
}

// Patch issues a PATCH with body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any) model.Envelope {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPatch, Body: body})
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string) model.Envelope {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodDelete})
}

// Request performs one backend call and folds the outcome into an envelope.
// It never retries.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) model.Envelope {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := observability.StartClientSpan(ctx, "backend "+method,
		observability.AttrEndpoint.String(endpoint),
	)
	start := time.Now()
	log := observability.RequestLogger(ctx, c.logger)

	env := c.do(ctx, method, endpoint, opts)

	c.metrics.RecordBackendRequest(method, env.Status, time.Since(start))
	var spanErr error
	if !env.Success {
		spanErr = errors.New(env.Error)
	}
	observability.EndSpanWithError(span, spanErr)

	if ce := log.Check(zap.DebugLevel, "backend request"); ce != nil {
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", env.Status),
			zap.Bool("success", env.Success),
			zap.Duration("duration", time.Since(start)),
		}
		if body, ok := opts.Body.(map[string]any); ok {
			fields = append(fields, zap.Any("body", observability.RedactBody(body, nil)))
		}
		ce.Write(fields...)
	}
	return env
}

func (c *Client) do(ctx context.Context, method, endpoint string, opts RequestOptions) model.Envelope {
	// 1. Build the request.
	req, err := c.newRequest(ctx, method, endpoint, opts)
	if err != nil {
		return model.Envelope{Status: 0, Error: err.Error()}
	}

	// 2. Send it through the breaker.
	resp, err := c.send(req)
	switch {
	case isBreakerRejection(err):
		return model.Envelope{Status: 0, Error: MsgUnavailable}
	case errors.Is(err, context.Canceled):
		return model.Envelope{Status: 0, Error: MsgCancelled}
	case err != nil && !errors.Is(err, errServerStatus):
		return model.Envelope{Status: 0, Error: MsgNetwork}
	}

	// 3. Interpret the response.
	return c.interpret(ctx, resp)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, opts RequestOptions) (*http.Request, error) {
	target := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if !strings.HasPrefix(endpoint, "/") {
			endpoint = "/" + endpoint
		}
		target = c.baseURL + endpoint
	}
	if len(opts.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + opts.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch b := opts.Body.(type) {
	case nil:
	case FormData:
		body, contentType = b.Body, b.ContentType
	case *FormData:
		body, contentType = b.Body, b.ContentType
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.session != nil {
		if token := c.session.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+sanitizeHeader(token))
		}
	}
	if rctx, ok := model.RequestContextFrom(ctx); ok && rctx.CorrelationID != "" {
		req.Header.Set("X-Correlation-Id", sanitizeHeader(rctx.CorrelationID))
	}
	for k, v := range opts.Headers {
		req.Header.Set(sanitizeHeader(k), sanitizeHeader(v))
	}
	observability.InjectTraceHeaders(ctx, req.Header)
	return req, nil
}

func (c *Client) send(req *http.Request) (*response, error) {
	exchange := func() (*response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			if ctxErr := req.Context().Err(); errors.Is(ctxErr, context.Canceled) {
				return nil, ctxErr
			}
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("apiclient: read response: %w", err)
		}
		out := &response{status: resp.StatusCode, header: resp.Header, body: data}
		if resp.StatusCode >= 500 {
			return out, errServerStatus
		}
		return out, nil
	}

	if c.breaker == nil {
		return exchange()
	}
	return c.breaker.Execute(exchange)
}

func (c *Client) interpret(ctx context.Context, resp *response) model.Envelope {
	body := decodeBody(resp)
	env := model.Envelope{Status: resp.status}

	switch {
	case resp.status == http.StatusUnauthorized:
		c.clearSession(ctx)
		env.Error = MsgUnauthorized

	case resp.status == http.StatusTooManyRequests:
		env.Error = MsgRateLimited
		if ra := resp.header.Get("Retry-After"); ra != "" {
			env.RetryAfter = ra
			env.Error += " Retry after " + ra + " seconds."
		}

	case resp.status >= 200 && resp.status < 300:
		env.Success = true
		env.Data = body
		env.Raw = body
		if obj, ok := body.(map[string]any); ok {
			if data, has := obj["data"]; has {
				env.Data = data
			}
			if msg, ok := obj["message"].(string); ok {
				env.Message = msg
			}
		}

	default:
		env.Error = extractMessage(body, resp.status)
	}
	return env
}

func (c *Client) clearSession(ctx context.Context) {
	if c.session == nil {
		return
	}
	log := observability.RequestLogger(ctx, c.logger)
	if err := c.session.Clear(context.WithoutCancel(ctx)); err != nil {
		log.Error("clearing session after 401", zap.Error(err))
		return
	}
	c.metrics.RecordSessionCleared("unauthorized")
	log.Warn("session cleared after backend returned 401")
}

// decodeBody parses JSON bodies and returns everything else as text.
func decodeBody(resp *response) any {
	if len(resp.body) == 0 {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(resp.header.Get("Content-Type"))
	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		var parsed any
		if err := json.Unmarshal(resp.body, &parsed); err == nil {
			return parsed
		}
	}
	return string(resp.body)
}

// extractMessage picks the most specific error message the backend sent:
// body.message, then body.error.message, then body.error as a string, then
// a fallback for the status code.
func extractMessage(body any, status int) string {
	switch b := body.(type) {
	case map[string]any:
		if msg, ok := b["message"].(string); ok && msg != "" {
			return msg
		}
		switch e := b["error"].(type) {
		case map[string]any:
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		case string:
			if e != "" {
				return e
			}
		}
	case string:
		if s := strings.TrimSpace(b); s != "" && len(s) <= 200 && !strings.HasPrefix(s, "<") {
			return s
		}
	}
	return statusMessage(status)
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad request. Please check your input."
	case http.StatusForbidden:
		return "You do not have permission to perform this action."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusConflict:
		return "The resource was modified by someone else. Please reload."
	case http.StatusUnprocessableEntity:
		return "Validation failed. Please check your input."
	case http.StatusInternalServerError:
		return "Internal server error. Please try again later."
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return MsgUnavailable
	case http.StatusGatewayTimeout:
		return "The server took too long to respond. Please try again."
	default:
		return fmt.Sprintf("Request failed with status %d.", status)
	}
}

// sanitizeHeader strips newlines and carriage returns to prevent header injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
