package model

import "net/http"

// Envelope is the uniform result of every backend call made through the
// API client. Exactly one of Data and Error is meaningful, depending on
// Success. Status is the HTTP status code, or 0 when no response arrived.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	Status     int    `json:"status"`
	RetryAfter string `json:"retry_after,omitempty"`

	// Raw is the decoded body of a successful response before the "data"
	// member was unwrapped. Paging metadata lives beside "data".
	Raw any `json:"-"`
}

// Err converts a failed envelope into an *ErrorEnvelope with the code that
// matches its status. It returns nil for successful envelopes.
func (e Envelope) Err() error {
	if e.Success {
		return nil
	}
	switch {
	case e.Status == 0:
		return &ErrorEnvelope{Code: ErrBackendUnavailable, Message: e.Error}
	case e.Status == http.StatusUnauthorized:
		return NewUnauthorizedError(e.Error)
	case e.Status == http.StatusForbidden:
		return NewForbiddenError(e.Error)
	case e.Status == http.StatusNotFound:
		return NewNotFoundError(e.Error)
	case e.Status == http.StatusConflict:
		return NewConflictError(e.Error)
	case e.Status == http.StatusTooManyRequests:
		return NewRateLimitedError(e.Error)
	case e.Status == http.StatusGatewayTimeout:
		return &ErrorEnvelope{Code: ErrBackendTimeout, Message: e.Error}
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return NewBadRequestError(e.Error)
	default:
		return NewBackendError(e.Error)
	}
}

// DataMap returns Data as a JSON object, or nil if it is not one.
func (e Envelope) DataMap() map[string]any {
	m, _ := e.Data.(map[string]any)
	return m
}
