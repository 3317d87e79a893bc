// Package transport contains the HTTP router, middleware chain, and the JSON
// admin API handlers.
package transport

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/model"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type errorResponse struct {
	Error *model.ErrorEnvelope `json:"error"`
}

// WriteError writes an ErrorEnvelope as a JSON response with the matching
// HTTP status code. Errors that are not an *ErrorEnvelope become a generic
// 500 so internal details never reach the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) {
		ee = model.NewInternalError()
	}
	if ee.TraceID == "" && r != nil {
		if traceID := observability.TraceIDFromContext(r.Context()); traceID != "" {
			cp := *ee
			cp.TraceID = traceID
			ee = &cp
		}
	}
	WriteJSON(w, ee.HTTPStatus(), errorResponse{Error: ee})
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	WriteError(w, r, model.NewNotFoundError(msg))
}

// decodeJSON reads a JSON request body into v. Bodies are capped at 1 MiB.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

const maxBodyBytes = 1 << 20
