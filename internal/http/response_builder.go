// This file implements a small builder for JSON responses and the mapping
// from service errors to status codes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"bookkeep/internal/core"
	"bookkeep/internal/log"
)

// Error codes carried in the error body.
const (
	CodeValidation      = "validation_error"
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeConfirmRequired = "confirmation_required"
	CodeUnavailable     = "store_unavailable"
	CodeInternal        = "internal_error"
	CodeRateLimited     = "rate_limited"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write encodes the payload. Encoding happens before the status line so a
// marshalling failure can still become a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent || b.data == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal_error","message":"failed to encode response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}

// ErrorResponse builds an error body with the given status.
func ErrorResponse(status int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(status).
		Data(ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

func ConfirmationRequired(action string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusPreconditionRequired, CodeConfirmRequired,
		action+" requires confirmation: repeat with ?confirm=true or header X-Confirm: true")
}

// ErrorFromErr maps a service error onto a response:
// validation 422, malformed request 400, not found 404, duplicate 409,
// store failures 503 and anything else 500.
func ErrorFromErr(err error) *JSONResponseBuilder {
	var (
		ve *core.ValidationError
		se *core.StoreError
	)
	switch {
	case errors.As(err, &ve):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Data(ErrorBody{Error: ErrorDetail{Code: CodeValidation, Message: ve.Err.Error(), Field: ve.Field}})
	case errors.Is(err, errBadRequest):
		return ErrorResponse(http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, core.ErrDuplicate):
		return ErrorResponse(http.StatusConflict, CodeConflict, err.Error())
	case errors.As(err, &se):
		b := NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Data(ErrorBody{Error: ErrorDetail{Code: CodeUnavailable, Message: "the ledger store is unavailable", Retryable: se.Retryable}})
		if se.Retryable {
			b.Header("Retry-After", "5")
		}
		return b
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusServiceUnavailable, CodeUnavailable, "request timed out")
	default:
		return ErrorResponse(http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	b := ErrorFromErr(err)
	if b.statusCode >= 500 {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, nil)
	}
	b.Write(w)
}
