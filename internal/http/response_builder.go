// Package http exposes the calculation engine over a JSON API and serves
// the frontend bundle.
//
// Every API response uses one envelope: {"success": true, "data": ...} or
// {"success": false, "error": "..."}.
package http

import (
	"encoding/json"
	"net/http"
)

// JSONResponseBuilder provides a fluent API for building enveloped JSON
// responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	envelope   envelope
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewJSONResponse creates a new response builder with default 200 status.
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

// Success sets data as the payload. A json.RawMessage is embedded as is.
func (b *JSONResponseBuilder) Success(data any) *JSONResponseBuilder {
	b.envelope = envelope{Success: true, Data: data}
	return b
}

// Error marks the response as failed with message.
func (b *JSONResponseBuilder) Error(message string) *JSONResponseBuilder {
	b.envelope = envelope{Success: false, Error: message}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body, err := json.Marshal(b.envelope)
	if err != nil {
		body = []byte(`{"success":false,"error":"Internal server error"}`)
		b.statusCode = http.StatusInternalServerError
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

// ErrorResponse creates a failed envelope with the given status.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Error(message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed")
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
