package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder_Success(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Header("X-Cache", "MISS").
		Success(map[string]int{"answer": 42}).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != `{"success":true,"data":{"answer":42}}` {
		t.Errorf("Body = %s", got)
	}
	if w.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q", w.Header().Get("X-Cache"))
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestJSONResponseBuilder_RawData(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Success(json.RawMessage(`{"x":1.5}`)).Write(w)

	if got := w.Body.String(); got != `{"success":true,"data":{"x":1.5}}` {
		t.Errorf("Body = %s", got)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
		message string
	}{
		{"bad request", BadRequestError("years must be a whole number"), http.StatusBadRequest, "years must be a whole number"},
		{"not found", NotFoundError("Not found"), http.StatusNotFound, "Not found"},
		{"method not allowed", MethodNotAllowedError(), http.StatusMethodNotAllowed, "Method not allowed"},
		{"too many requests", TooManyRequestsError(), http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
		{"internal", InternalServerError(), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.status {
				t.Errorf("Status code = %d, want %d", w.Code, tt.status)
			}
			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Success || body.Error != tt.message {
				t.Errorf("body = %+v", body)
			}
		})
	}
}
