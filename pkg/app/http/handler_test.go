package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	return body
}

func TestDefaultErrorHandler_ServiceErrorWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	DefaultErrorHandler(rec, apperrors.InsufficientFundsError(nil, "insufficient coins", 35, 20))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "insufficient coins" || body["required"] != float64(35) || body["available"] != float64(20) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDefaultErrorHandler_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	DefaultErrorHandler(rec, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Internal Server Error" {
		t.Fatalf("internal detail leaked: %v", body)
	}
}

type decodeTarget struct {
	Content string `json:"content" validate:"required,max=5"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"content":"hi"}`, true},
		{"malformed", `{`, false},
		{"missing field", `{}`, false},
		{"too long", `{"content":"far too long"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			var dst decodeTarget
			err := DecodeJSON(req, &dst)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !apperrors.Is(err, apperrors.CategoryDataError) {
				t.Fatalf("expected data error, got %v", err)
			}
		})
	}
}

func TestIDParamAndPagination(t *testing.T) {
	r := chi.NewRouter()
	var (
		id            int64
		idErr         error
		limit, offset int
	)
	r.Get("/items/{id}", func(_ http.ResponseWriter, req *http.Request) {
		id, idErr = IDParam(req, "id")
		limit, offset = Pagination(req, 20, 100)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42?limit=500&offset=10", nil))
	if idErr != nil || id != 42 {
		t.Fatalf("expected id 42, got %d (%v)", id, idErr)
	}
	if limit != 100 || offset != 10 {
		t.Fatalf("expected limit 100 offset 10, got %d %d", limit, offset)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/-1?limit=abc", nil))
	if !apperrors.Is(idErr, apperrors.CategoryDataError) {
		t.Fatalf("expected data error for negative id, got %v", idErr)
	}
	if limit != 20 || offset != 0 {
		t.Fatalf("expected defaults, got %d %d", limit, offset)
	}
}
