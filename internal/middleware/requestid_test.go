package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_Generated(t *testing.T) {
	dummy := &dummyHandler{}
	rec := httptest.NewRecorder()
	RequestID(dummy).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("response id %q is not a uuid: %v", id, err)
	}
	if got := GetRequestID(dummy.ctx); got != id {
		t.Errorf("context id = %q; want %q", got, id)
	}
}

func TestRequestID_Reused(t *testing.T) {
	dummy := &dummyHandler{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	RequestID(dummy).ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("response id = %q; want abc-123", got)
	}
}

func TestRequestID_OversizedReplaced(t *testing.T) {
	dummy := &dummyHandler{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	RequestID(dummy).ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("response id = %q; want a fresh uuid", got)
	}
}
