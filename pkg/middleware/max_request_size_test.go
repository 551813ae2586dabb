package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMaxRequestSize(t *testing.T) {
	var handlerCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	wrapped := MaxRequestSize(16)(next)

	t.Run("small body passes", func(t *testing.T) {
		handlerCalled = false
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ok":1}`))
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if !handlerCalled {
			t.Error("handler was not called for a small body")
		}
		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("declared oversized body rejected before handler", func(t *testing.T) {
		handlerCalled = false
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if handlerCalled {
			t.Error("handler must not run for an oversized body")
		}
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, w.Code)
		}
	})

	t.Run("oversized body without declared length cut off on read", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader(strings.Repeat("x", 64)))
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.ContentLength = -1
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, w.Code)
		}
	})
}
