package middleware

import (
	"net/http"
)

// MaxRequestSize caps request body size. Declared oversized requests are
// rejected up front; bodies that lie about Content-Length are cut off by
// MaxBytesReader, which surfaces to handlers as a read error.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				rejectOversizedRequest(w)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func rejectOversizedRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	_, _ = w.Write([]byte(`{"error":"Request body too large"}`))
}
