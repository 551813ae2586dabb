package middleware

import (
	"net/http"
	"sync"
	"time"

	"circdesk/pkg/logger"
)

type OperatorExtractor func(r *http.Request) string

// OperatorRateLimiter throttles per desk operator. Requests without an
// operator id pass through; they are rejected later by the handlers.
type OperatorRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor OperatorExtractor
	log       *logger.Logger
	stopCh    chan struct{}
}

func NewOperatorRateLimiter(limit int, window time.Duration, extractor OperatorExtractor, log *logger.Logger) *OperatorRateLimiter {
	limiter := &OperatorRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *OperatorRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for operator, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, operator)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *OperatorRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *OperatorRateLimiter) Allow(operator string) bool {
	if operator == "" {
		return true
	}

	now := time.Now()

	rl.mu.RLock()
	timestamps := rl.requests[operator]
	rl.mu.RUnlock()

	validTimestamps := make([]time.Time, 0)
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= rl.limit {
		return false
	}

	validTimestamps = append(validTimestamps, now)

	rl.mu.Lock()
	rl.requests[operator] = validTimestamps
	rl.mu.Unlock()

	return true
}

func OperatorRateLimit(limiter *OperatorRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := extractOperator(r, limiter.extractor)

			if operator == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(operator) {
				rejectRateLimited(w, limiter.log, r, operator)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractOperator(r *http.Request, extractor OperatorExtractor) string {
	if extractor == nil {
		return r.Header.Get("X-Operator-Id")
	}
	return extractor(r)
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, operator string) {
	requestID := ""
	if rid := r.Context().Value(RequestIDKey); rid != nil {
		requestID = rid.(string)
	}

	log.Warn("Rate limit exceeded",
		"request_id", requestID,
		"operator", operator,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
}

func DefaultOperatorExtractor(r *http.Request) string {
	return r.Header.Get("X-Operator-Id")
}
