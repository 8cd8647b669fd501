package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// AttemptLimiter counts requests per client address in fixed windows.
// Counters live in a go-cache store and expire with their window.
type AttemptLimiter struct {
	max    int
	window time.Duration
	hits   *cache.Cache
}

// NewAttemptLimiter allows max requests per client within each window.
// A max of zero or less disables the limit.
func NewAttemptLimiter(max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		max:    max,
		window: window,
		hits:   cache.New(window, 2*window),
	}
}

// Allow records one attempt for key and reports whether it is within budget.
func (l *AttemptLimiter) Allow(key string) bool {
	if l.max <= 0 {
		return true
	}
	if err := l.hits.Add(key, 1, l.window); err == nil {
		return true
	}
	n, err := l.hits.IncrementInt(key, 1)
	if err != nil {
		// Expired between Add and IncrementInt; start a new window.
		l.hits.Set(key, 1, l.window)
		return true
	}
	return n <= l.max
}

// Handler answers 429 once a client has spent its budget. Wire it after
// chi's RealIP so RemoteAddr is the client address.
func (l *AttemptLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			reject(w, http.StatusTooManyRequests, "too_many_requests", "too many attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
