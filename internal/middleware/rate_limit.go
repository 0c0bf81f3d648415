package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type rateWindow struct {
	count      int
	windowEnds time.Time
}

// IPRateLimiter applies a fixed-window request cap per client IP. Entries are
// bounded: when maxEntries is reached, expired windows are purged and, if the
// map is still full, the soonest-expiring entry is evicted.
type IPRateLimiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	maxEntries int
	windows    map[string]rateWindow
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return NewIPRateLimiterWithMaxEntries(limit, window, 10000)
}

func NewIPRateLimiterWithMaxEntries(limit int, window time.Duration, maxEntries int) *IPRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &IPRateLimiter{
		limit:      limit,
		window:     window,
		maxEntries: maxEntries,
		windows:    map[string]rateWindow{},
	}
}

func (rl *IPRateLimiter) Middleware(message string) func(http.Handler) http.Handler {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r.RemoteAddr)
			if ip == "" {
				ip = "unknown"
			}

			now := time.Now()
			rl.mu.Lock()
			entry, known := rl.windows[ip]
			if entry.windowEnds.Before(now) {
				entry = rateWindow{count: 0, windowEnds: now.Add(rl.window)}
			}
			if !known && len(rl.windows) >= rl.maxEntries {
				rl.evictLocked(now)
			}
			entry.count++
			rl.windows[ip] = entry
			rl.mu.Unlock()

			if entry.count > rl.limit {
				writeError(w, r, http.StatusTooManyRequests, "rate_limited", message, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *IPRateLimiter) evictLocked(now time.Time) {
	var oldestKey string
	var oldestEnds time.Time
	for key, entry := range rl.windows {
		if entry.windowEnds.Before(now) {
			delete(rl.windows, key)
			continue
		}
		if oldestKey == "" || entry.windowEnds.Before(oldestEnds) {
			oldestKey = key
			oldestEnds = entry.windowEnds
		}
	}
	if len(rl.windows) >= rl.maxEntries && oldestKey != "" {
		delete(rl.windows, oldestKey)
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
