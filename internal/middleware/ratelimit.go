package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taskflow/internal/logger"

	"go.uber.org/zap"
)

type clientInfo struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests per client ip in fixed one minute windows.
type RateLimiter struct {
	rpm     int
	window  time.Duration
	now     func() time.Time
	mtx     sync.Mutex
	clients map[string]*clientInfo
}

func NewRateLimiter(rpm int) *RateLimiter {
	return &RateLimiter{
		rpm:     rpm,
		window:  time.Minute,
		now:     time.Now,
		clients: make(map[string]*clientInfo),
	}
}

// allow records a request from ip and reports whether it fits the window,
// how many requests remain and when the window resets.
func (l *RateLimiter) allow(ip string) (bool, int, time.Time) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	info, ok := l.clients[ip]
	switch {
	case !ok:
		info = &clientInfo{resetAt: now.Add(l.window)}
		l.clients[ip] = info
		l.prune(now)
	case now.After(info.resetAt):
		info.count = 0
		info.resetAt = now.Add(l.window)
	}

	if info.count >= l.rpm {
		return false, 0, info.resetAt
	}
	info.count++
	return true, l.rpm - info.count, info.resetAt
}

// prune drops expired clients so the map does not grow with every address
// ever seen.
func (l *RateLimiter) prune(now time.Time) {
	for ip, info := range l.clients {
		if now.After(info.resetAt) {
			delete(l.clients, ip)
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		allowed, remaining, resetAt := l.allow(ip)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.rpm))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(resetAt.Sub(l.now()).Seconds())
			logger.Warn("HTTP: Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.Int("retry_after", retryAfter))

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":       "rate_limit_exceeded",
				"message":     "too many requests, try again later",
				"retry_after": retryAfter,
				"request_id":  GetRequestID(r.Context()),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits every client ip to rpm requests per minute.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	return NewRateLimiter(rpm).Middleware
}

func getIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
