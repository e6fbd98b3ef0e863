package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"recruitagent/internal/errors"
	"recruitagent/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// LimiterManager hands out one token bucket per client key (API key or IP)
// and forgets keys that go quiet.
type LimiterManager struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter

	perSecond rate.Limit
	burst     int

	done      chan struct{}
	closeOnce sync.Once
	logger    *errors.Logger
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is the limiter set used by the server
type RateLimiter = LimiterManager

// limiterIdleTimeout is both the sweep interval and the idle age at which a
// client's bucket is dropped.
const limiterIdleTimeout = 10 * time.Minute

// NewRateLimiter allows requestsPerMin per key, with bursts of up to
// burstCapacity requests (at least one).
func NewRateLimiter(requestsPerMin, burstCapacity int, logger *errors.Logger) *LimiterManager {
	if logger == nil {
		logger = errors.Nop()
	}
	m := &LimiterManager{
		clients:   make(map[string]*clientLimiter),
		perSecond: rate.Limit(float64(requestsPerMin) / 60),
		burst:     max(burstCapacity, 1),
		done:      make(chan struct{}),
		logger:    logger,
	}
	go m.sweep(limiterIdleTimeout)
	return m
}

// GetLimiter returns the bucket for key, creating it on first use.
func (m *LimiterManager) GetLimiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(m.perSecond, m.burst)}
		m.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

// Allow takes a token from key's bucket.
func (m *LimiterManager) Allow(key string) bool {
	return m.GetLimiter(key).Allow()
}

// GetStats is reported under rate_limiting by /stats.
func (m *LimiterManager) GetStats() map[string]any {
	m.mu.Lock()
	active := len(m.clients)
	m.mu.Unlock()

	return map[string]any{
		"active_limiters": active,
		"rate_per_second": float64(m.perSecond),
		"rate_per_minute": float64(m.perSecond) * 60,
		"burst_capacity":  m.burst,
	}
}

func (m *LimiterManager) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.cleanup(every)
		case <-m.done:
			return
		}
	}
}

// cleanup drops clients idle for longer than idle.
func (m *LimiterManager) cleanup(idle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for key, c := range m.clients {
		if c.lastSeen.Before(cutoff) {
			delete(m.clients, key)
		}
	}
	m.logger.Debug("Rate limiter cleanup completed", "remaining_limiters", len(m.clients))
}

// Close stops the sweeper. It is safe to call more than once.
func (m *LimiterManager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// rateLimitMiddleware answers 429 with a Retry-After hint once a client
// spends its bucket. Every rejection is counted.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	rl := s.RateLimit
	if rl == nil || !rl.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, rl.ByAPIKey, rl.ByIP)
			if key == "" || s.RateLimiter.Allow(key) {
				next(w, r)
				return
			}

			s.Logger.Info("Rate limit exceeded",
				"key", maskRateLimitKey(key),
				"route", r.Pattern,
				"client_ip", getClientIP(r))
			s.Observability.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricRateLimitHit, true,
				attribute.String("endpoint", r.Pattern),
				attribute.String("method", r.Method))

			w.Header().Set("Retry-After", strconv.Itoa(s.RateLimiter.retryAfterSeconds()))
			writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
		}
	}
}

// retryAfterSeconds is the time for one token to refill, rounded up.
func (m *LimiterManager) retryAfterSeconds() int {
	if m.perSecond <= 0 {
		return 60
	}
	return max(1, int(math.Ceil(1/float64(m.perSecond))))
}

// getRateLimitKey picks the API key when enabled and present, then the client IP.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

func maskRateLimitKey(key string) string {
	if apiKey, ok := strings.CutPrefix(key, "api:"); ok {
		return "api:" + maskAPIKey(apiKey)
	}
	return key
}

// getClientIP prefers the first valid address in X-Forwarded-For, then
// X-Real-IP, then the connection's remote address.
func getClientIP(r *http.Request) string {
	if ip := parseFirstIP(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip
	}
	if ip := parseFirstIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// parseFirstIP returns the first entry of a comma-separated header value
// that parses as an IP address.
func parseFirstIP(header string) string {
	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return ""
}
