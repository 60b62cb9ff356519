package httpx

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters for a profile.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	RequestsPerWindow int
	// Window is the time window for rate limiting.
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit.
	Burst int
}

// Rate limit profiles for different endpoint types.
var (
	// StrictLimit for authentication endpoints (brute force prevention).
	StrictLimit = RateLimitConfig{
		RequestsPerWindow: 5,
		Window:            time.Minute,
		Burst:             5,
	}

	// ModerateLimit for authenticated operations.
	ModerateLimit = RateLimitConfig{
		RequestsPerWindow: 20,
		Window:            time.Minute,
		Burst:             20,
	}

	// LenientLimit for less sensitive operations.
	LenientLimit = RateLimitConfig{
		RequestsPerWindow: 100,
		Window:            time.Minute,
		Burst:             100,
	}
)

// limiterEntry tracks a per-key limiter and when it was last touched so idle
// entries can be evicted.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	cfg     RateLimitConfig
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	s := &limiterStore{
		entries: make(map[string]*limiterEntry),
		cfg:     cfg,
	}
	go s.evictLoop()
	return s
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		limit := rate.Every(s.cfg.Window / time.Duration(s.cfg.RequestsPerWindow))
		e = &limiterEntry{limiter: rate.NewLimiter(limit, s.cfg.Burst)}
		s.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// evictLoop drops entries idle for more than three windows.
func (s *limiterStore) evictLoop() {
	ticker := time.NewTicker(s.cfg.Window)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-3 * s.cfg.Window)
		s.mu.Lock()
		for key, e := range s.entries {
			if e.lastSeen.Before(cutoff) {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}

// RateLimitByIP limits requests per client IP using the given profile.
// Exceeding the limit yields 429 with a Retry-After hint.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	store := newLimiterStore(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.get(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				WriteError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the request's client IP, preferring X-Forwarded-For when
// the service sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := len(fwd); i > 0 {
			// First address in the list is the originating client.
			for j := 0; j < len(fwd); j++ {
				if fwd[j] == ',' {
					return fwd[:j]
				}
			}
			return fwd
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
