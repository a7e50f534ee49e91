package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/organizator/organizator/pkg/observability"
)

// LoginLimitConfig bounds login attempts per client IP.
type LoginLimitConfig struct {
	// AttemptsPerWindow is the max login attempts allowed in the window
	AttemptsPerWindow int
	// WindowDuration is the fixed counting window
	WindowDuration time.Duration
}

// DefaultLoginLimitConfig returns the default brute-force budget.
func DefaultLoginLimitConfig() *LoginLimitConfig {
	return &LoginLimitConfig{
		AttemptsPerWindow: 10,
		WindowDuration:    time.Minute,
	}
}

// LoginLimiter throttles login attempts per client IP with a Redis fixed
// window so the budget is shared across instances. Redis being down fails
// open: losing brute-force throttling is preferable to losing login.
type LoginLimiter struct {
	redis   *redis.Client
	config  *LoginLimitConfig
	metrics *observability.Metrics
	prefix  string
}

// NewLoginLimiter creates a Redis-backed login limiter. A nil client
// disables limiting entirely.
func NewLoginLimiter(redisClient *redis.Client, config *LoginLimitConfig, metrics *observability.Metrics) *LoginLimiter {
	if config == nil {
		config = DefaultLoginLimitConfig()
	}
	return &LoginLimiter{
		redis:   redisClient,
		config:  config,
		metrics: metrics,
		prefix:  "loginlimit",
	}
}

// Handler wraps the login handler with attempt throttling.
func (l *LoginLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := fmt.Sprintf("%s:ip:%s", l.prefix, ClientIP(r))

		pipe := l.redis.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.config.WindowDuration)
		if _, err := pipe.Exec(ctx); err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if incr.Val() > int64(l.config.AttemptsPerWindow) {
			if l.metrics != nil {
				l.metrics.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
			}
			ttl, err := l.redis.TTL(ctx, key).Result()
			retryAfter := l.config.WindowDuration.Seconds()
			if err == nil && ttl > 0 {
				retryAfter = ttl.Seconds()
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many login attempts"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Reset clears the attempt counter for an IP (admin/testing use).
func (l *LoginLimiter) Reset(r *http.Request) error {
	if l.redis == nil {
		return nil
	}
	key := fmt.Sprintf("%s:ip:%s", l.prefix, ClientIP(r))
	return l.redis.Del(r.Context(), key).Err()
}

// ClientIP extracts the originating client address, preferring the proxy
// forwarding headers over the socket peer.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
