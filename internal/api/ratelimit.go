package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
	"github.com/DaBoB6868/dorm-ra-bot/internal/ratelimit"
)

// rateLimitMiddleware returns middleware that limits requests per client IP
// using a sliding window. Rejected requests get a 429 with a Retry-After
// header indicating when the oldest admission falls out of the window.
func rateLimitMiddleware(limiter *ratelimit.Limiter, trustProxy bool, logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			decision := limiter.Admit(ip)
			if !decision.Allowed {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
					"retry_after", decision.RetryAfter,
				)
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from the request.
//
// When trustProxy is true, checks X-Real-IP first (set by nginx/HAProxy),
// then X-Forwarded-For (first IP). Header values are validated with net.ParseIP
// to prevent injection of non-IP strings into rate limiter keys.
//
// When trustProxy is false, only uses RemoteAddr (safe default for direct exposure).
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// Prefer X-Real-IP (single value, set by reverse proxy)
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}

		// Fall back to X-Forwarded-For (first IP is the client)
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			raw := xff
			if first, _, ok := strings.Cut(xff, ","); ok {
				raw = first
			}
			if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
				return ip.String()
			}
		}
	}

	// Fall back to RemoteAddr (strip port)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
