package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Token-bucket rate limiter for the credential routes, backed by Redis.
//
// Login and registration are the two endpoints worth brute-forcing, so
// they get a per-IP budget: loginBurst attempts up front, refilled one
// token per loginRefillEvery. Everything else on the site is unlimited.
//
// The limiter is strictly best-effort. With no Redis client, or when
// Redis errors mid-request, requests pass through: an attacker who can
// take down Redis should not also be able to take down login.
const (
	loginBurst       = 10
	loginRefillEvery = 30 * time.Second
	bucketTTL        = 15 * time.Minute
	keyPrefix        = "ratelimit:login:"
)

// tokenBucketScript refills and drains the bucket atomically. The whole
// read-refill-take step has to be one Lua call; doing it as separate
// Redis commands would let concurrent requests all see the same token.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local interval_ms = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals)
		last_refill = last_refill + (intervals * interval_ms)
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = interval_ms - (now_ms - last_refill)
		if retry_after_ms < 0 then retry_after_ms = 0 end
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// LoginRateLimit returns middleware limiting credential attempts per
// client IP. A nil client disables it entirely.
func LoginRateLimit(rdb *redis.Client, logger *slog.Logger) func(http.Handler) http.Handler {
	if rdb == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyPrefix + clientIP(r)

			vals, err := tokenBucketScript.Run(r.Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				loginBurst,
				loginRefillEvery.Milliseconds(),
				int64(bucketTTL/time.Second),
			).Int64Slice()
			if err != nil || len(vals) != 3 {
				// Redis down or talking nonsense. Let the request through.
				logger.Warn("rate limiter unavailable",
					slog.String("key", key),
					slog.Any("error", err),
				)
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(loginBurst))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				logger.Info("login attempt rate limited",
					slog.String("ip", clientIP(r)),
					slog.Int("retryAfter", secs),
				)
				writeTooManyRequests(w, secs)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeTooManyRequests(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"too_many_requests","message":"too many attempts, slow down","retry_after":` +
		strconv.Itoa(retryAfter) + `}`))
}

// clientIP extracts the peer address without the port. RealIP middleware
// runs earlier in the chain and has already folded X-Forwarded-For into
// RemoteAddr when the proxy headers are present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
