package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/scorebug/scorebug-server/internal/audit"
	"github.com/scorebug/scorebug-server/internal/config"
)

const (
	claimLimitKeyPrefix = "ratelimit-link-"
	claimLimitWindow    = 60 * time.Second
)

var claimLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

local remaining = limit - count - 1
local resetAt = now + window

return {1, remaining, resetAt}
`)

// ClaimRateLimiter caps claim attempts per client IP. A 4-character
// code is guessable within its 10-minute window without a ceiling on
// attempts. Fails open when Redis is unreachable.
type ClaimRateLimiter struct {
	client *redis.Client
	limit  int
}

func NewClaimRateLimiter(client *redis.Client) *ClaimRateLimiter {
	return &ClaimRateLimiter{client: client, limit: config.LinkAttemptsPerMin}
}

func (rl *ClaimRateLimiter) check(ctx context.Context, ip string) (allowed bool, remaining int, resetAt int64) {
	now := time.Now().Unix()
	key := claimLimitKeyPrefix + ip

	result, err := claimLimitScript.Run(ctx, rl.client, []string{key}, now, int64(claimLimitWindow.Seconds()), rl.limit).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("claim rate limit check failed, allowing request")
		return true, rl.limit - 1, now + int64(claimLimitWindow.Seconds())
	}

	if len(result) != 3 {
		log.Warn().Str("ip", ip).Msg("unexpected claim rate limit result")
		return true, rl.limit - 1, now + int64(claimLimitWindow.Seconds())
	}

	return result[0] == 1, int(result[1]), result[2]
}

func (rl *ClaimRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		allowed, remaining, resetAt := rl.check(r.Context(), ip)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

		if !allowed {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr from the
// forwarding headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
