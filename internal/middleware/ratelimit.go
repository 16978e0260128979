package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/config"
)

// tokenBucket takes ARGV[5] tokens from the bucket at KEYS[1] if it holds
// enough.  State is a hash of the token count and the time of the last
// whole refill step.  Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local now, cap, step, every, cost, ttl =
  tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]),
  tonumber(ARGV[4]), tonumber(ARGV[5]), tonumber(ARGV[6])

local st = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens, at = tonumber(st[1]), tonumber(st[2])
if tokens == nil or at == nil then
  tokens, at = cap, now
end

local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
  tokens = math.min(cap, tokens + steps * step)
  at = at + steps * every
end

local ok, wait = 0, 0
if tokens >= cost then
  ok, tokens = 1, tokens - cost
else
  local missing = math.ceil((cost - tokens) / step)
  wait = math.max(0, at + missing * every - now)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// NewTokenBucket limits each caller with a redis token bucket.  It must
// run after JWTAuth so the bucket can be keyed by user.  Redis errors
// fail open: the request is served and the error logged.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = zap.NewNop()
	}
	writeCost := max(cfg.WriteCost, 1)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			cost := 1
			if c.Request().Method != http.MethodGet && c.Request().Method != http.MethodHead {
				cost = writeCost
			}

			res, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				cost,
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				log.Warn("ratelimit: bucket unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			allowed, remaining, waitMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(waitMs) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			log.Debug("ratelimit: blocked", zap.String("key", key), zap.Int("cost", cost), zap.Int64("retry_ms", waitMs))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

// rateKey names the caller's bucket.  The user strategy falls back to
// the client IP for anonymous requests.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	strategy := strings.ToLower(cfg.KeyStrategy)
	caller := "ip:" + c.RealIP()
	if id, ok := UserID(c); ok && strategy != "ip" {
		caller = "user:" + strconv.FormatUint(id, 10)
	}
	parts := []string{cfg.Prefix, caller}
	if strategy == "user_route" {
		parts = append(parts, c.Request().Method+" "+c.Path())
	}
	return strings.Join(parts, ":")
}
