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

    "github.com/iliyamo/tutoring-schedule/internal/config"
)

// tokenBucket refills and takes one token atomically.  The bucket is a
// hash {left, refilled_at} per rate key.  It returns
// {allowed, left, wait_ms}.
var tokenBucket = redis.NewScript(`
    local now, cap, per_tick, tick_ms, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

    local left = tonumber(redis.call('HGET', KEYS[1], 'left'))
    local refilled_at = tonumber(redis.call('HGET', KEYS[1], 'refilled_at'))
    if not left or not refilled_at then
        left, refilled_at = cap, now
    end

    if tick_ms > 0 and per_tick > 0 and now > refilled_at then
        local ticks = math.floor((now - refilled_at) / tick_ms)
        if ticks > 0 then
            left = math.min(cap, left + ticks * per_tick)
            refilled_at = refilled_at + ticks * tick_ms
        end
    end

    local wait_ms = 0
    local allowed = 0
    if left >= 1 then
        left = left - 1
        allowed = 1
    else
        wait_ms = math.max(0, refilled_at + tick_ms - now)
    end

    redis.call('HSET', KEYS[1], 'left', left, 'refilled_at', refilled_at)
    redis.call('EXPIRE', KEYS[1], ttl)
    return { allowed, left, wait_ms }
`)

// NewTokenBucket limits write traffic per key (see RateLimitConfig.KeyStrategy).
// It fails open: a Redis error lets the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if logger == nil {
        logger = zap.NewNop()
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            args := []any{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }

            vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
            if err != nil || len(vals) != 3 {
                logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
                return next(c)
            }
            allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }

            if !allowed {
                secs := max(int(math.Ceil(float64(retryMs)/1000.0)), 0)
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    logger.Debug("rate limited", zap.String("key", key), zap.Int64("retry_ms", retryMs))
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := userID(c)
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}

