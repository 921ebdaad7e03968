package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestLogger tags every request with an X-Request-ID (kept when the
// client sent one) and logs it once the handler returns.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            id := req.Header.Get(echo.HeaderXRequestID)
            if id == "" {
                id = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, id)

            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            fields := []zap.Field{
                zap.String("request_id", id),
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.Int("status", c.Response().Status),
                zap.Duration("latency", time.Since(start)),
                zap.String("user", userID(c)),
            }
            switch status := c.Response().Status; {
            case status >= 500:
                logger.Error("request", append(fields, zap.Error(err))...)
            case status >= 400:
                logger.Warn("request", fields...)
            default:
                logger.Info("request", fields...)
            }
            return nil
        }
    }
}
