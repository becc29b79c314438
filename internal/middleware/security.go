package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/psi-indicator-engine/internal/domain"
)

// CorrelationHeader carries the request correlation id in both directions
const CorrelationHeader = "X-Correlation-ID"

// CorrelationKey is the gin context key holding the correlation id
const CorrelationKey = "correlation_id"

// SecurityHeaders adds security headers to all responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		// Claim data must not be cached by intermediaries
		c.Header("Cache-Control", "no-store")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// CorrelationID adds a unique correlation ID to each request for audit trails
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(CorrelationKey, correlationID)
		c.Header(CorrelationHeader, correlationID)

		c.Next()
	}
}

// RequestTimeout bounds the request context. Handlers that honour the
// context stop early; the endpoint then answers 503.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			Abort(c, http.StatusServiceUnavailable, domain.ErrInternalServer, "Request timeout", "")
		}
	}
}

// RateLimit rejects requests once the shared token bucket is empty. A nil
// limiter disables the check.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.Header("Retry-After", "1")
			Abort(c, http.StatusTooManyRequests, domain.ErrRateLimit, "Rate limit exceeded", "")
			return
		}
		c.Next()
	}
}

// NewLimiter builds the API limiter from server config. A non-positive
// rate returns nil.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// RequestLogger logs one structured entry per request
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"correlation_id": c.GetString(CorrelationKey),
			"method":         c.Request.Method,
			"path":           path,
			"status":         c.Writer.Status(),
			"latency_ms":     time.Since(start).Milliseconds(),
			"client_ip":      c.ClientIP(),
			"response_size":  c.Writer.Size(),
		})

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}

// Recovery turns a handler panic into a 500 envelope
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"correlation_id": c.GetString(CorrelationKey),
					"path":           c.Request.URL.Path,
					"panic":          r,
				}).Error("Recovered from handler panic")
				Abort(c, http.StatusInternalServerError, domain.ErrInternalServer, "Internal server error", "")
			}
		}()
		c.Next()
	}
}

// Abort writes an APIError envelope and stops the handler chain
func Abort(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(CorrelationKey)))
}
