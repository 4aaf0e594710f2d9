// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides request correlation, caller identity, the access log,
// and panic recovery:
//
//   - RequestID() reuses or generates X-Request-ID and echoes it back.
//   - UserIdentity() reads X-User-ID into the Gin context ("userID") so the
//     browse endpoints, the rate limiter and the access log agree on who is
//     calling.
//   - AccessLog() emits one structured line per request with scrubbed query
//     and headers, and attaches a request-scoped zerolog.Logger.
//   - Recovery() turns panics into the JSON error envelope.
//
// Recommended order: RequestID, UserIdentity, AccessLog, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"

	// UserIDKey is the Gin context key holding the caller's user id.
	UserIDKey = "userID"
	// UserIDHeader carries the caller's user id.
	UserIDHeader = "X-User-ID"

	loggerKey = "logger"

	maxQueryLogLength = 2048
	maxUserIDLength   = 128
)

// RequestID attaches (or propagates) a correlation identifier per request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// UserIdentity stores the trimmed X-User-ID header under UserIDKey.
// Ids longer than 128 bytes are ignored.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(UserIDHeader)); uid != "" && len(uid) <= maxUserIDLength {
			c.Set(UserIDKey, uid)
		}
		c.Next()
	}
}

// UserID returns the caller's user id, or "" when none was sent.
func UserID(c *gin.Context) string {
	return asString(c.Value(UserIDKey))
}

// AccessLogOptions configures AccessLog.
type AccessLogOptions struct {
	// MaskHeaders are extra headers logged as "[REDACTED]".
	MaskHeaders []string
	// MaskQuery are extra query parameters logged as "[REDACTED]".
	MaskQuery []string
	// SkipPaths are routes not logged on success (e.g. /health, /metrics).
	SkipPaths []string
}

// AccessLog writes one structured log line per request with PII scrubbed
// from the query string and headers. It stores a request-scoped logger
// carrying request_id and user_id for LoggerFrom.
//
// Level follows the outcome: error for 5xx or gin errors, warn for 4xx,
// info otherwise.
func AccessLog(opts AccessLogOptions) gin.HandlerFunc {
	red := NewRedactor(opts.MaskHeaders, opts.MaskQuery)
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l := log.With().
			Str("request_id", asString(c.Value(requestIDKey))).
			Str("user_id", UserID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		query := truncate(red.Query(c.Request.URL.RawQuery), maxQueryLogLength)
		headers := red.Headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		if _, ok := skip[path]; ok && status < 400 {
			return
		}

		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		ev.Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// Recovery intercepts panics, logs a stack trace, and returns a JSON 500
// unless a response was already written.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid := asString(c.Value(requestIDKey))
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header(requestIDHeader, rid)
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": rid,
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// AccessLog is not installed.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok {
		return lg
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// truncate caps s at max bytes, appending an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
