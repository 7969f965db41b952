package prerouter

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caasmo/credkeeper/core"
)

const logMessage = "http_request"

// cutStr limits string length by adding ellipsis if needed
func cutStr(str string, max int) string {
	if len(str) > max {
		return str[:max] + "..."
	}
	return str
}

const (
	logURILength       = 256
	logUserAgentLength = 128
	logRefererLength   = 128
)

// RequestLog is middleware that logs HTTP request details
type RequestLog struct {
	app *core.App
}

// NewRequestLog creates a new request logging middleware instance
func NewRequestLog(app *core.App) *RequestLog {
	return &RequestLog{
		app: app,
	}
}

// responseRecorder wraps http.ResponseWriter to capture the status code.
// Initialized to StatusOK because handlers may write the body without ever
// calling WriteHeader.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Execute wraps the next handler with request logging
func (r *RequestLog) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		rec := &responseRecorder{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		next.ServeHTTP(rec, req)

		r.app.Logger().Info(logMessage,
			slog.String("method", strings.ToUpper(req.Method)),
			slog.String("uri", cutStr(req.URL.RequestURI(), logURILength)),
			slog.Int("status", rec.status),
			slog.String("duration", time.Since(start).String()),
			slog.String("remote_ip", clientIP(req)),
			slog.String("user_agent", cutStr(req.UserAgent(), logUserAgentLength)),
			slog.String("referer", cutStr(req.Referer(), logRefererLength)),
			slog.String("proto", req.Proto),
			slog.Int64("content_length", req.ContentLength),
		)
	})
}
