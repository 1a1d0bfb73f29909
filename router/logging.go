package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/drblury/restweaver/responder"
)

// RequestIDHeader carries the id the logging middleware assigns to a request.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// loggingMiddleware keeps an upstream request id or assigns a ULID, echoes it
// in RequestIDHeader and writes one access log record per request.
func loggingMiddleware(logger *slog.Logger, quietRoutes, hideHeaders []string) Middleware {
	quiet := cloneStrings(quietRoutes)
	hidden := cloneStrings(hideHeaders)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = responder.NewTraceID()
			}
			w.Header().Set(RequestIDHeader, requestID)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

			if matchesRoute(r.URL.Path, quiet) {
				next.ServeHTTP(w, r)
				return
			}

			if logger.Enabled(r.Context(), slog.LevelDebug) {
				headers := r.Header.Clone()
				redactHeaders(headers, hidden)
				logger.DebugContext(r.Context(), "request received",
					"requestId", requestID,
					"method", r.Method,
					"path", r.URL.Path,
					"header", headers,
				)
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request",
				slog.String("requestId", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int("size", rec.size),
				slog.Duration("latency", time.Since(start)),
			)
		})
	}
}

func redactHeaders(headers http.Header, hideHeaders []string) {
	for _, header := range hideHeaders {
		canonical := http.CanonicalHeaderKey(header)
		values, ok := headers[canonical]
		if !ok {
			continue
		}

		n := 0
		for _, value := range values {
			n += len(value)
		}
		headers[canonical] = []string{fmt.Sprintf("[REDACTED - %d bytes]", n)}
	}
}
