// Package responder writes JSON payloads and the fixed error envelope used by
// every endpoint in the module, and logs failures through slog.
package responder

import (
	"log/slog"
	"net/http"
)

const (
	jsonContentType = "application/json"
	// TraceHeader carries the trace id of a logged fault.
	TraceHeader = "X-Trace-Id"
)

// ResponderOption follows the functional options pattern used by NewResponder
// to configure optional collaborators.
type ResponderOption func(*Responder)

type statusMeta struct {
	logLevel slog.Level
	levelSet bool
	logMsg   string
}

// StatusMetadata customises how error responses with a particular status are
// logged. LogLevel is used as given, so its zero value logs at
// slog.LevelInfo. An empty LogMsg falls back to the status text.
type StatusMetadata struct {
	LogLevel slog.Level
	LogMsg   string
}

// Responder centralises JSON rendering, error envelopes, and logging for HTTP
// handlers.
type Responder struct {
	log            *slog.Logger
	statusMetadata map[int]statusMeta
}

// NewResponder constructs a Responder with default status metadata and the
// global slog logger.
func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{
		log:            slog.Default(),
		statusMetadata: defaultStatusMetadata(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// WithLogger injects a custom slog logger.
func WithLogger(logger *slog.Logger) ResponderOption {
	return func(r *Responder) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithStatusMetadata overrides how errors with the given status are logged.
func WithStatusMetadata(status int, meta StatusMetadata) ResponderOption {
	return func(r *Responder) {
		if r.statusMetadata == nil {
			r.statusMetadata = make(map[int]statusMeta)
		}
		r.statusMetadata[status] = normalizeStatusMeta(status, statusMeta{
			logLevel: meta.LogLevel,
			levelSet: true,
			logMsg:   meta.LogMsg,
		})
	}
}

// Logger returns the slog logger used internally by the responder.
func (r *Responder) Logger() *slog.Logger {
	return r.logger()
}

func (r *Responder) logger() *slog.Logger {
	if r == nil || r.log == nil {
		return slog.Default()
	}
	return r.log
}

func (r *Responder) statusMetaFor(status int) statusMeta {
	meta, ok := r.statusMetadata[status]
	if !ok {
		meta = statusMeta{}
	}
	return normalizeStatusMeta(status, meta)
}

func normalizeStatusMeta(status int, meta statusMeta) statusMeta {
	if !meta.levelSet {
		meta.logLevel = slog.LevelWarn
		if status >= http.StatusInternalServerError {
			meta.logLevel = slog.LevelError
		}
		meta.levelSet = true
	}
	if meta.logMsg == "" {
		meta.logMsg = http.StatusText(status)
	}
	return meta
}

func defaultStatusMetadata() map[int]statusMeta {
	return map[int]statusMeta{
		http.StatusInternalServerError:  {logLevel: slog.LevelError, levelSet: true, logMsg: "restweaver encountered an error"},
		http.StatusBadRequest:           {logLevel: slog.LevelWarn, levelSet: true, logMsg: "request validation failed"},
		http.StatusMethodNotAllowed:     {logLevel: slog.LevelWarn, levelSet: true, logMsg: "method not allowed"},
		http.StatusUnsupportedMediaType: {logLevel: slog.LevelWarn, levelSet: true, logMsg: "unsupported media type"},
		http.StatusNotFound:             {logLevel: slog.LevelWarn, levelSet: true, logMsg: "route not found"},
	}
}
