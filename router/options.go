package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/restweaver/responder"
)

// Option configures the router via the functional options pattern.
type Option func(*options)

// SpecSource yields the OpenAPI document requests are validated against.
// spec.Builder implements it; the document may change between calls.
type SpecSource interface {
	Load(ctx context.Context) (*openapi3.T, error)
}

// SpecSourceFunc adapts a function to SpecSource.
type SpecSourceFunc func(ctx context.Context) (*openapi3.T, error)

// Load calls f.
func (f SpecSourceFunc) Load(ctx context.Context) (*openapi3.T, error) {
	return f(ctx)
}

type options struct {
	config    Config
	logger    *slog.Logger
	responder *responder.Responder
	source    SpecSource

	prepend  []Middleware
	append   []Middleware
	override []Middleware

	disableRecovery bool
	disableLogging  bool
	disableOpenAPI  bool
	disableCORS     bool
	disableTimeout  bool
}

func defaultOptions() *options {
	return &options{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
}

func (o *options) middlewareChain() []Middleware {
	if o.override != nil {
		return append([]Middleware(nil), o.override...)
	}

	resp := o.responderOrDefault()
	chain := append([]Middleware(nil), o.prepend...)
	if !o.disableRecovery {
		chain = append(chain, recoverMiddleware(resp))
	}
	if !o.disableLogging && o.logger != nil {
		chain = append(chain, loggingMiddleware(o.logger, o.config.QuietRoutes, o.config.HideHeaders))
	}
	if !o.disableCORS && len(o.config.CORS.Origins) > 0 {
		chain = append(chain, corsMiddleware(o.config.CORS))
	}
	if !o.disableOpenAPI && o.source != nil {
		chain = append(chain, validationMiddleware(o.source, resp, o.config.ReservedPaths))
	}
	if !o.disableTimeout && o.config.Timeout > 0 {
		chain = append(chain, timeoutMiddleware(o.config.Timeout, resp))
	}
	return append(chain, o.append...)
}

func (o *options) responderOrDefault() *responder.Responder {
	if o.responder != nil {
		return o.responder
	}
	return responder.NewResponder(responder.WithLogger(o.logger))
}

// WithConfig replaces the router configuration.
func WithConfig(cfg Config) Option {
	cfg = cfg.clone()
	return func(o *options) {
		o.config = cfg
	}
}

// WithReservedPaths excludes paths from request validation.
func WithReservedPaths(paths ...string) Option {
	return func(o *options) {
		o.config.ReservedPaths = append(o.config.ReservedPaths, paths...)
	}
}

// WithQuietRoutes excludes paths from the access log.
func WithQuietRoutes(paths ...string) Option {
	return func(o *options) {
		o.config.QuietRoutes = append(o.config.QuietRoutes, paths...)
	}
}

// WithCORS installs the CORS middleware with cfg.
func WithCORS(cfg CORSConfig) Option {
	return func(o *options) {
		o.config.CORS = Config{CORS: cfg}.clone().CORS
	}
}

// WithTimeout bounds each request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.config.Timeout = d
	}
}

// WithLogger sets the logger of the access log and of the default responder.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithResponder sets the responder used for validation errors, recovered
// panics and timeouts.
func WithResponder(r *responder.Responder) Option {
	return func(o *options) {
		o.responder = r
	}
}

// WithSpec validates requests against a fixed OpenAPI document.
func WithSpec(doc *openapi3.T) Option {
	return func(o *options) {
		if doc == nil {
			o.source = nil
			return
		}
		o.source = SpecSourceFunc(func(context.Context) (*openapi3.T, error) { return doc, nil })
	}
}

// WithSpecSource validates requests against the document currently returned
// by source.
func WithSpecSource(source SpecSource) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithMiddlewares prepends middlewares ahead of the default chain.
func WithMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.prepend = append(o.prepend, middlewares...)
	}
}

// WithTrailingMiddlewares appends middlewares after the default chain.
func WithTrailingMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.append = append(o.append, middlewares...)
	}
}

// WithMiddlewareChain replaces the whole chain, defaults included.
func WithMiddlewareChain(middlewares ...Middleware) Option {
	cloned := append([]Middleware{}, middlewares...)
	return func(o *options) {
		o.override = cloned
	}
}

// WithoutRecovery lets panics propagate to net/http.
func WithoutRecovery() Option {
	return func(o *options) { o.disableRecovery = true }
}

// WithoutLogging disables request ids and the access log.
func WithoutLogging() Option {
	return func(o *options) { o.disableLogging = true }
}

// WithoutOpenAPIValidation disables request validation.
func WithoutOpenAPIValidation() Option {
	return func(o *options) { o.disableOpenAPI = true }
}

// WithoutCORS disables the CORS middleware regardless of configuration.
func WithoutCORS() Option {
	return func(o *options) { o.disableCORS = true }
}

// WithoutTimeout disables the timeout middleware.
func WithoutTimeout() Option {
	return func(o *options) { o.disableTimeout = true }
}
