package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/negotiate"
	"github.com/drblury/restweaver/responder"
	"github.com/drblury/restweaver/schema"
)

const defaultMaxBodyBytes = 10 << 20

// Response is the outcome of Execute.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// Pipeline validates requests against route contracts and invokes handlers.
// It holds no request scoped state and is safe for concurrent use.
type Pipeline struct {
	validator       schema.Validator
	outputValidator schema.Validator
	responder       *responder.Responder
	validateOutput  bool
	maxBodyBytes    int64
}

// New returns a Pipeline using kin-openapi validation and the default
// responder.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		validator:       schema.NewValidator(),
		outputValidator: schema.NewValidator(schema.WithResponseMode()),
		responder:       responder.NewResponder(),
		validateOutput:  true,
		maxBodyBytes:    defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// WithValidator replaces the validator used for request input.
func WithValidator(v schema.Validator) Option {
	return func(p *Pipeline) {
		if v != nil {
			p.validator = v
		}
	}
}

// WithOutputValidator replaces the validator used for the advisory output
// check.
func WithOutputValidator(v schema.Validator) Option {
	return func(p *Pipeline) {
		if v != nil {
			p.outputValidator = v
		}
	}
}

// WithResponder replaces the responder used to encode payloads and log
// failures.
func WithResponder(r *responder.Responder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.responder = r
		}
	}
}

// WithLogger is a shortcut for WithResponder(responder.NewResponder(responder.WithLogger(logger))).
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.responder = responder.NewResponder(responder.WithLogger(logger))
		}
	}
}

// WithoutOutputValidation skips validating handler responses against the
// declared output schemas.
func WithoutOutputValidation() Option {
	return func(p *Pipeline) {
		p.validateOutput = false
	}
}

// WithMaxBodyBytes limits how much of a request body Handler reads.
func WithMaxBodyBytes(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBodyBytes = n
		}
	}
}

// Logger returns the logger shared with the responder.
func (p *Pipeline) Logger() *slog.Logger {
	return p.responder.Logger()
}

// Responder returns the responder used by the pipeline.
func (p *Pipeline) Responder() *responder.Responder {
	return p.responder
}

// Execute runs the contract declared on route for req. It never returns a
// nil response and never panics on handler failures.
func (p *Pipeline) Execute(ctx context.Context, route *contract.Route, req *contract.Request) *Response {
	if req.Header == nil {
		req.Header = http.Header{}
	}

	c, perr := p.resolve(route, req)
	if perr != nil {
		return p.errorResponse(req, perr)
	}

	in, perr := p.validateInput(ctx, c, req)
	if perr != nil {
		return p.errorResponse(req, perr)
	}

	result, err := invoke(ctx, c.Handler, in)
	if err != nil {
		return p.errorResponse(req, &Error{Kind: KindHandlerFault, Cause: err})
	}

	resp, value, err := p.normalize(result)
	if err != nil {
		return p.errorResponse(req, &Error{Kind: KindHandlerFault, Cause: err})
	}

	p.checkOutput(ctx, req, c, resp, value)
	return resp
}

func (p *Pipeline) resolve(route *contract.Route, req *contract.Request) (*contract.MethodContract, *Error) {
	// Methods are case-sensitive: "get" is not GET.
	if c, found := route.Contract(contract.Method(req.Method)); found {
		return c, nil
	}
	return nil, &Error{Kind: KindMethodNotAllowed, Allow: route.Allow()}
}

func (p *Pipeline) validateInput(ctx context.Context, c *contract.MethodContract, req *contract.Request) (*contract.Input, *Error) {
	contentType := req.Header.Get("Content-Type")
	in := &contract.Input{
		Query:   valuesToMap(req.Query),
		Headers: headersToMap(req.Header),
		Request: req,
	}

	spec := c.Input
	if spec == nil {
		in.Body = bestEffortBody(contentType, req.Body)
		return in, nil
	}

	if spec.ContentType != "" && (spec.Body != nil || spec.Query != nil) && c.Method.CarriesBody() {
		if !negotiate.Matches(spec.ContentType, contentType) {
			return nil, &Error{Kind: KindUnsupportedMediaType}
		}
	}

	if spec.Body != nil {
		decoded, err := decodeBody(contentType, req.Body)
		if err != nil {
			return nil, &Error{Kind: KindInvalidBody, Issues: []schema.Issue{{Message: err.Error()}}, Cause: err}
		}
		res := p.validator.Validate(ctx, spec.Body, decoded)
		if !res.Valid {
			return nil, &Error{Kind: KindInvalidBody, Issues: res.Errors}
		}
		in.Body = res.Value
	} else {
		in.Body = bestEffortBody(contentType, req.Body)
	}

	if spec.Query != nil {
		res := p.validator.Validate(ctx, spec.Query, in.Query)
		if !res.Valid {
			return nil, &Error{Kind: KindInvalidQuery, Issues: res.Errors}
		}
		in.Query = res.Value
	}

	if spec.Headers != nil {
		res := p.validator.Validate(ctx, spec.Headers, in.Headers)
		if !res.Valid {
			return nil, &Error{Kind: KindInvalidHeaders, Issues: res.Errors}
		}
		in.Headers = res.Value
	}

	return in, nil
}

func bestEffortBody(contentType string, body []byte) any {
	decoded, err := decodeBody(contentType, body)
	if err != nil {
		return string(body)
	}
	return decoded
}

func invoke(ctx context.Context, handler contract.HandlerFunc, in *contract.Input) (result contract.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = &PanicError{Value: rec}
		}
	}()
	return handler(ctx, in)
}

func (p *Pipeline) errorResponse(req *contract.Request, perr *Error) *Response {
	header := http.Header{"Content-Type": []string{"application/json"}}
	raw := rawRequest(req)

	if perr.Kind == KindHandlerFault {
		traceID := p.responder.LogFault(raw, perr.Cause)
		header.Set(responder.TraceHeader, traceID)
	} else {
		p.logRejection(raw, perr)
	}
	if perr.Kind == KindMethodNotAllowed {
		header.Set("Allow", perr.Allow)
	}

	body, err := p.responder.ErrorPayload(perr.Kind.Message(), perr.Issues)
	if err != nil {
		p.responder.LogFault(raw, errors.Join(perr, err))
		body = nil
	}
	return &Response{Status: perr.Status(), Header: header, Body: body}
}

func (p *Pipeline) logRejection(raw *http.Request, perr *Error) {
	attrs := []any{"kind", perr.Kind.String(), "status", perr.Status()}
	if len(perr.Issues) > 0 {
		attrs = append(attrs, "errors", perr.Issues)
	}
	if raw != nil && raw.URL != nil {
		attrs = append(attrs, "method", raw.Method, "path", raw.URL.Path)
	}
	p.Logger().Log(contextOf(raw), slog.LevelWarn, "request rejected", attrs...)
}

func rawRequest(req *contract.Request) *http.Request {
	if req == nil {
		return nil
	}
	return req.Raw
}

func contextOf(raw *http.Request) context.Context {
	if raw == nil {
		return context.Background()
	}
	return raw.Context()
}
