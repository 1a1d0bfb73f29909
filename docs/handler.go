package docs

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drblury/restweaver/config"
	"github.com/drblury/restweaver/probe"
	"github.com/drblury/restweaver/responder"
)

// SpecProvider returns the encoded OpenAPI document served by ServeSpec.
type SpecProvider func(ctx context.Context) ([]byte, error)

// TemplateDataProvider customises the data passed to the page template. When
// set, the page is rendered for every request instead of being cached.
type TemplateDataProvider func(r *http.Request, data PageData) any

// Option follows the functional options pattern used by NewHandler.
type Option func(*Handler)

const defaultProbeTimeout = 2 * time.Second

// Handler serves the documentation page, the OpenAPI document and probes.
type Handler struct {
	*responder.Responder
	specProvider    SpecProvider
	template        *template.Template
	customTemplate  bool
	dataProvider    TemplateDataProvider
	probeTimeout    time.Duration
	livenessChecks  []probe.Func
	readinessChecks []probe.Func

	mu      sync.RWMutex
	docs    config.DocsConfig
	specURL string

	// gen counts configuration changes. A cached page is only served for
	// the generation it was rendered under.
	gen      atomic.Uint64
	rendered atomic.Pointer[renderedPage]
}

type renderedPage struct {
	page []byte
	gen  uint64
}

// NewHandler constructs a Handler rendering Redoc against
// config.DefaultOpenAPIJSONPath.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		Responder: responder.NewResponder(),
		specProvider: func(context.Context) ([]byte, error) {
			return nil, errors.New("openapi spec provider not configured")
		},
		template:     templateRedoc,
		probeTimeout: defaultProbeTimeout,
		specURL:      config.DefaultOpenAPIJSONPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WithResponder replaces the responder used for JSON bodies and errors.
func WithResponder(r *responder.Responder) Option {
	return func(h *Handler) {
		if r != nil {
			h.Responder = r
		}
	}
}

// WithSpecProvider sets the source of the OpenAPI document.
func WithSpecProvider(provider SpecProvider) Option {
	return func(h *Handler) {
		if provider != nil {
			h.specProvider = provider
		}
	}
}

// WithDocsConfig sets the title, description, favicon and logo of the page.
// A UI named in the config selects the template unless a custom one is set.
func WithDocsConfig(docs config.DocsConfig) Option {
	return func(h *Handler) {
		h.docs = docs
		if !h.customTemplate && docs.UI != "" {
			h.template = TemplateFor(docs.UI)
		}
	}
}

// WithSpecURL sets the URL the page loads the document from.
func WithSpecURL(url string) Option {
	return func(h *Handler) {
		if url != "" {
			h.specURL = url
		}
	}
}

// WithTemplate injects a custom page template.
func WithTemplate(tmpl *template.Template) Option {
	return func(h *Handler) {
		if tmpl != nil {
			h.template = tmpl
			h.customTemplate = true
		}
	}
}

// WithTemplateData installs a per request template data provider.
func WithTemplateData(provider TemplateDataProvider) Option {
	return func(h *Handler) {
		h.dataProvider = provider
	}
}

// WithUIType selects one of the embedded UIs (config.UIRedoc,
// config.UIStoplight, config.UIScalar, config.UISwaggerUI).
func WithUIType(ui string) Option {
	return func(h *Handler) {
		h.template = TemplateFor(ui)
		h.customTemplate = false
	}
}

// WithProbeTimeout adjusts the maximum duration allowed for probe checks.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		if timeout > 0 {
			h.probeTimeout = timeout
		}
	}
}

// WithLivenessChecks replaces the liveness checks.
func WithLivenessChecks(checks ...probe.Func) Option {
	return func(h *Handler) {
		h.livenessChecks = filterProbes(checks)
	}
}

// WithReadinessChecks replaces the readiness checks.
func WithReadinessChecks(checks ...probe.Func) Option {
	return func(h *Handler) {
		h.readinessChecks = filterProbes(checks)
	}
}

// Configure replaces the page configuration and drops the cached render.
func (h *Handler) Configure(docs config.DocsConfig, specURL string) {
	h.mu.Lock()
	h.docs = docs
	if specURL != "" {
		h.specURL = specURL
	}
	if !h.customTemplate && docs.UI != "" {
		h.template = TemplateFor(docs.UI)
	}
	h.mu.Unlock()
	h.Reset()
}

// Reset drops the cached render so the next request renders again.
func (h *Handler) Reset() {
	h.gen.Add(1)
	h.rendered.Store(nil)
}

// Data returns the template data for the current configuration.
func (h *Handler) Data() PageData {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return pageData(h.docs, h.specURL)
}

// Render returns the page for the current configuration, rendering it when
// no cached copy exists.
func (h *Handler) Render() ([]byte, error) {
	gen := h.gen.Load()
	if cached := h.rendered.Load(); cached != nil && cached.gen == gen {
		return cached.page, nil
	}
	page, err := h.render(h.Data())
	if err != nil {
		return nil, err
	}
	h.rendered.Store(&renderedPage{page: page, gen: gen})
	return page, nil
}

func (h *Handler) render(data any) ([]byte, error) {
	h.mu.RLock()
	tmpl := h.template
	h.mu.RUnlock()
	if tmpl == nil {
		return nil, errors.New("docs template not configured")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
