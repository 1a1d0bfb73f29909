package restweaver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/drblury/restweaver/config"
	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/docs"
	"github.com/drblury/restweaver/pipeline"
	"github.com/drblury/restweaver/probe"
	"github.com/drblury/restweaver/reconcile"
	"github.com/drblury/restweaver/responder"
	"github.com/drblury/restweaver/router"
	"github.com/drblury/restweaver/spec"
)

// Probe paths mounted by Handler when checks are configured.
const (
	HealthzPath = "/healthz"
	ReadyzPath  = "/readyz"
)

// Option configures a Framework.
type Option func(*Framework)

// Framework wires routes, validation, the OpenAPI document and the docs page.
type Framework struct {
	cfg     config.Config
	baseURL string
	version string
	logger  *slog.Logger

	responder  *responder.Responder
	registry   *contract.Registry
	pipeline   *pipeline.Pipeline
	builder    *spec.Builder
	docs       *docs.Handler
	reconciler *reconcile.Reconciler

	pipelineOpts    []pipeline.Option
	builderOpts     []spec.Option
	routerOpts      []router.Option
	docsOpts        []docs.Option
	validate        bool
	livenessChecks  []probe.Func
	readinessChecks []probe.Func

	mu      sync.Mutex
	mux     *http.ServeMux
	mounted map[string]bool
}

// New returns a Framework using cfg defaults unless WithConfig is given.
func New(opts ...Option) *Framework {
	f := &Framework{
		cfg:     config.Default(),
		version: spec.DefaultInfo.Version,
		mux:     http.NewServeMux(),
		mounted: make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}

	f.responder = responder.NewResponder(responder.WithLogger(f.logger))
	f.registry = contract.NewRegistry()
	f.pipeline = pipeline.New(append([]pipeline.Option{pipeline.WithResponder(f.responder)}, f.pipelineOpts...)...)
	f.builder = spec.NewBuilder(f.registry, append([]spec.Option{
		spec.WithLogger(f.logger),
		spec.WithInfo(f.info(f.cfg)),
		spec.WithOverrides(f.cfg.OpenAPISpecOverrides),
	}, f.builderOpts...)...)
	f.docs = docs.NewHandler(append([]docs.Option{
		docs.WithResponder(f.responder),
		docs.WithSpecProvider(f.builder.Document),
		docs.WithDocsConfig(f.cfg.DocsConfig),
		docs.WithSpecURL(f.SpecURL(f.cfg)),
		docs.WithLivenessChecks(f.livenessChecks...),
		docs.WithReadinessChecks(append([]probe.Func{probe.NewDocumentProbe(f.builder)}, f.readinessChecks...)...),
	}, f.docsOpts...)...)

	f.reconciler = reconcile.New(reconcile.WithLogger(f.logger))
	f.reconciler.OnChange(f.apply)

	f.mux.Handle("/", http.HandlerFunc(f.notFound))
	return f
}

// WithConfig sets the configuration used by route entries and Handler.
func WithConfig(cfg config.Config) Option {
	return func(f *Framework) {
		f.cfg = cfg.WithDefaults()
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Framework) {
		f.logger = logger
	}
}

// WithBaseURL prefixes the docs and spec URLs that are logged and linked from
// the docs page.
func WithBaseURL(baseURL string) Option {
	return func(f *Framework) {
		f.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithVersion sets the info.version of the document.
func WithVersion(version string) Option {
	return func(f *Framework) {
		if version != "" {
			f.version = version
		}
	}
}

// WithStore persists the document to s.
func WithStore(s spec.Store) Option {
	return func(f *Framework) {
		f.builderOpts = append(f.builderOpts, spec.WithStore(s))
	}
}

// WithPipelineOptions passes options to the request pipeline.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(f *Framework) {
		f.pipelineOpts = append(f.pipelineOpts, opts...)
	}
}

// WithRouterOptions passes options to router.New in Handler.
func WithRouterOptions(opts ...router.Option) Option {
	return func(f *Framework) {
		f.routerOpts = append(f.routerOpts, opts...)
	}
}

// WithDocsOptions passes options to the docs handler.
func WithDocsOptions(opts ...docs.Option) Option {
	return func(f *Framework) {
		f.docsOpts = append(f.docsOpts, opts...)
	}
}

// WithRequestValidation validates requests against the generated document in
// the router, ahead of the pipeline.
func WithRequestValidation() Option {
	return func(f *Framework) {
		f.validate = true
	}
}

// WithLivenessChecks mounts HealthzPath running checks.
func WithLivenessChecks(checks ...probe.Func) Option {
	return func(f *Framework) {
		f.livenessChecks = append(f.livenessChecks, checks...)
	}
}

// WithReadinessChecks adds checks to ReadyzPath. The document probe is always
// included.
func WithReadinessChecks(checks ...probe.Func) Option {
	return func(f *Framework) {
		f.readinessChecks = append(f.readinessChecks, checks...)
	}
}

// Config returns the configuration in effect: the reconciled one once a
// route was entered, else the configured one.
func (f *Framework) Config() config.Config {
	if cfg, ok := f.reconciler.Current(); ok {
		return cfg
	}
	return f.cfg
}

// DocsURL returns the URL the docs page is served at for cfg.
func (f *Framework) DocsURL(cfg config.Config) string {
	return f.baseURL + cfg.WithDefaults().DocsPath
}

// SpecURL returns the URL the document is served at for cfg.
func (f *Framework) SpecURL(cfg config.Config) string {
	return f.baseURL + cfg.WithDefaults().OpenAPIJSONPath
}

// Reconcile compares cfg with the stored configuration. A change regenerates
// the document and re-renders the docs page on next use.
func (f *Framework) Reconcile(ctx context.Context, cfg config.Config) reconcile.Outcome {
	return f.reconciler.Reconcile(ctx, cfg, f.DocsURL(cfg), f.SpecURL(cfg))
}

func (f *Framework) ensureInitialized(ctx context.Context) {
	f.reconciler.InitOnce(ctx, f.cfg, f.DocsURL(f.cfg), f.SpecURL(f.cfg))
}

func (f *Framework) apply(_ context.Context, cfg config.Config, _ reconcile.Outcome) {
	f.builder.SetInfo(f.info(cfg))
	f.builder.SetOverrides(cfg.OpenAPISpecOverrides)
	f.docs.Configure(cfg.DocsConfig, f.SpecURL(cfg))
}

func (f *Framework) info(cfg config.Config) spec.Info {
	return spec.Info{
		Title:       cfg.DocsConfig.Title,
		Version:     f.version,
		Description: cfg.DocsConfig.Description,
	}
}

// Route declares the contracts of path and mounts it. Declaring more methods
// for an existing path extends it; declaring a method twice fails. The
// returned route holds every method registered for path.
func (f *Framework) Route(path string, contracts ...contract.MethodContract) (*contract.Route, error) {
	r, err := contract.NewRoute(path, contracts...)
	if err != nil {
		return nil, err
	}
	if err := f.Register(r); err != nil {
		return nil, err
	}
	if merged, ok := f.registry.Route(path); ok {
		return merged, nil
	}
	return r, nil
}

// MustRoute is like Route but panics on error.
func (f *Framework) MustRoute(path string, contracts ...contract.MethodContract) *contract.Route {
	r, err := f.Route(path, contracts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register mounts an already built route.
func (f *Framework) Register(r *contract.Route) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r == nil {
		return errors.New("register: route is nil")
	}
	if !f.mounted[r.Path()] {
		if err := f.mount(r.Path()); err != nil {
			return err
		}
		f.mounted[r.Path()] = true
	}
	if err := f.registry.Register(r); err != nil {
		return err
	}
	f.builder.Invalidate()
	return nil
}

func (f *Framework) mount(path string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("mount %s: %v", path, rec)
		}
	}()
	resolve := func(*http.Request) (*contract.Route, bool) { return f.registry.Route(path) }
	f.mux.Handle(path, f.entry(f.pipeline.ResolvingHandler(resolve)))
	return nil
}

// ListRoutes returns every registered route sorted by path.
func (f *Framework) ListRoutes() []*contract.Route {
	return f.registry.ListRoutes()
}

func (f *Framework) entry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.ensureInitialized(r.Context())
		next.ServeHTTP(w, r)
	})
}

// RouteHandler returns the handler serving a single route, for hosts that do
// their own routing.
func (f *Framework) RouteHandler(r *contract.Route) http.Handler {
	return f.entry(f.pipeline.Handler(r))
}

// DocsHandler serves the documentation page for cfg.
func (f *Framework) DocsHandler(cfg config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.Reconcile(r.Context(), cfg)
		f.docs.ServeHTML(w, r)
	})
}

// SpecHandler serves the OpenAPI document for cfg.
func (f *Framework) SpecHandler(cfg config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.Reconcile(r.Context(), cfg)
		f.docs.ServeSpec(w, r)
	})
}

// Spec returns the encoded document.
func (f *Framework) Spec(ctx context.Context) ([]byte, error) {
	f.ensureInitialized(ctx)
	return f.builder.Document(ctx)
}

// Builder returns the spec builder.
func (f *Framework) Builder() *spec.Builder {
	return f.builder
}

// Docs returns the docs handler.
func (f *Framework) Docs() *docs.Handler {
	return f.docs
}

// Handler returns the complete HTTP surface: every route, the docs page, the
// document and probes, behind the router middleware chain.
func (f *Framework) Handler() http.Handler {
	cfg := f.cfg
	reserved := []string{cfg.DocsPath, cfg.OpenAPIJSONPath}

	mux := http.NewServeMux()
	mux.Handle("/", f.mux)
	mux.Handle("GET "+cfg.DocsPath, f.DocsHandler(cfg))
	mux.Handle("GET "+cfg.OpenAPIJSONPath, f.SpecHandler(cfg))
	if len(f.livenessChecks) > 0 {
		mux.HandleFunc("GET "+HealthzPath, f.docs.GetHealthz)
		reserved = append(reserved, HealthzPath)
	}
	mux.HandleFunc("GET "+ReadyzPath, f.docs.GetReadyz)
	reserved = append(reserved, ReadyzPath)

	opts := []router.Option{
		router.WithLogger(f.logger),
		router.WithResponder(f.responder),
		router.WithReservedPaths(reserved...),
		router.WithQuietRoutes(HealthzPath, ReadyzPath),
	}
	if f.validate {
		opts = append(opts, router.WithSpecSource(f.builder))
	} else {
		opts = append(opts, router.WithoutOpenAPIValidation())
	}
	return router.New(mux, append(opts, f.routerOpts...)...)
}

func (f *Framework) notFound(w http.ResponseWriter, r *http.Request) {
	f.responder.RespondWithError(w, r, http.StatusNotFound, contract.ErrMessageNotFound, nil, nil)
}
