package spec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/jsonutil"
	"github.com/drblury/restweaver/negotiate"
	"github.com/drblury/restweaver/schema"
)

// OpenAPIVersion is the version emitted in the openapi field.
const OpenAPIVersion = "3.0.1"

// ErrBuild wraps every failure to derive or validate a document.
var ErrBuild = errors.New("spec: build failed")

const defaultResponseDescription = "Default response"

// Info is the info object of the generated document.
type Info struct {
	Title       string
	Version     string
	Description string
}

// DefaultInfo is used when no Info is configured.
var DefaultInfo = Info{Title: "API documentation", Version: "1.0.0"}

// Option configures a Builder.
type Option func(*Builder)

type cacheEntry struct {
	data  []byte
	stale bool
	err   error

	parseOnce sync.Once
	parsed    *openapi3.T
	parseErr  error
}

// document parses data once per entry.
func (e *cacheEntry) document(ctx context.Context) (*openapi3.T, error) {
	e.parseOnce.Do(func() {
		loader := openapi3.NewLoader()
		loader.Context = ctx
		e.parsed, e.parseErr = loader.LoadFromData(e.data)
		if e.parseErr != nil {
			e.parseErr = fmt.Errorf("load document: %w", e.parseErr)
		}
	})
	return e.parsed, e.parseErr
}

// Builder derives the document for every route of a contract.Lister and
// caches it. Builds are serialised; reads of a fresh cache do not lock.
type Builder struct {
	routes contract.Lister
	store  Store
	key    string
	logger *slog.Logger

	info      atomic.Pointer[Info]
	overrides atomic.Pointer[map[string]any]

	mu    sync.Mutex
	cache atomic.Pointer[cacheEntry]
	// gen counts invalidations. A build started under an older generation
	// caches its result as stale.
	gen atomic.Uint64
}

// NewBuilder returns a Builder for routes. Without WithStore documents are
// only cached in memory.
func NewBuilder(routes contract.Lister, opts ...Option) *Builder {
	b := &Builder{
		routes: routes,
		store:  NewMemoryStore(),
		key:    DefaultKey,
	}
	info := DefaultInfo
	b.info.Store(&info)
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithStore persists built documents to s.
func WithStore(s Store) Option {
	return func(b *Builder) {
		if s != nil {
			b.store = s
		}
	}
}

// WithKey changes the key documents are stored under.
func WithKey(key string) Option {
	return func(b *Builder) {
		if key != "" {
			b.key = key
		}
	}
}

// WithLogger sets the logger used for build progress and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithInfo sets the info object of the document.
func WithInfo(info Info) Option {
	return func(b *Builder) {
		b.info.Store(&info)
	}
}

// WithOverrides sets the values deep-merged on top of the derived document.
func WithOverrides(overrides map[string]any) Option {
	return func(b *Builder) {
		b.overrides.Store(&overrides)
	}
}

func (b *Builder) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}

// SetInfo replaces the info object and invalidates the cache.
func (b *Builder) SetInfo(info Info) {
	b.info.Store(&info)
	b.Invalidate()
}

// SetOverrides replaces the overrides and invalidates the cache.
func (b *Builder) SetOverrides(overrides map[string]any) {
	b.overrides.Store(&overrides)
	b.Invalidate()
}

// Invalidate marks the cached document stale. The next call to Document
// rebuilds it; the stale document keeps being served if that rebuild fails.
func (b *Builder) Invalidate() {
	b.gen.Add(1)
	b.markStale()
}

func (b *Builder) markStale() {
	for {
		cur := b.cache.Load()
		if cur == nil || cur.stale {
			return
		}
		next := &cacheEntry{data: cur.data, stale: true}
		if b.cache.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Err returns the error of the last build, if it failed.
func (b *Builder) Err() error {
	if e := b.cache.Load(); e != nil {
		return e.err
	}
	return nil
}

// Document returns the encoded document, building it when nothing is cached
// or the cache was invalidated. A failed build is logged once and not
// retried until the next Invalidate; meanwhile the previous document, if any,
// is returned.
func (b *Builder) Document(ctx context.Context) ([]byte, error) {
	if e := b.cache.Load(); e != nil && !e.stale {
		return e.result()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.cache.Load()
	if cur != nil && !cur.stale {
		return cur.result()
	}

	gen := b.gen.Load()
	prev := b.previous(ctx, cur)
	data, err := b.Build(ctx)
	if err != nil {
		b.log().ErrorContext(ctx, "restweaver encountered an error", "error", err.Error())
		b.storeEntry(&cacheEntry{data: prev, err: err}, gen)
		if prev != nil {
			return prev, nil
		}
		return nil, err
	}

	if prev != nil && bytes.Equal(prev, data) {
		b.log().InfoContext(ctx, "API spec up to date")
		b.storeEntry(&cacheEntry{data: data}, gen)
		return data, nil
	}

	if err := b.store.Put(ctx, b.key, data); err != nil {
		err = fmt.Errorf("persist %s: %w", b.key, err)
		b.log().ErrorContext(ctx, "restweaver encountered an error", "error", err.Error())
	} else {
		b.log().InfoContext(ctx, "API spec generated successfully!")
	}
	b.storeEntry(&cacheEntry{data: data}, gen)
	return data, nil
}

// storeEntry caches e, built under generation gen. An Invalidate that ran
// since gen was read leaves the entry stale. Invalidate bumps the generation
// before marking, so checking after the store cannot miss it.
func (b *Builder) storeEntry(e *cacheEntry, gen uint64) {
	e.stale = b.gen.Load() != gen
	b.cache.Store(e)
	if !e.stale && b.gen.Load() != gen {
		b.markStale()
	}
}

func (e *cacheEntry) result() ([]byte, error) {
	if e.data == nil {
		return nil, e.err
	}
	return e.data, nil
}

// previous returns the last known document: the cached one, else the stored
// one. A missing stored document is logged as the start of a first build.
func (b *Builder) previous(ctx context.Context, cur *cacheEntry) []byte {
	if cur != nil && cur.data != nil {
		return cur.data
	}
	data, err := b.store.Get(ctx, b.key)
	switch {
	case errors.Is(err, ErrNotFound):
		b.log().InfoContext(ctx, "No API spec found, generating openapi.json")
		return nil
	case err != nil:
		b.log().WarnContext(ctx, "failed to read stored API spec", "key", b.key, "error", err.Error())
		return nil
	}
	return data
}

// Load returns the current document parsed by kin-openapi. The parsed
// document is shared between callers until the cache changes and must not be
// modified.
func (b *Builder) Load(ctx context.Context) (*openapi3.T, error) {
	if _, err := b.Document(ctx); err != nil {
		return nil, err
	}
	e := b.cache.Load()
	if e == nil || e.data == nil {
		return nil, fmt.Errorf("%w: no document", ErrBuild)
	}
	return e.document(ctx)
}

// Build derives, merges and validates a fresh document without touching the
// cache or the store. The output is indented JSON with sorted keys, so an
// unchanged route set always yields the same bytes.
func (b *Builder) Build(ctx context.Context) ([]byte, error) {
	doc, err := b.Derive()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %w", ErrBuild, err)
	}
	var tree map[string]any
	if err := jsonutil.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%w: decode document: %w", ErrBuild, err)
	}
	if overrides := b.overrides.Load(); overrides != nil && len(*overrides) > 0 {
		normalized, err := jsonutil.Normalize(*overrides)
		if err != nil {
			return nil, fmt.Errorf("%w: overrides: %w", ErrBuild, err)
		}
		override, ok := normalized.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: overrides must be an object", ErrBuild)
		}
		tree = Merge(tree, override)
	}

	data, err := jsonutil.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %w", ErrBuild, err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	parsed, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("%w: load document: %w", ErrBuild, err)
	}
	if err := parsed.Validate(ctx); err != nil {
		return nil, fmt.Errorf("%w: invalid document: %w", ErrBuild, err)
	}
	return data, nil
}

// Derive converts the registered contracts into a document. Paths are
// visited in sorted order and methods in canonical order.
func (b *Builder) Derive() (*openapi3.T, error) {
	info := *b.info.Load()
	if info.Title == "" {
		info.Title = DefaultInfo.Title
	}
	if info.Version == "" {
		info.Version = DefaultInfo.Version
	}

	doc := &openapi3.T{
		OpenAPI: OpenAPIVersion,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
	}
	if b.routes == nil {
		return doc, nil
	}

	routes := b.routes.ListRoutes()
	sort.SliceStable(routes, func(i, j int) bool { return routes[i].Path() < routes[j].Path() })

	seen := make(map[string]int)
	for _, route := range routes {
		path := OpenAPIPath(route.Path())
		if doc.Paths.Value(path) != nil {
			return nil, fmt.Errorf("path %s declared twice", path)
		}
		item := &openapi3.PathItem{}
		for _, m := range contract.Methods {
			c, ok := route.Contract(m)
			if !ok {
				continue
			}
			op, err := operation(route.Path(), c)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", m, route.Path(), err)
			}
			if n := seen[op.OperationID]; n > 0 {
				seen[op.OperationID] = n + 1
				op.OperationID += strconv.Itoa(n + 1)
			} else {
				seen[op.OperationID] = 1
			}
			item.SetOperation(m.String(), op)
		}
		doc.Paths.Set(path, item)
	}
	return doc, nil
}

func operation(path string, c *contract.MethodContract) (*openapi3.Operation, error) {
	op := &openapi3.Operation{
		OperationID: c.OperationID,
		Summary:     c.Summary,
		Description: c.Description,
		Tags:        c.Tags,
		Responses:   responses(c.Output),
	}
	if op.OperationID == "" {
		op.OperationID = OperationID(c.Method, path)
	}

	for _, name := range PathParams(path) {
		p := openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema())
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: p})
	}

	in := c.Input
	if in == nil {
		return op, nil
	}

	query, err := parameters(in.Query, openapi3.NewQueryParameter)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	headers, err := parameters(in.Headers, openapi3.NewHeaderParameter)
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}
	op.Parameters = append(op.Parameters, query...)
	op.Parameters = append(op.Parameters, headers...)

	if in.Body != nil {
		contentType := in.ContentType
		if contentType == "" {
			contentType = negotiate.DefaultContentType
		}
		content := openapi3.NewContentWithSchemaRef(in.Body.OpenAPI(), []string{contentType})
		body := openapi3.NewRequestBody().WithRequired(true).WithContent(content)
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}
	return op, nil
}

// parameters turns the properties of an object schema into parameters,
// sorted by name.
func parameters(s schema.Schema, newParam func(name string) *openapi3.Parameter) (openapi3.Parameters, error) {
	if s == nil {
		return nil, nil
	}
	ref := s.OpenAPI()
	if ref == nil || ref.Value == nil {
		return nil, nil
	}
	if len(ref.Value.Properties) == 0 {
		if ref.Value.Type != nil && !ref.Value.Type.Is(openapi3.TypeObject) {
			return nil, errors.New("parameter schema must be an object")
		}
		return nil, nil
	}

	required := make(map[string]bool, len(ref.Value.Required))
	for _, name := range ref.Value.Required {
		required[name] = true
	}

	names := make([]string, 0, len(ref.Value.Properties))
	for name := range ref.Value.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make(openapi3.Parameters, 0, len(names))
	for _, name := range names {
		p := newParam(name).WithRequired(required[name])
		p.Schema = ref.Value.Properties[name]
		params = append(params, &openapi3.ParameterRef{Value: p})
	}
	return params, nil
}

func responses(outputs []contract.OutputSpec) *openapi3.Responses {
	if len(outputs) == 0 {
		res := openapi3.NewResponsesWithCapacity(1)
		res.Set("default", &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(defaultResponseDescription)})
		return res
	}

	statuses := make([]int, 0, len(outputs))
	byStatus := make(map[int]*openapi3.Response, len(outputs))
	for _, out := range outputs {
		resp, ok := byStatus[out.Status]
		if !ok {
			resp = openapi3.NewResponse().WithDescription(responseDescription(out))
			resp.Content = openapi3.NewContent()
			byStatus[out.Status] = resp
			statuses = append(statuses, out.Status)
		}
		contentType := out.ContentType
		if contentType == "" {
			contentType = negotiate.DefaultContentType
		}
		mt := openapi3.NewMediaType()
		if out.Schema != nil {
			mt.Schema = out.Schema.OpenAPI()
		}
		resp.Content[contentType] = mt
	}

	res := openapi3.NewResponsesWithCapacity(len(statuses))
	for _, status := range statuses {
		res.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: byStatus[status]})
	}
	return res
}

func responseDescription(out contract.OutputSpec) string {
	switch {
	case out.Description != "":
		return out.Description
	case out.Status == http.StatusCreated:
		return contract.MessageCreated
	case out.Status == http.StatusNoContent:
		return contract.MessageNoContent
	}
	if text := http.StatusText(out.Status); text != "" {
		return text
	}
	return defaultResponseDescription
}
