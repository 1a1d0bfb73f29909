// Package reconcile tracks the configuration a process was initialised with
// and reports when a route entry supplies a different one.
package reconcile

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/drblury/restweaver/config"
	"github.com/drblury/restweaver/jsonutil"
)

// Outcome is the result of a Reconcile call.
type Outcome int

const (
	// Unchanged means the supplied config equals the stored one.
	Unchanged Outcome = iota
	// Initialized means no config was stored before.
	Initialized
	// Changed means the stored config was replaced.
	Changed
)

func (o Outcome) String() string {
	switch o {
	case Initialized:
		return "initialized"
	case Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

// Listener runs after a config was stored.
type Listener func(ctx context.Context, cfg config.Config, outcome Outcome)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// Reconciler stores the current config. Replacements are whole-value swaps,
// so readers always see a complete config.
type Reconciler struct {
	current atomic.Pointer[config.Config]
	logger  *slog.Logger

	mu        sync.RWMutex
	listeners []Listener
}

// New returns a Reconciler with no stored config.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Reconciler) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// OnChange registers l to run for Initialized and Changed outcomes.
func (r *Reconciler) OnChange(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Current returns the stored config.
func (r *Reconciler) Current() (config.Config, bool) {
	cur := r.current.Load()
	if cur == nil {
		return config.Config{}, false
	}
	return *cur, true
}

// Reconcile compares cfg with the stored config. On first use it stores cfg,
// when they differ it replaces the stored config; both cases log the reserved
// paths and notify listeners. Equal configs are a silent no-op.
func (r *Reconciler) Reconcile(ctx context.Context, cfg config.Config, docsURL, specURL string) Outcome {
	next := normalize(cfg)
	for {
		cur := r.current.Load()
		if cur != nil && Equal(*cur, next) {
			return Unchanged
		}
		if !r.current.CompareAndSwap(cur, &next) {
			continue
		}

		outcome := Changed
		if cur == nil {
			outcome = Initialized
			r.log().InfoContext(ctx, "restweaver initialized")
		} else {
			r.log().InfoContext(ctx, "restweaver config changed, re-initializing")
		}
		r.log().InfoContext(ctx, "restweaver reserved paths", "docs", docsURL, "openapi", specURL)

		r.notify(ctx, next, outcome)
		return outcome
	}
}

// InitOnce stores cfg only when no config is stored yet.
func (r *Reconciler) InitOnce(ctx context.Context, cfg config.Config, docsURL, specURL string) Outcome {
	if r.current.Load() != nil {
		return Unchanged
	}
	next := normalize(cfg)
	if !r.current.CompareAndSwap(nil, &next) {
		return Unchanged
	}
	r.log().InfoContext(ctx, "restweaver initialized")
	r.log().InfoContext(ctx, "restweaver reserved paths", "docs", docsURL, "openapi", specURL)
	r.notify(ctx, next, Initialized)
	return Initialized
}

func (r *Reconciler) notify(ctx context.Context, cfg config.Config, outcome Outcome) {
	r.mu.RLock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, l := range listeners {
		l(ctx, cfg, outcome)
	}
}

// Equal reports whether a and b are structurally equal once defaults are
// applied and overrides are reduced to plain JSON values.
func Equal(a, b config.Config) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(cfg config.Config) config.Config {
	cfg = cfg.WithDefaults()
	if len(cfg.OpenAPISpecOverrides) == 0 {
		cfg.OpenAPISpecOverrides = nil
		return cfg
	}
	plain, err := jsonutil.Normalize(cfg.OpenAPISpecOverrides)
	if err != nil {
		return cfg
	}
	if m, ok := plain.(map[string]any); ok {
		cfg.OpenAPISpecOverrides = m
	}
	return cfg
}
