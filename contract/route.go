package contract

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidMethod is returned for contracts declared on unsupported methods.
	ErrInvalidMethod = errors.New("invalid method")
	// ErrDuplicateRoute is returned when a path and method pair is declared twice.
	ErrDuplicateRoute = errors.New("duplicate route")
	// ErrMissingHandler is returned for contracts without a handler.
	ErrMissingHandler = errors.New("missing handler")
)

// Route is a URL path with its method contracts in declaration order.
type Route struct {
	path      string
	contracts []*MethodContract
}

// NewRoute validates the contracts and returns a Route for path.
func NewRoute(path string, contracts ...MethodContract) (*Route, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("route %q: path must start with /", path)
	}
	r := &Route{path: path}
	seen := make(map[Method]struct{}, len(contracts))
	for i := range contracts {
		c := contracts[i]
		if !c.Method.Valid() {
			return nil, fmt.Errorf("route %s: %w %q", path, ErrInvalidMethod, c.Method)
		}
		if c.Handler == nil {
			return nil, fmt.Errorf("route %s %s: %w", c.Method, path, ErrMissingHandler)
		}
		if _, ok := seen[c.Method]; ok {
			return nil, fmt.Errorf("route %s %s: %w", c.Method, path, ErrDuplicateRoute)
		}
		seen[c.Method] = struct{}{}
		r.contracts = append(r.contracts, &c)
	}
	return r, nil
}

// MustRoute is like NewRoute but panics on error.
func MustRoute(path string, contracts ...MethodContract) *Route {
	r, err := NewRoute(path, contracts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Path returns the route path.
func (r *Route) Path() string {
	return r.path
}

// Contract returns the contract declared for m.
func (r *Route) Contract(m Method) (*MethodContract, bool) {
	for _, c := range r.contracts {
		if c.Method == m {
			return c, true
		}
	}
	return nil, false
}

// Methods returns the declared methods in declaration order.
func (r *Route) Methods() []Method {
	methods := make([]Method, 0, len(r.contracts))
	for _, c := range r.contracts {
		methods = append(methods, c.Method)
	}
	return methods
}

// Allow returns the value of the Allow header for this route.
func (r *Route) Allow() string {
	names := make([]string, 0, len(r.contracts))
	for _, c := range r.contracts {
		names = append(names, c.Method.String())
	}
	return strings.Join(names, ", ")
}

// Lister exposes the routes known to a process.
type Lister interface {
	ListRoutes() []*Route
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func() []*Route

// ListRoutes calls f.
func (f ListerFunc) ListRoutes() []*Route {
	return f()
}

// Registry holds routes keyed by path. Path and method pairs are unique across
// the registry.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]*Route
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]*Route)}
}

// Register adds r. Registering the same *Route twice is a no-op.
func (reg *Registry) Register(r *Route) error {
	if r == nil {
		return errors.New("register: route is nil")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()

	existing, ok := reg.routes[r.path]
	if !ok {
		reg.routes[r.path] = r
		return nil
	}
	if existing == r {
		return nil
	}

	merged := &Route{path: r.path, contracts: append([]*MethodContract(nil), existing.contracts...)}
	for _, c := range r.contracts {
		if _, dup := existing.Contract(c.Method); dup {
			return fmt.Errorf("register %s %s: %w", c.Method, r.path, ErrDuplicateRoute)
		}
		merged.contracts = append(merged.contracts, c)
	}
	reg.routes[r.path] = merged
	return nil
}

// Route returns the route registered for path.
func (reg *Registry) Route(path string) (*Route, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.routes[path]
	return r, ok
}

// ListRoutes returns the registered routes sorted by path.
func (reg *Registry) ListRoutes() []*Route {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	routes := make([]*Route, 0, len(reg.routes))
	for _, r := range reg.routes {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].path < routes[j].path })
	return routes
}
