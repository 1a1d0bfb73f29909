package router

import "time"

// DefaultTimeout bounds requests when no Config is given.
const DefaultTimeout = 30 * time.Second

// Config holds the settings of the default middleware chain.
type Config struct {
	// Timeout bounds each request. Zero disables the timeout middleware.
	Timeout time.Duration
	CORS    CORSConfig
	// QuietRoutes are paths the access log skips, such as probes.
	QuietRoutes []string
	// HideHeaders are redacted in debug request logs.
	HideHeaders []string
	// ReservedPaths are served outside the OpenAPI document, like the docs
	// page and the document itself, and skip request validation.
	ReservedPaths []string
}

// CORSConfig configures the CORS middleware. It is only installed when at
// least one origin is allowed.
type CORSConfig struct {
	Origins          []string
	Methods          []string
	Headers          []string
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge is sent in seconds on preflight responses when positive.
	MaxAge int
}

// DefaultConfig returns the configuration New starts from.
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		HideHeaders: []string{"Authorization", "Cookie"},
	}
}

func (c Config) clone() Config {
	c.QuietRoutes = cloneStrings(c.QuietRoutes)
	c.HideHeaders = cloneStrings(c.HideHeaders)
	c.ReservedPaths = cloneStrings(c.ReservedPaths)
	c.CORS.Origins = cloneStrings(c.CORS.Origins)
	c.CORS.Methods = cloneStrings(c.CORS.Methods)
	c.CORS.Headers = cloneStrings(c.CORS.Headers)
	c.CORS.ExposeHeaders = cloneStrings(c.CORS.ExposeHeaders)
	return c
}
