// Package config holds the configuration surface shared by the docs page,
// the spec builder and the reconciler.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults.
const (
	DefaultOpenAPIJSONPath = "/openapi.json"
	DefaultDocsPath        = "/docs"
	DefaultTitle           = "API documentation"
	DefaultDescription     = "This is an autogenerated documentation by restweaver."
	DefaultFaviconURL      = "https://raw.githubusercontent.com/blomqma/next-rest-framework/main/docs/static/img/favicon.ico"
	DefaultLogoURL         = "https://raw.githubusercontent.com/blomqma/next-rest-framework/d02224b38d07ede85257b22ed50159a947681f99/packages/next-rest-framework/logo.svg"
)

// Documentation UIs understood by the docs package.
const (
	UIRedoc     = "redoc"
	UIStoplight = "stoplight"
	UIScalar    = "scalar"
	UISwaggerUI = "swagger-ui"
)

// DocsConfig configures the rendered documentation page.
type DocsConfig struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	FaviconURL  string `yaml:"faviconUrl" json:"faviconUrl"`
	LogoURL     string `yaml:"logoUrl" json:"logoUrl"`
	UI          string `yaml:"ui" json:"ui"`
}

// Config is the configuration passed on every route entry.
type Config struct {
	OpenAPIJSONPath      string         `yaml:"openApiJsonPath" json:"openApiJsonPath"`
	DocsPath             string         `yaml:"docsPath" json:"docsPath"`
	DocsConfig           DocsConfig     `yaml:"docsConfig" json:"docsConfig"`
	OpenAPISpecOverrides map[string]any `yaml:"openApiSpecOverrides,omitempty" json:"openApiSpecOverrides,omitempty"`
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of c with empty fields set to their defaults.
func (c Config) WithDefaults() Config {
	c.OpenAPIJSONPath = orDefault(c.OpenAPIJSONPath, DefaultOpenAPIJSONPath)
	c.DocsPath = orDefault(c.DocsPath, DefaultDocsPath)
	c.DocsConfig.Title = orDefault(c.DocsConfig.Title, DefaultTitle)
	c.DocsConfig.Description = orDefault(c.DocsConfig.Description, DefaultDescription)
	c.DocsConfig.FaviconURL = orDefault(c.DocsConfig.FaviconURL, DefaultFaviconURL)
	c.DocsConfig.LogoURL = orDefault(c.DocsConfig.LogoURL, DefaultLogoURL)
	c.DocsConfig.UI = strings.ToLower(orDefault(c.DocsConfig.UI, UIRedoc))
	return c
}

// Validate reports configuration mistakes that would make the reserved
// paths unusable.
func (c Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.OpenAPIJSONPath, "/") {
		errs = append(errs, fmt.Errorf("openApiJsonPath %q must start with /", c.OpenAPIJSONPath))
	}
	if c.DocsPath != "" && !strings.HasPrefix(c.DocsPath, "/") {
		errs = append(errs, fmt.Errorf("docsPath %q must start with /", c.DocsPath))
	}
	if c.DocsPath != "" && c.DocsPath == c.OpenAPIJSONPath {
		errs = append(errs, fmt.Errorf("docsPath and openApiJsonPath are both %q", c.DocsPath))
	}
	switch c.DocsConfig.UI {
	case "", UIRedoc, UIStoplight, UIScalar, UISwaggerUI:
	default:
		errs = append(errs, fmt.Errorf("unknown docs ui %q", c.DocsConfig.UI))
	}
	return errors.Join(errs...)
}

// Parse decodes a YAML or JSON document and applies defaults.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the YAML or JSON file at path. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
