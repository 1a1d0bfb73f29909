// Package docs serves the generated OpenAPI document and an HTML page that
// renders it, plus liveness and readiness probes.
//
// Four documentation UIs are embedded:
//   - Redoc (default)
//   - Stoplight Elements
//   - Scalar
//   - SwaggerUI
//
// Use WithUIType to select one. The page is rendered once per configuration
// and cached until Configure or Reset is called.
//
// See ExampleHandler for a runnable wiring of the handler and probes.
package docs
