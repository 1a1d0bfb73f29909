// Package schema adapts schema engines to a single validation capability.
//
// A Schema describes an expected data shape and can render itself as an
// OpenAPI 3.0 schema. A Validator checks a value against a Schema and reports
// a Result whose Issues have the same shape regardless of the engine that
// produced them. The pipeline and the document builder only depend on
// these two interfaces.
package schema

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
)

// Schema is a declarative description of an expected data shape.
type Schema interface {
	// OpenAPI returns the schema in the OpenAPI 3.0 dialect used by the
	// document builder.
	OpenAPI() *openapi3.SchemaRef
}

// Issue is a single normalised validation failure.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the outcome of validating a value against a Schema. Value holds
// the parsed value (with defaults applied) when validation succeeds.
type Result struct {
	Valid  bool
	Errors []Issue
	Value  any
}

// Validator checks values against schemas.
type Validator interface {
	Validate(ctx context.Context, s Schema, value any) Result
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, s Schema, value any) Result

// Validate calls f(ctx, s, value).
func (f ValidatorFunc) Validate(ctx context.Context, s Schema, value any) Result {
	return f(ctx, s, value)
}

// Valid returns a successful Result carrying value.
func Valid(value any) Result {
	return Result{Valid: true, Value: value}
}

// Invalid returns a failed Result carrying the supplied issues.
func Invalid(issues ...Issue) Result {
	return Result{Valid: false, Errors: issues}
}
