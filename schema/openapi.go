package schema

import (
	"context"
	"errors"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/restweaver/jsonutil"
)

// OpenAPISchema is a Schema backed by a kin-openapi schema.
type OpenAPISchema struct {
	ref *openapi3.SchemaRef
}

// New wraps a kin-openapi schema.
func New(s *openapi3.Schema) *OpenAPISchema {
	if s == nil {
		return nil
	}
	return &OpenAPISchema{ref: openapi3.NewSchemaRef("", s)}
}

// FromRef wraps a kin-openapi schema reference.
func FromRef(ref *openapi3.SchemaRef) *OpenAPISchema {
	if ref == nil {
		return nil
	}
	return &OpenAPISchema{ref: ref}
}

// OpenAPI implements Schema.
func (s *OpenAPISchema) OpenAPI() *openapi3.SchemaRef {
	if s == nil {
		return nil
	}
	return s.ref
}

// Object builds an object schema from the given properties. Names listed in
// required must be present.
func Object(properties map[string]*openapi3.Schema, required ...string) *OpenAPISchema {
	obj := openapi3.NewObjectSchema()
	for name, prop := range properties {
		obj.WithProperty(name, prop)
	}
	if len(required) > 0 {
		obj.Required = append([]string(nil), required...)
	}
	return New(obj)
}

// ArrayOf builds an array schema whose items match item.
func ArrayOf(item *openapi3.Schema) *OpenAPISchema {
	return New(openapi3.NewArraySchema().WithItems(item))
}

// KinValidator validates values with kin-openapi's schema visitor. All
// failures are collected rather than stopping at the first one.
type KinValidator struct {
	response bool
}

// ValidatorOption configures a KinValidator.
type ValidatorOption func(*KinValidator)

// WithResponseMode validates values as responses, so readOnly properties are
// accepted and writeOnly properties are rejected.
func WithResponseMode() ValidatorOption {
	return func(v *KinValidator) {
		v.response = true
	}
}

// NewValidator returns a Validator backed by kin-openapi.
func NewValidator(opts ...ValidatorOption) *KinValidator {
	v := &KinValidator{}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate implements Validator. A nil schema accepts every value.
func (v *KinValidator) Validate(_ context.Context, s Schema, value any) Result {
	if s == nil {
		return Valid(value)
	}
	ref := s.OpenAPI()
	if ref == nil || ref.Value == nil {
		return Valid(value)
	}

	normalized, err := jsonutil.Normalize(value)
	if err != nil {
		return Invalid(Issue{Message: err.Error()})
	}

	opts := []openapi3.SchemaValidationOption{
		openapi3.MultiErrors(),
		openapi3.DefaultsSet(func() {}),
	}
	if v.response {
		opts = append(opts, openapi3.VisitAsResponse())
	} else {
		opts = append(opts, openapi3.VisitAsRequest())
	}

	if err := ref.Value.VisitJSON(normalized, opts...); err != nil {
		return Invalid(issuesFromError(err)...)
	}
	return Valid(normalized)
}

func issuesFromError(err error) []Issue {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		issues := make([]Issue, 0, len(multi))
		for _, inner := range multi {
			issues = append(issues, issuesFromError(inner)...)
		}
		return issues
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		msg := schemaErr.Reason
		if msg == "" {
			msg = schemaErr.Error()
		}
		return []Issue{{Path: jsonPointer(schemaErr.JSONPointer()), Message: msg}}
	}

	return []Issue{{Message: err.Error()}}
}

func jsonPointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, token := range tokens {
		b.WriteByte('/')
		token = strings.ReplaceAll(token, "~", "~0")
		b.WriteString(strings.ReplaceAll(token, "/", "~1"))
	}
	return b.String()
}
