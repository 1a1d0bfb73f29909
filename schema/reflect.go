package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

// For derives a schema from the Go type T. Exported non-pointer fields whose
// json tag lacks omitempty are marked required.
func For[T any]() (*OpenAPISchema, error) {
	var zero T
	ref, err := openapi3gen.NewSchemaRefForValue(zero, nil,
		openapi3gen.UseAllExportedFields(),
		openapi3gen.SchemaCustomizer(markRequired),
	)
	if err != nil {
		return nil, fmt.Errorf("schema for %T: %w", zero, err)
	}
	return FromRef(ref), nil
}

// MustFor is like For but panics on error. Intended for package level route
// declarations.
func MustFor[T any]() *OpenAPISchema {
	s, err := For[T]()
	if err != nil {
		panic(err)
	}
	return s
}

func markRequired(_ string, t reflect.Type, _ reflect.StructTag, s *openapi3.Schema) error {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var required []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Type.Kind() == reflect.Ptr {
			continue
		}
		name, omitempty := jsonFieldName(field)
		if name == "-" || omitempty {
			continue
		}
		if _, ok := s.Properties[name]; ok {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		s.Required = required
	}
	return nil
}

func jsonFieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = field.Name
	}
	omitempty := false
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitempty = true
		}
	}
	return name, omitempty
}
