// Package negotiate matches request content types against the content types
// declared on a route contract.
package negotiate

import (
	"strings"
)

// DefaultContentType is assumed for requests that carry no Content-Type.
const DefaultContentType = "application/json"

// MediaType is a parsed content type.
type MediaType struct {
	Type   string
	Params map[string]string
}

// Parse splits a content type into its lower-cased base type and parameters.
// Parameters that cannot be parsed as key=value pairs are skipped instead of
// failing the whole value.
func Parse(value string) MediaType {
	parts := strings.Split(value, ";")
	mt := MediaType{Type: strings.ToLower(strings.TrimSpace(parts[0]))}
	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || strings.ContainsAny(key, " \t:\"") {
			continue
		}
		if mt.Params == nil {
			mt.Params = make(map[string]string)
		}
		mt.Params[key] = strings.Trim(strings.TrimSpace(val), `"`)
	}
	return mt
}

// Matches reports whether the actual content type satisfies the declared one.
// Base types compare case-insensitively. Every parameter on the declared type
// must be present on the actual type with the same value; extra parameters on
// the actual type are ignored. An empty declared type matches anything and an
// empty actual type is treated as DefaultContentType.
func Matches(declared, actual string) bool {
	if strings.TrimSpace(declared) == "" {
		return true
	}
	if strings.TrimSpace(actual) == "" {
		actual = DefaultContentType
	}

	want := Parse(declared)
	got := Parse(actual)
	if want.Type != got.Type {
		return false
	}
	for key, val := range want.Params {
		gotVal, ok := got.Params[key]
		if !ok || !paramEqual(key, val, gotVal) {
			return false
		}
	}
	return true
}

// Resolve returns actual or DefaultContentType when actual is empty.
func Resolve(actual string) string {
	if strings.TrimSpace(actual) == "" {
		return DefaultContentType
	}
	return actual
}

// IsJSON reports whether the content type is JSON or a +json structured
// syntax suffix type.
func IsJSON(contentType string) bool {
	base := Parse(contentType).Type
	return base == "application/json" || strings.HasSuffix(base, "+json")
}

// IsForm reports whether the content type is url-encoded form data.
func IsForm(contentType string) bool {
	return Parse(contentType).Type == "application/x-www-form-urlencoded"
}

// IsMultipart reports whether the content type is multipart/form-data.
func IsMultipart(contentType string) bool {
	return Parse(contentType).Type == "multipart/form-data"
}

func paramEqual(key, want, got string) bool {
	if key == "charset" {
		return strings.EqualFold(want, got)
	}
	return want == got
}
