package spec

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/drblury/restweaver/contract"
)

var pathParamPattern = regexp.MustCompile(`\{([^{}]+)\}`)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// OperationID returns the default operationId for method on path, e.g.
// "getTodosId" for GET /todos/{id}.
func OperationID(method contract.Method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method.String()))
	for _, word := range pathWords(path) {
		b.WriteString(titleCaser.String(word))
	}
	return b.String()
}

func pathWords(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// PathParams returns the names of the templated segments of path in order of
// appearance. Catch-all markers ("{path...}") are stripped.
func PathParams(path string) []string {
	matches := pathParamPattern.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimSpace(m[1]), "...")
		if name == "" || name == "$" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// OpenAPIPath rewrites catch-all segments into plain templates so the path is
// a valid OpenAPI path key.
func OpenAPIPath(path string) string {
	return pathParamPattern.ReplaceAllStringFunc(path, func(seg string) string {
		name := strings.TrimSuffix(strings.TrimSpace(seg[1:len(seg)-1]), "...")
		if name == "$" || name == "" {
			return ""
		}
		return "{" + name + "}"
	})
}
