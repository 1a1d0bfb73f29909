// Package spec derives an OpenAPI 3.0.1 document from registered route
// contracts.
//
// The Builder walks every route known to a contract.Lister, emits one
// operation per declared method in canonical method order, deep-merges user
// overrides on top and validates the result with the kin-openapi loader. The
// encoded document is cached in memory and persisted to a Store so that
// repeated builds with an unchanged route set are skipped and produce the same
// bytes.
package spec
