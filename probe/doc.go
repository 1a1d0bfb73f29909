// Package probe turns ping functions, MongoDB clients and OpenAPI document
// sources into liveness and readiness checks for the docs handler.
// See ExampleNewPingProbe and ExampleNewDocumentProbe.
package probe
