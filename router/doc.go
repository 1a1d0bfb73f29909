// Package router puts the HTTP surface of a restweaver Framework behind a
// middleware chain: panic recovery, request ids with access logs, OpenAPI
// request validation, CORS and timeouts. Validation follows a SpecSource, so a
// regenerated document is picked up without rebuilding the router.
package router
