// Package contract declares per-method route contracts: the accepted input
// (content type plus optional body, query and header schemas), the documented
// outputs, and the handler that serves the method. Routes are collected in a
// Registry that the document builder reads when it derives the OpenAPI
// document.
package contract
