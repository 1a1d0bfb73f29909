// Package pipeline runs a route's method contract for a single request.
//
// Every request walks the same steps and stops at the first failure:
//
//  1. resolve the method contract (405 with an Allow header otherwise)
//  2. check the request content type for methods that carry a payload (415)
//  3. decode and validate the body (400 "Invalid request body.")
//  4. validate the query parameters (400 "Invalid query parameters.")
//  5. validate the headers (400 "Invalid request headers.")
//  6. invoke the handler and normalise its result
//  7. turn handler errors and panics into a generic 500
//  8. compare the response with the declared outputs and log mismatches
//
// Step 8 is advisory: the response decided by the handler is always sent.
// Execute works on plain request descriptors; Handler adapts a route to
// net/http.
package pipeline
