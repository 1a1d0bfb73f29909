package contract

import (
	"context"
	"net/http"
	"net/url"

	"github.com/drblury/restweaver/schema"
)

// InputSpec declares what a method accepts. Nil schemas disable validation
// for that part of the request.
type InputSpec struct {
	ContentType string
	Body        schema.Schema
	Query       schema.Schema
	Headers     schema.Schema
}

// OutputSpec documents one possible response of a method.
type OutputSpec struct {
	Status      int
	ContentType string
	Schema      schema.Schema
	// Description overrides the generated response description.
	Description string
}

// MethodContract is the contract of a single method on a route.
type MethodContract struct {
	Method  Method
	Input   *InputSpec
	Output  []OutputSpec
	Handler HandlerFunc

	OperationID string
	Summary     string
	Description string
	Tags        []string
}

// HandlerFunc serves a request whose input already passed validation.
type HandlerFunc func(ctx context.Context, in *Input) (Result, error)

// Request describes an incoming request independently of net/http.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	Body   []byte
	// Raw is the originating request when served over net/http.
	Raw *http.Request
}

// Input is passed to a handler. Body, Query and Headers hold the validated
// values; parts without a schema carry the decoded request data as is.
type Input struct {
	Body    any
	Query   any
	Headers any
	Request *Request
}

// OutputFor returns the declared outputs for status in declaration order.
func (c *MethodContract) OutputFor(status int) []OutputSpec {
	var matched []OutputSpec
	for _, out := range c.Output {
		if out.Status == status {
			matched = append(matched, out)
		}
	}
	return matched
}
