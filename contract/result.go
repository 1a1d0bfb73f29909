package contract

import "net/http"

// Result is what a handler returns: either a bare value (Value) or a full
// response (*Response).
type Result interface {
	result()
}

type valueResult struct {
	value any
}

func (valueResult) result() {}

// Value wraps a bare value. The pipeline answers with 200 and the JSON
// encoding of v.
func Value(v any) Result {
	return valueResult{value: v}
}

// ValueOf returns the wrapped value when r was produced by Value.
func ValueOf(r Result) (any, bool) {
	v, ok := r.(valueResult)
	if !ok {
		return nil, false
	}
	return v.value, true
}

// Response is a fully specified handler response. Body is JSON encoded unless
// it is a []byte or string and Header carries a non-JSON Content-Type.
type Response struct {
	Status int
	Header http.Header
	Body   any
}

func (*Response) result() {}

// JSON returns a JSON response with the given status.
func JSON(status int, body any) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}
}

// Created returns a 201 response. A nil body is replaced with the default
// created message.
func Created(body any) *Response {
	if body == nil {
		body = map[string]string{"message": MessageCreated}
	}
	return JSON(http.StatusCreated, body)
}

// NoContent returns an empty 204 response.
func NoContent() *Response {
	return &Response{Status: http.StatusNoContent, Header: http.Header{}}
}

// Raw returns a response whose body is written verbatim.
func Raw(status int, contentType string, body []byte) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   body,
	}
}
