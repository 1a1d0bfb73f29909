package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/pipeline"
	"github.com/drblury/restweaver/responder"
	"github.com/drblury/restweaver/schema"
)

type errorBody struct {
	Message string         `json:"message"`
	Errors  []schema.Issue `json:"errors"`
}

func fooSchema(prop *openapi3.Schema) *schema.OpenAPISchema {
	return schema.Object(map[string]*openapi3.Schema{"foo": prop}, "foo")
}

func newPipeline(logs *bytes.Buffer) *pipeline.Pipeline {
	return pipeline.New(pipeline.WithLogger(slog.New(slog.NewJSONHandler(logs, nil))))
}

func decodeError(t *testing.T, resp *pipeline.Response) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(resp.Body, &body), "body: %s", resp.Body)
	return body
}

func jsonRequest(method string, body string) *contract.Request {
	return &contract.Request{
		Method: method,
		Path:   "/api",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(body),
	}
}

func TestExecute_AllMethods(t *testing.T) {
	t.Parallel()

	output := []contract.OutputSpec{{
		Status:      http.StatusOK,
		ContentType: "application/json",
		Schema:      schema.ArrayOf(openapi3.NewStringSchema()),
	}}
	handler := func(context.Context, *contract.Input) (contract.Result, error) {
		return contract.Value([]string{"All good!"}), nil
	}

	var contracts []contract.MethodContract
	for _, m := range contract.Methods {
		contracts = append(contracts, contract.MethodContract{Method: m, Output: output, Handler: handler})
	}
	route := contract.MustRoute("/api", contracts...)

	for _, m := range contract.Methods {
		t.Run(m.String(), func(t *testing.T) {
			t.Parallel()
			var logs bytes.Buffer
			resp := newPipeline(&logs).Execute(context.Background(), route, &contract.Request{Method: m.String(), Path: "/api"})

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, `["All good!"]`, string(resp.Body))
			assert.NotContains(t, logs.String(), "does not match")
		})
	}
}

func TestExecute_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, *contract.Input) (contract.Result, error) { return nil, nil }
	route := contract.MustRoute("/api",
		contract.MethodContract{Method: contract.GET, Handler: noop},
		contract.MethodContract{Method: contract.DELETE, Handler: noop},
	)

	for _, method := range []string{http.MethodPost, "TRACE", "get", "Delete"} {
		var logs bytes.Buffer
		resp := newPipeline(&logs).Execute(context.Background(), route, &contract.Request{Method: method})

		assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
		assert.Equal(t, "GET, DELETE", resp.Header.Get("Allow"))
		assert.JSONEq(t, `{"message":"Method not allowed."}`, string(resp.Body))
	}
}

func TestExecute_InvalidBody(t *testing.T) {
	t.Parallel()

	s := fooSchema(openapi3.NewFloat64Schema())
	called := false
	route := contract.MustRoute("/api", contract.MethodContract{
		Method:  contract.POST,
		Input:   &contract.InputSpec{ContentType: "application/json", Body: s},
		Handler: func(context.Context, *contract.Input) (contract.Result, error) { called = true; return nil, nil },
	})

	var logs bytes.Buffer
	resp := newPipeline(&logs).Execute(context.Background(), route, jsonRequest(http.MethodPost, `{"foo":"bar"}`))

	require.Equal(t, http.StatusBadRequest, resp.Status)
	body := decodeError(t, resp)
	assert.Equal(t, contract.ErrMessageInvalidBody, body.Message)

	expected := schema.NewValidator().Validate(context.Background(), s, map[string]any{"foo": "bar"})
	assert.Equal(t, expected.Errors, body.Errors)
	assert.False(t, called)
	assert.Contains(t, logs.String(), "request rejected")
}

func TestExecute_MalformedJSON(t *testing.T) {
	t.Parallel()

	route := contract.MustRoute("/api", contract.MethodContract{
		Method:  contract.POST,
		Input:   &contract.InputSpec{ContentType: "application/json", Body: fooSchema(openapi3.NewStringSchema())},
		Handler: func(context.Context, *contract.Input) (contract.Result, error) { return nil, nil },
	})

	var logs bytes.Buffer
	resp := newPipeline(&logs).Execute(context.Background(), route, jsonRequest(http.MethodPost, `{"foo":`))

	require.Equal(t, http.StatusBadRequest, resp.Status)
	body := decodeError(t, resp)
	assert.Equal(t, contract.ErrMessageInvalidBody, body.Message)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0].Message, "malformed JSON")
}

func TestExecute_InvalidQuery(t *testing.T) {
	t.Parallel()

	s := fooSchema(openapi3.NewFloat64Schema())
	route := contract.MustRoute("/api", contract.MethodContract{
		Method:  contract.POST,
		Input:   &contract.InputSpec{ContentType: "application/json", Query: s},
		Handler: func(context.Context, *contract.Input) (contract.Result, error) { return nil, nil },
	})

	req := jsonRequest(http.MethodPost, "")
	req.Query = url.Values{"foo": {"bar"}}

	var logs bytes.Buffer
	resp := newPipeline(&logs).Execute(context.Background(), route, req)

	require.Equal(t, http.StatusBadRequest, resp.Status)
	body := decodeError(t, resp)
	assert.Equal(t, contract.ErrMessageInvalidQuery, body.Message)
	expected := schema.NewValidator().Validate(context.Background(), s, map[string]any{"foo": "bar"})
	assert.Equal(t, expected.Errors, body.Errors)
}

func TestExecute_InvalidHeaders(t *testing.T) {
	t.Parallel()

	s := schema.Object(map[string]*openapi3.Schema{
		"x-api-version": openapi3.NewStringSchema().WithEnum("1", "2"),
	}, "x-api-version")
	var seen any
	route := contract.MustRoute("/api", contract.MethodContract{
		Method: contract.GET,
		Input:  &contract.InputSpec{Headers: s},
		Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
			seen = in.Headers
			return contract.Value("ok"), nil
		},
	})

	var logs bytes.Buffer
	p := newPipeline(&logs)

	resp := p.Execute(context.Background(), route, &contract.Request{Method: http.MethodGet, Header: http.Header{"X-Api-Version": {"3"}}})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, contract.ErrMessageInvalidHeaders, decodeError(t, resp).Message)

	resp = p.Execute(context.Background(), route, &contract.Request{Method: http.MethodGet, Header: http.Header{"X-Api-Version": {"2"}}})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]any{"x-api-version": "2"}, seen)
}

func TestExecute_InvalidMediaType(t *testing.T) {
	t.Parallel()

	route := contract.MustRoute("/api", contract.MethodContract{
		Method:  contract.POST,
		Input:   &contract.InputSpec{ContentType: "application/json", Body: schema.New(openapi3.NewStringSchema())},
		Handler: func(context.Context, *contract.Input) (contract.Result, error) { return nil, nil },
	})

	req := jsonRequest(http.MethodPost, `{"foo":"bar"}`)
	req.Header.Set("Content-Type", "application/xml")

	var logs bytes.Buffer
	resp := newPipeline(&logs).Execute(context.Background(), route, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Status)
	assert.JSONEq(t, `{"message":"Invalid media type."}`, string(resp.Body))
}

func TestExecute_ContentTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		declared string
		actual   string
	}{
		{declared: "application/json", actual: "application/json"},
		{declared: "application/json", actual: "application/json; charset=utf-8"},
		{declared: "application/json", actual: ""},
		{declared: "application/form-data", actual: `application/form-data; name: "foo"`},
	}

	for _, tc := range tests {
		t.Run(tc.declared+"|"+tc.actual, func(t *testing.T) {
			t.Parallel()
			route := contract.MustRoute("/api", contract.MethodContract{
				Method: contract.POST,
				Input: &contract.InputSpec{
					ContentType: tc.declared,
					Body:        fooSchema(openapi3.NewStringSchema()),
				},
				Output: []contract.OutputSpec{{
					Status:      http.StatusCreated,
					ContentType: "application/json",
					Schema:      fooSchema(openapi3.NewStringSchema()),
				}},
				Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
					return contract.JSON(http.StatusOK, in.Body), nil
				},
			})

			req := &contract.Request{Method: http.MethodPost, Header: http.Header{}, Body: []byte(`{"foo":"bar"}`)}
			if tc.actual != "" {
				req.Header.Set("Content-Type", tc.actual)
			}

			var logs bytes.Buffer
			resp := newPipeline(&logs).Execute(context.Background(), route, req)

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.JSONEq(t, `{"foo":"bar"}`, string(resp.Body))
			assert.Contains(t, logs.String(), "response is not declared in the route contract")
		})
	}
}

func TestExecute_FormBodies(t *testing.T) {
	t.Parallel()

	var seen any
	route := contract.MustRoute("/api", contract.MethodContract{
		Method: contract.POST,
		Input: &contract.InputSpec{
			ContentType: "application/x-www-form-urlencoded",
			Body:        fooSchema(openapi3.NewStringSchema()),
		},
		Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
			seen = in.Body
			return contract.NoContent(), nil
		},
	})

	req := &contract.Request{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": {"application/x-www-form-urlencoded"}},
		Body:   []byte("foo=bar"),
	}

	var logs bytes.Buffer
	resp := newPipeline(&logs).Execute(context.Background(), route, req)

	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Empty(t, resp.Body)
	assert.Equal(t, map[string]any{"foo": "bar"}, seen)
}

func TestExecute_MultipartBodies(t *testing.T) {
	t.Parallel()

	var seen any
	route := contract.MustRoute("/upload", contract.MethodContract{
		Method: contract.POST,
		Input: &contract.InputSpec{
			ContentType: "multipart/form-data",
			Body:        fooSchema(openapi3.NewStringSchema()),
		},
		Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
			seen = in.Body
			return contract.Created(nil), nil
		},
	})

	body := "--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"foo\"\r\n\r\n" +
		"bar\r\n" +
		"--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"hello\r\n" +
		"--XYZ--\r\n"
	req := &contract.Request{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": {"multipart/form-data; boundary=XYZ"}},
		Body:   []byte(body),
	}

	var logs bytes.Buffer
	resp := newPipeline(&logs).Execute(context.Background(), route, req)

	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.JSONEq(t, `{"message":"Created"}`, string(resp.Body))
	assert.Equal(t, map[string]any{"foo": "bar", "file": "a.txt"}, seen)
}

func TestExecute_HandlerFaults(t *testing.T) {
	t.Parallel()

	tests := map[string]contract.HandlerFunc{
		"returned error": func(context.Context, *contract.Input) (contract.Result, error) {
			return nil, errors.New("Something went wrong")
		},
		"panic with error": func(context.Context, *contract.Input) (contract.Result, error) {
			panic(errors.New("Something went wrong"))
		},
		"panic with value": func(context.Context, *contract.Input) (contract.Result, error) {
			panic(map[string]int{"weird": 1})
		},
		"unencodable value": func(context.Context, *contract.Input) (contract.Result, error) {
			return contract.Value(make(chan int)), nil
		},
	}

	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			route := contract.MustRoute("/api", contract.MethodContract{Method: contract.GET, Handler: handler})

			var logs bytes.Buffer
			resp := newPipeline(&logs).Execute(context.Background(), route, &contract.Request{Method: http.MethodGet})

			assert.Equal(t, http.StatusInternalServerError, resp.Status)
			assert.JSONEq(t, `{"message":"An unknown error occurred, trying again might help."}`, string(resp.Body))
			traceID := resp.Header.Get(responder.TraceHeader)
			assert.NotEmpty(t, traceID)
			assert.Contains(t, logs.String(), traceID)
			assert.Contains(t, logs.String(), `"level":"ERROR"`)
		})
	}
}

func TestExecute_OutputCheckIsAdvisory(t *testing.T) {
	t.Parallel()

	route := contract.MustRoute("/api", contract.MethodContract{
		Method: contract.GET,
		Output: []contract.OutputSpec{{
			Status:      http.StatusOK,
			ContentType: "application/json",
			Schema:      schema.ArrayOf(openapi3.NewStringSchema()),
		}},
		Handler: func(context.Context, *contract.Input) (contract.Result, error) {
			return contract.Value([]int{1, 2}), nil
		},
	})

	var logs bytes.Buffer
	resp := newPipeline(&logs).Execute(context.Background(), route, &contract.Request{Method: http.MethodGet})

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `[1,2]`, string(resp.Body))
	assert.Contains(t, logs.String(), "response does not match declared output schema")

	logs.Reset()
	quiet := pipeline.New(
		pipeline.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
		pipeline.WithoutOutputValidation(),
	)
	resp = quiet.Execute(context.Background(), route, &contract.Request{Method: http.MethodGet})
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.NotContains(t, logs.String(), "does not match")
}

func TestExecute_RawResponses(t *testing.T) {
	t.Parallel()

	route := contract.MustRoute("/api", contract.MethodContract{
		Method: contract.GET,
		Handler: func(context.Context, *contract.Input) (contract.Result, error) {
			return &contract.Response{
				Status: http.StatusAccepted,
				Header: http.Header{"Content-Type": {"text/plain"}, "X-Custom": {"1"}},
				Body:   "plain text",
			}, nil
		},
	})

	var logs bytes.Buffer
	resp := newPipeline(&logs).Execute(context.Background(), route, &contract.Request{Method: http.MethodGet})

	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Equal(t, "plain text", string(resp.Body))
	assert.Equal(t, "1", resp.Header.Get("X-Custom"))
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
}

func TestHandler_ServesOverHTTP(t *testing.T) {
	t.Parallel()

	route := contract.MustRoute("/todos", contract.MethodContract{
		Method: contract.POST,
		Input:  &contract.InputSpec{ContentType: "application/json", Body: fooSchema(openapi3.NewStringSchema())},
		Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
			assert.NotNil(t, in.Request.Raw)
			return contract.Created(in.Body), nil
		},
	}, contract.MethodContract{
		Method: contract.HEAD,
		Handler: func(context.Context, *contract.Input) (contract.Result, error) {
			return contract.Value("hidden"), nil
		},
	})

	var logs bytes.Buffer
	h := newPipeline(&logs).Handler(route)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"foo":"bar"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"foo":"bar"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, "/todos", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, rr.Body.Len())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/todos", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST, HEAD", rr.Header().Get("Allow"))
}

func TestHandler_BodyTooLarge(t *testing.T) {
	t.Parallel()

	route := contract.MustRoute("/todos", contract.MethodContract{
		Method:  contract.POST,
		Handler: func(context.Context, *contract.Input) (contract.Result, error) { return nil, nil },
	})

	var logs bytes.Buffer
	p := pipeline.New(pipeline.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))), pipeline.WithMaxBodyBytes(4))

	rr := httptest.NewRecorder()
	p.Handler(route).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"foo":"bar"}`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), contract.ErrMessageInvalidBody)
}

func TestResolvingHandler_NotFound(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	h := newPipeline(&logs).ResolvingHandler(func(*http.Request) (*contract.Route, bool) { return nil, false })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"Not found."}`, rr.Body.String())
}

func TestKind(t *testing.T) {
	t.Parallel()

	err := &pipeline.Error{Kind: pipeline.KindHandlerFault, Cause: errors.New("boom")}
	assert.Equal(t, http.StatusInternalServerError, err.Status())
	assert.ErrorContains(t, err, "HandlerFault: boom")
	assert.Equal(t, http.StatusBadRequest, pipeline.KindInvalidQuery.Status())
	assert.Equal(t, contract.ErrMessageInvalidHeaders, pipeline.KindInvalidHeaders.Message())

	inner := errors.New("inner")
	assert.ErrorIs(t, &pipeline.PanicError{Value: inner}, inner)
}
