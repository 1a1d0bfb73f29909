package router_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/restweaver/responder"
	"github.com/drblury/restweaver/router"
)

func ExampleWithSpec() {
	doc, err := openapi3.NewLoader().LoadFromData([]byte(`{
  "openapi": "3.0.1",
  "info": {"title": "Todos", "version": "1.0.0"},
  "paths": {
    "/todos": {
      "get": {
        "parameters": [{"name": "limit", "in": "query", "schema": {"type": "integer"}}],
        "responses": {"200": {"description": "OK"}}
      }
    }
  }
}`))
	if err != nil {
		fmt.Println(err)
		return
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := router.New(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "[]")
		}),
		router.WithLogger(logger),
		router.WithResponder(responder.NewResponder(responder.WithLogger(logger))),
		router.WithSpec(doc),
	)

	for _, target := range []string{"/todos?limit=10", "/todos?limit=ten", "/users"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		message, _, _ := strings.Cut(rec.Body.String(), `","errors"`)
		fmt.Println(rec.Code, strings.TrimSpace(message))
	}

	// Output:
	// 200 []
	// 400 {"message":"Invalid request.
	// 404 {"message":"Not found."}
}

func ExampleChain() {
	var records []string
	stage := func(label string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				records = append(records, label)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := router.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		records = append(records, "handler")
	}), stage("recover"), stage("log"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	fmt.Println(records)

	// Output:
	// [recover log handler]
}
