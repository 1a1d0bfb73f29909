package router

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapiMW "github.com/oapi-codegen/nethttp-middleware"

	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/responder"
	"github.com/drblury/restweaver/schema"
)

const errMessageInvalidRequest = "Invalid request."

type validator struct {
	doc     *openapi3.T
	handler http.Handler
}

// validationMiddleware validates requests against the document of source.
// The validator is rebuilt whenever source returns a different document. When
// no document is available requests pass through unvalidated.
func validationMiddleware(source SpecSource, resp *responder.Responder, reserved []string) Middleware {
	skip := cloneStrings(reserved)

	return func(next http.Handler) http.Handler {
		var current atomic.Pointer[validator]

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matchesRoute(r.URL.Path, skip) {
				next.ServeHTTP(w, r)
				return
			}

			doc, err := source.Load(r.Context())
			if err != nil || doc == nil {
				resp.Logger().WarnContext(r.Context(), "openapi validation skipped",
					"path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			v := current.Load()
			if v == nil || v.doc != doc {
				v = &validator{doc: doc, handler: newRequestValidator(doc, resp)(next)}
				current.Store(v)
			}
			v.handler.ServeHTTP(w, r)
		})
	}
}

func newRequestValidator(doc *openapi3.T, resp *responder.Responder) func(http.Handler) http.Handler {
	// Servers are cleared on a copy so the host the framework runs behind is
	// not matched against them.
	swagger := *doc
	swagger.Servers = nil

	opts := &oapiMW.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error {
				return nil
			},
		},
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			var issues []schema.Issue
			if statusCode == http.StatusBadRequest {
				issues = []schema.Issue{{Message: message}}
			}
			resp.RespondWithError(w, nil, statusCode, validationMessage(statusCode), issues, errors.New(message))
		},
	}
	return oapiMW.OapiRequestValidatorWithOptions(&swagger, opts)
}

func validationMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return contract.ErrMessageNotFound
	case http.StatusMethodNotAllowed:
		return contract.ErrMessageMethodNotAllowed
	case http.StatusUnsupportedMediaType:
		return contract.ErrMessageInvalidMediaType
	case http.StatusBadRequest:
		return errMessageInvalidRequest
	default:
		return http.StatusText(status)
	}
}
