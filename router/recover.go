package router

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/drblury/restweaver/responder"
)

// recoverMiddleware answers panics with the generic 500 error body. The panic
// value and stack are logged under the trace id sent to the caller.
func recoverMiddleware(resp *responder.Responder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				resp.HandleFault(w, r, fmt.Errorf("panic: %v\n%s", rec, debug.Stack()))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
