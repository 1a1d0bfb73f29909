package router

import (
	"net/http"
	"time"

	"github.com/drblury/restweaver/responder"
)

const errMessageTimeout = "Request timed out."

// timeoutMiddleware answers with 503 and the error envelope once d elapses.
func timeoutMiddleware(d time.Duration, resp *responder.Responder) Middleware {
	body, err := resp.ErrorPayload(errMessageTimeout, nil)
	if err != nil {
		body = []byte(`{"message":"` + errMessageTimeout + `"}`)
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, string(body))
	}
}
