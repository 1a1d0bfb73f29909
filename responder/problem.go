package responder

import (
	"net/http"

	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/schema"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Message string         `json:"message"`
	Errors  []schema.Issue `json:"errors,omitempty"`
}

// RespondWithError writes an ErrorBody with the given status. The cause is
// only logged, never sent to the caller.
func (r *Responder) RespondWithError(w http.ResponseWriter, req *http.Request, status int, message string, issues []schema.Issue, cause error) {
	meta := r.statusMetaFor(status)
	attrs := []any{"status", status, "message", message}
	if len(issues) > 0 {
		attrs = append(attrs, "errors", issues)
	}
	if cause != nil {
		attrs = append(attrs, "error", cause.Error())
	}
	if inst := requestInstance(req); inst != "" {
		attrs = append(attrs, "instance", inst)
	}
	r.logger().Log(requestContext(req), meta.logLevel, meta.logMsg, attrs...)

	r.respondWithJSON(w, status, ErrorBody{Message: message, Errors: issues}, jsonContentType)
}

// HandleFault logs err under a fresh trace id and answers with the generic
// 500 message. The trace id is echoed in the TraceHeader response header.
func (r *Responder) HandleFault(w http.ResponseWriter, req *http.Request, err error) string {
	traceID := r.LogFault(req, err)
	if w != nil {
		w.Header().Set(TraceHeader, traceID)
	}
	r.respondWithJSON(w, http.StatusInternalServerError, ErrorBody{Message: contract.ErrMessageUnexpected}, jsonContentType)
	return traceID
}

// LogFault logs err at the level configured for 500 responses and returns the
// trace id it was logged with.
func (r *Responder) LogFault(req *http.Request, err error) string {
	traceID := NewTraceID()
	meta := r.statusMetaFor(http.StatusInternalServerError)
	attrs := []any{"traceId", traceID}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	if inst := requestInstance(req); inst != "" {
		attrs = append(attrs, "instance", inst)
	}
	r.logger().Log(requestContext(req), meta.logLevel, meta.logMsg, attrs...)
	return traceID
}

// ErrorPayload returns the encoded ErrorBody for message.
func (r *Responder) ErrorPayload(message string, issues []schema.Issue) ([]byte, error) {
	return r.marshalPayload(ErrorBody{Message: message, Errors: issues})
}
