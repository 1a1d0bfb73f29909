package responder

import (
	"net/http"

	"github.com/drblury/restweaver/jsonutil"
)

// RespondWithJSON serialises the provided value and writes it to the response
// using the supplied status code.
func (r *Responder) RespondWithJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	r.respondWithJSON(w, status, v, jsonContentType)
}

// Write copies header into the response and writes body with status. When
// the request is a HEAD request the body is omitted.
func (r *Responder) Write(w http.ResponseWriter, req *http.Request, status int, header http.Header, body []byte) {
	if w == nil {
		return
	}
	for key, values := range header {
		w.Header()[key] = append([]string(nil), values...)
	}
	if req != nil && req.Method == http.MethodHead {
		body = nil
	}
	r.writeResponse(w, status, "", body)
}

// Marshal encodes payload the same way RespondWithJSON does.
func (r *Responder) Marshal(payload any) ([]byte, error) {
	return r.marshalPayload(payload)
}

func (r *Responder) respondWithJSON(w http.ResponseWriter, status int, payload any, contentType string) {
	if w == nil {
		return
	}

	body, err := r.marshalPayload(payload)
	if err != nil {
		r.logger().Error("failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	r.writeResponse(w, status, resolveContentType(contentType, jsonContentType), body)
}

func (r *Responder) marshalPayload(payload any) ([]byte, error) {
	data, err := jsonutil.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data, nil
}

func (r *Responder) writeResponse(w http.ResponseWriter, status int, contentType string, body []byte) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	if len(body) == 0 {
		return
	}
	if _, err := w.Write(body); err != nil {
		r.logger().Error("failed to write response", "error", err)
	}
}

func resolveContentType(provided, fallback string) string {
	if provided == "" {
		return fallback
	}
	return provided
}
