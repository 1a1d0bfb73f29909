package docs

import (
	"fmt"
	"net/http"
)

// ServeHTML writes the documentation page.
func (h *Handler) ServeHTML(w http.ResponseWriter, r *http.Request) {
	var (
		page []byte
		err  error
	)
	if h.dataProvider != nil {
		page, err = h.render(h.dataProvider(r, h.Data()))
	} else {
		page, err = h.Render()
	}
	if err != nil {
		h.HandleFault(w, r, fmt.Errorf("render docs page: %w", err))
		return
	}

	header := http.Header{"Content-Type": []string{"text/html; charset=utf-8"}}
	h.Write(w, r, http.StatusOK, header, page)
}

// ServeSpec writes the OpenAPI document.
func (h *Handler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	data, err := h.specProvider(r.Context())
	if err != nil {
		h.HandleFault(w, r, fmt.Errorf("load openapi spec: %w", err))
		return
	}

	header := http.Header{"Content-Type": []string{"application/json"}}
	h.Write(w, r, http.StatusOK, header, data)
}

// GetStatus returns a static health payload.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondProbe(w, r, http.StatusOK, "HEALTHY")
}

// GetHealthz runs the liveness checks.
func (h *Handler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.runChecks(r.Context(), h.livenessChecks); err != nil {
		h.RespondWithError(w, r, http.StatusServiceUnavailable, "Liveness probe failed.", nil, err)
		return
	}
	h.respondProbe(w, r, http.StatusOK, "ok")
}

// GetReadyz runs the readiness checks.
func (h *Handler) GetReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.runChecks(r.Context(), h.readinessChecks); err != nil {
		h.RespondWithError(w, r, http.StatusServiceUnavailable, "Readiness probe failed.", nil, err)
		return
	}
	h.respondProbe(w, r, http.StatusOK, "ready")
}
