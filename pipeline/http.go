package pipeline

import (
	"errors"
	"io"
	"net/http"

	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/schema"
)

// RouteResolver returns the route currently serving a request.
type RouteResolver func(r *http.Request) (*contract.Route, bool)

// Handler returns an http.Handler that serves route.
func (p *Pipeline) Handler(route *contract.Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.ServeRoute(w, r, route)
	})
}

// ResolvingHandler returns an http.Handler that looks the route up for every
// request, so routes registered later are picked up. Unknown routes answer
// 404.
func (p *Pipeline) ResolvingHandler(resolve RouteResolver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := resolve(r)
		if !ok || route == nil {
			p.responder.RespondWithError(w, r, http.StatusNotFound, contract.ErrMessageNotFound, nil, nil)
			return
		}
		p.ServeRoute(w, r, route)
	})
}

// ServeRoute executes route for r and writes the response.
func (p *Pipeline) ServeRoute(w http.ResponseWriter, r *http.Request, route *contract.Route) {
	body, err := p.readBody(w, r)
	if err != nil {
		issues := []schema.Issue{{Message: err.Error()}}
		p.responder.RespondWithError(w, r, http.StatusBadRequest, contract.ErrMessageInvalidBody, issues, err)
		return
	}

	req := &contract.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
		Query:  r.URL.Query(),
		Body:   body,
		Raw:    r,
	}

	resp := p.Execute(r.Context(), route, req)
	p.responder.Write(w, r, resp.Status, resp.Header, resp.Body)
}

func (p *Pipeline) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, p.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.New("request body too large")
		}
		return nil, err
	}
	return body, nil
}
