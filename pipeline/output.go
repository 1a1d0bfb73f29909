package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/jsonutil"
	"github.com/drblury/restweaver/negotiate"
)

// normalize turns a handler result into a response. The returned value is
// the decoded body used for the output check, or nil when the body is not
// JSON.
func (p *Pipeline) normalize(result contract.Result) (*Response, any, error) {
	if result == nil {
		return &Response{Status: http.StatusNoContent, Header: http.Header{}}, nil, nil
	}

	if v, ok := contract.ValueOf(result); ok {
		body, err := p.responder.Marshal(v)
		if err != nil {
			return nil, nil, fmt.Errorf("encode handler value: %w", err)
		}
		header := http.Header{"Content-Type": []string{"application/json"}}
		return &Response{Status: http.StatusOK, Header: header, Body: body}, v, nil
	}

	full, ok := result.(*contract.Response)
	if !ok || full == nil {
		return nil, nil, fmt.Errorf("unsupported handler result %T", result)
	}

	status := full.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := full.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	contentType := header.Get("Content-Type")

	switch body := full.Body.(type) {
	case nil:
		return &Response{Status: status, Header: header}, nil, nil
	case []byte:
		if contentType == "" {
			header.Set("Content-Type", "application/octet-stream")
			return &Response{Status: status, Header: header, Body: body}, nil, nil
		}
		return &Response{Status: status, Header: header, Body: body}, decodedJSON(contentType, body), nil
	case string:
		if contentType != "" && !negotiate.IsJSON(contentType) {
			return &Response{Status: status, Header: header, Body: []byte(body)}, nil, nil
		}
	}

	encoded, err := p.responder.Marshal(full.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("encode handler response: %w", err)
	}
	if contentType == "" {
		header.Set("Content-Type", "application/json")
	}
	return &Response{Status: status, Header: header, Body: encoded}, full.Body, nil
}

func decodedJSON(contentType string, body []byte) any {
	if !negotiate.IsJSON(contentType) {
		return nil
	}
	var v any
	if err := jsonutil.Unmarshal(body, &v); err != nil {
		return nil
	}
	return v
}

// checkOutput compares the response with the declared outputs and logs any
// mismatch. It never changes the response.
func (p *Pipeline) checkOutput(ctx context.Context, req *contract.Request, c *contract.MethodContract, resp *Response, value any) {
	if len(c.Output) == 0 {
		return
	}
	raw := rawRequest(req)
	logger := p.Logger().With("method", c.Method.String(), "status", resp.Status)
	if req != nil {
		logger = logger.With("path", req.Path)
	}

	contentType := resp.Header.Get("Content-Type")
	for _, out := range c.OutputFor(resp.Status) {
		if contentType != "" && !negotiate.Matches(out.ContentType, contentType) {
			continue
		}
		if out.Schema == nil || !p.validateOutput || value == nil {
			return
		}
		res := p.outputValidator.Validate(ctx, out.Schema, value)
		if !res.Valid {
			logger.WarnContext(contextOf(raw), "response does not match declared output schema", "errors", res.Errors)
		}
		return
	}

	logger.WarnContext(contextOf(raw), "response is not declared in the route contract", "contentType", contentType)
}
