package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/drblury/restweaver/jsonutil"
	"github.com/drblury/restweaver/negotiate"
)

// decodeBody parses a payload according to its content type. JSON types are
// parsed strictly; form types are decoded into key/value maps; anything else
// is parsed as JSON when it looks like JSON, as form pairs when it looks like
// form data, and kept as a string otherwise.
func decodeBody(contentType string, body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	contentType = negotiate.Resolve(contentType)

	switch {
	case negotiate.IsJSON(contentType):
		return decodeJSON(body)
	case negotiate.IsForm(contentType):
		return decodeForm(body)
	case negotiate.IsMultipart(contentType):
		return decodeMultipart(contentType, body)
	}

	trimmed := bytes.TrimSpace(body)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if v, err := decodeJSON(trimmed); err == nil {
			return v, nil
		}
	}
	if bytes.ContainsRune(trimmed, '=') && !bytes.ContainsAny(trimmed, " \n") {
		if v, err := decodeForm(trimmed); err == nil {
			return v, nil
		}
	}
	return string(body), nil
}

func decodeJSON(body []byte) (any, error) {
	var v any
	if err := jsonutil.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	return v, nil
}

func decodeForm(body []byte) (any, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("malformed form data: %w", err)
	}
	return valuesToMap(values), nil
}

func decodeMultipart(contentType string, body []byte) (any, error) {
	boundary := negotiate.Parse(contentType).Params["boundary"]
	if boundary == "" {
		return nil, errors.New("multipart body without boundary")
	}

	fields := url.Values{}
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed multipart body: %w", err)
		}
		name := part.FormName()
		if name == "" {
			_ = part.Close()
			continue
		}
		if filename := part.FileName(); filename != "" {
			fields.Add(name, filename)
			_ = part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, fmt.Errorf("malformed multipart body: %w", err)
		}
		fields.Add(name, string(data))
	}
	return valuesToMap(fields), nil
}

// valuesToMap turns single values into strings and repeated values into
// lists.
func valuesToMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
			continue
		case 1:
			out[key] = vals[0]
		default:
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			out[key] = list
		}
	}
	return out
}

// headersToMap lower-cases header names and joins repeated values.
func headersToMap(header http.Header) map[string]any {
	out := make(map[string]any, len(header))
	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		vals := header[key]
		if len(vals) == 0 {
			continue
		}
		name := strings.ToLower(key)
		joined := strings.Join(vals, ", ")
		if prev, ok := out[name].(string); ok {
			joined = prev + ", " + joined
		}
		out[name] = joined
	}
	return out
}
