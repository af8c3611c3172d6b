package dispatch

import (
	"bytes"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/stijnvanbael/redstone/binder"
)

// ParsedBody is the result of parsing a request body once.
type ParsedBody struct {
	Value     any
	Kind      binder.BodyKind
	Multipart bool
}

// BodyParser turns raw body bytes into a typed body value. It is invoked
// lazily, at most once per request; the context memoizes the result.
type BodyParser interface {
	Parse(header http.Header, body []byte) (*ParsedBody, error)
}

// defaultBodyParser detects the body kind from the Content-Type header.
type defaultBodyParser struct{}

func (defaultBodyParser) Parse(header http.Header, body []byte) (*ParsedBody, error) {
	if len(body) == 0 {
		return &ParsedBody{Kind: binder.BodyNone}, nil
	}

	contentType := header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return &ParsedBody{Value: v, Kind: binder.BodyJSON}, nil

	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		return &ParsedBody{Value: formMap(values), Kind: binder.BodyForm}, nil

	case mediaType == "multipart/form-data":
		v, err := parseMultipart(body, params["boundary"])
		if err != nil {
			return nil, err
		}
		return &ParsedBody{Value: v, Kind: binder.BodyForm, Multipart: true}, nil

	case strings.HasPrefix(mediaType, "text/"):
		return &ParsedBody{Value: string(body), Kind: binder.BodyText}, nil

	default:
		return &ParsedBody{Value: body, Kind: binder.BodyBinary}, nil
	}
}

// formMap flattens url.Values into a generic mapping. Repeated keys keep all
// of their values.
func formMap(values url.Values) map[string]any {
	m := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			m[k] = v[0]
		} else {
			m[k] = v
		}
	}
	return m
}

func parseMultipart(body []byte, boundary string) (map[string]any, error) {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(form.Value)+len(form.File))
	for k, v := range form.Value {
		if len(v) == 1 {
			m[k] = v[0]
		} else {
			m[k] = v
		}
	}
	for k, files := range form.File {
		if len(files) == 1 {
			m[k] = files[0]
		} else {
			m[k] = files
		}
	}
	return m, nil
}
