package dispatch

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/stijnvanbael/redstone/binder"
	"github.com/stijnvanbael/redstone/response"
)

// SessionStore loads the session associated with a request. The dispatch core
// never persists sessions itself; it only exposes what the collaborator
// returns.
type SessionStore interface {
	Load(r *http.Request) (map[string]any, error)
}

// Ctx is the per-request context. Exactly one Ctx exists per in-flight
// request; it is created at dispatch entry, owned exclusively by that
// request's chain, and discarded once the response is written. It is
// reachable from anywhere inside the request's call tree via FromContext.
type Ctx struct {
	request  *http.Request
	response ResponseWriter
	stdCtx   context.Context

	pathParams map[string]string
	query      url.Values
	attributes map[string]any

	sessions      SessionStore
	session       map[string]any
	sessionLoaded bool

	bodyParser BodyParser
	rawBody    []byte
	bodyRead   bool
	body       *ParsedBody
	bodyErr    error

	value       response.Value
	contentType string
	statusCode  int
	frozen      bool

	err         error
	chain       *Chain
	lateFailure bool
	completions []func()
}

func newCtx(r *http.Request, w ResponseWriter, parser BodyParser, sessions SessionStore) *Ctx {
	if parser == nil {
		parser = defaultBodyParser{}
	}
	return &Ctx{
		request:    r,
		response:   w,
		pathParams: map[string]string{},
		attributes: map[string]any{},
		bodyParser: parser,
		sessions:   sessions,
	}
}

// Request returns the incoming HTTP request.
func (c *Ctx) Request() *http.Request {
	return c.request
}

// Response returns the response writer for the request.
func (c *Ctx) Response() ResponseWriter {
	return c.response
}

// Context returns the ambient context for the request. Every element of the
// chain receives it, and it carries the Ctx itself for FromContext lookups.
func (c *Ctx) Context() context.Context {
	if c.stdCtx != nil {
		return c.stdCtx
	}
	return context.Background()
}

// Method returns the request method.
func (c *Ctx) Method() string {
	return c.request.Method
}

// Path returns the request URL path.
func (c *Ctx) Path() string {
	return c.request.URL.Path
}

// PathParam returns a matched path variable by name.
func (c *Ctx) PathParam(name string) string {
	return c.pathParams[name]
}

// PathParams returns all matched path variables.
func (c *Ctx) PathParams() map[string]string {
	return c.pathParams
}

// QueryParam returns a URL query value by name.
func (c *Ctx) QueryParam(name string) string {
	if c.query == nil {
		c.query = c.request.URL.Query()
	}
	return c.query.Get(name)
}

// Header returns a request header value by name.
func (c *Ctx) Header(name string) string {
	return c.request.Header.Get(name)
}

// Attribute returns a request attribute set earlier in the chain.
func (c *Ctx) Attribute(name string) any {
	return c.attributes[name]
}

// SetAttribute stores a request attribute for later chain elements.
func (c *Ctx) SetAttribute(name string, value any) {
	c.attributes[name] = value
}

// Session returns the request session, loading it from the session
// collaborator on first use. Without a configured store the session is an
// empty mapping.
func (c *Ctx) Session() (map[string]any, error) {
	if c.sessionLoaded {
		return c.session, nil
	}
	c.sessionLoaded = true
	if c.sessions == nil {
		c.session = map[string]any{}
		return c.session, nil
	}
	session, err := c.sessions.Load(c.request)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = map[string]any{}
	}
	c.session = session
	return c.session, nil
}

// RawBody reads and memoizes the raw request body.
func (c *Ctx) RawBody() ([]byte, error) {
	if c.bodyRead {
		return c.rawBody, nil
	}
	c.bodyRead = true
	if c.request.Body == nil {
		return nil, nil
	}
	defer c.request.Body.Close()
	raw, err := io.ReadAll(c.request.Body)
	if err != nil {
		return nil, err
	}
	c.rawBody = raw
	return raw, nil
}

// Body returns the parsed request body and its detected kind. Parsing runs
// at most once; subsequent reads return the memoized result.
func (c *Ctx) Body() (any, binder.BodyKind, error) {
	if c.body == nil && c.bodyErr == nil {
		raw, err := c.RawBody()
		if err != nil {
			c.bodyErr = err
		} else {
			c.body, c.bodyErr = c.bodyParser.Parse(c.request.Header, raw)
		}
	}
	if c.bodyErr != nil {
		return nil, binder.BodyNone, c.bodyErr
	}
	return c.body.Value, c.body.Kind, nil
}

// Multipart reports whether the parsed body was a multipart form.
func (c *Ctx) Multipart() bool {
	if _, _, err := c.Body(); err != nil {
		return false
	}
	return c.body.Multipart
}

// SetResponse sets the in-progress response value. Once an explicit interrupt
// value has been recorded, later writes are ignored: the interrupt value
// wins over anything a still-running continuation tries to set.
func (c *Ctx) SetResponse(v response.Value, contentType string) {
	if c.frozen {
		return
	}
	c.value = v
	if contentType != "" {
		c.contentType = contentType
	}
}

// ResponseValue returns the in-progress response value.
func (c *Ctx) ResponseValue() response.Value {
	return c.value
}

// ContentType returns the explicit content type set upstream, if any.
func (c *Ctx) ContentType() string {
	return c.contentType
}

// SetContentType forces the response content type.
func (c *Ctx) SetContentType(contentType string) {
	c.contentType = contentType
}

// SetStatus sets the provisional response status code.
func (c *Ctx) SetStatus(code int) {
	c.statusCode = code
}

// Status returns the provisional response status code, 200 when unset.
func (c *Ctx) Status() int {
	if c.statusCode == 0 {
		return http.StatusOK
	}
	return c.statusCode
}

// Err returns the failure recorded for the request, if any.
func (c *Ctx) Err() error {
	return c.err
}

// Chain returns the chain view for the request.
func (c *Ctx) Chain() *Chain {
	return c.chain
}

// OnComplete registers fn to run once the response has been fully written,
// including error routing. Registered functions run in reverse registration
// order, mirroring the chain unwind, and may read the final status and size
// from Response().
func (c *Ctx) OnComplete(fn func()) {
	c.completions = append(c.completions, fn)
}

func (c *Ctx) runCompletions() {
	for i := len(c.completions) - 1; i >= 0; i-- {
		c.completions[i]()
	}
}

// freeze pins the current response value against later writes.
func (c *Ctx) freeze() {
	c.frozen = true
}

// forceResponse replaces the response value regardless of freezing. Only the
// error router uses it: its output is the final word on the response.
func (c *Ctx) forceResponse(v response.Value, contentType string) {
	c.value = v
	c.contentType = contentType
	c.frozen = true
}
