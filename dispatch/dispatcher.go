// Package dispatch implements the request-dispatch core: route matching,
// the interceptor chain, parameter resolution, response processing and error
// routing for one HTTP request at a time.
package dispatch

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/stijnvanbael/redstone/binder"
	rserrors "github.com/stijnvanbael/redstone/errors"
	"github.com/stijnvanbael/redstone/inject"
	"github.com/stijnvanbael/redstone/response"
)

// Dispatcher owns a Registry and drives request processing through it. Each
// Dispatcher instance is independent; tests can run several side by side
// without shared state.
type Dispatcher struct {
	registry   *Registry
	pipeline   *response.Pipeline
	writer     *response.Writer
	mime       response.MIMELookup
	services   *inject.Container
	bodyParser BodyParser
	sessions   SessionStore
	logger     *zap.Logger

	freezeOnce sync.Once
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// New creates a Dispatcher with the given options applied.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		registry: NewRegistry(binder.NewSet()),
		pipeline: response.NewPipeline(),
		services: inject.New(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if d.writer == nil {
		d.writer = response.NewWriter(d.logger)
	}
	if d.mime != nil {
		d.writer.MIME = d.mime
	}
	return d, nil
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) error {
		d.logger = logger
		return nil
	}
}

// WithServices sets the service locator used by Inject parameters.
func WithServices(services *inject.Container) Option {
	return func(d *Dispatcher) error {
		if services == nil {
			return rserrors.Configf("service container cannot be nil")
		}
		d.services = services
		return nil
	}
}

// WithBodyParser replaces the body-parsing collaborator.
func WithBodyParser(parser BodyParser) Option {
	return func(d *Dispatcher) error {
		d.bodyParser = parser
		return nil
	}
}

// WithSessionStore sets the session collaborator.
func WithSessionStore(store SessionStore) Option {
	return func(d *Dispatcher) error {
		d.sessions = store
		return nil
	}
}

// WithMIMELookup replaces the writer's MIME-lookup collaborator. The lookup
// is applied once all options have run, so its order relative to WithLogger
// does not matter.
func WithMIMELookup(lookup response.MIMELookup) Option {
	return func(d *Dispatcher) error {
		d.mime = lookup
		return nil
	}
}

// Registry returns the dispatcher's registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Services returns the dispatcher's service container.
func (d *Dispatcher) Services() *inject.Container {
	return d.services
}

// AddRoute registers a route.
func (d *Dispatcher) AddRoute(entry RouteEntry) error {
	return d.registry.AddRoute(entry)
}

// AddInterceptor registers an interceptor.
func (d *Dispatcher) AddInterceptor(entry InterceptorEntry) error {
	return d.registry.AddInterceptor(entry)
}

// AddErrorHandler registers an error handler for a status code.
func (d *Dispatcher) AddErrorHandler(entry ErrorHandlerEntry) error {
	return d.registry.AddErrorHandler(entry)
}

// UseProcessor appends a response processor to the pipeline.
func (d *Dispatcher) UseProcessor(proc response.Processor) {
	d.pipeline.Use(proc)
}

// RegisterProvider binds a parameter provider to a marker.
func (d *Dispatcher) RegisterProvider(m binder.Marker, p binder.Provider) {
	d.registry.Providers().Register(m, p)
}

// Build freezes the registry. The serving shell calls it before listening;
// ServeHTTP also freezes on first use so tests can dispatch directly.
func (d *Dispatcher) Build() {
	d.freezeOnce.Do(d.registry.Freeze)
}

// ServeHTTP dispatches one request. Whatever happens inside the chain, the
// request yields exactly one wire-level response.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.Build()

	rw := NewResponseWriter(w)
	c := newCtx(r, rw, d.bodyParser, d.sessions)
	c.stdCtx = WithCtx(r.Context(), c)

	entry, vars, ok := d.registry.Match(r.Method, r.URL.Path)
	if ok {
		c.pathParams = vars
	}

	// Interceptors whose prefix matches still wrap an unmatched request, so
	// cross-cutting concerns like CORS preflights see every path. The target
	// slot routes the miss to the error router instead.
	elements := d.buildElements(r.URL.Path, entry)
	ch := newChain(c, elements)

	err := ch.run()
	switch {
	case err != nil:
		d.routeError(c, statusOf(err), err)
	case ch.routeStatus != 0:
		d.routeError(c, ch.routeStatus, c.err)
	}

	d.complete(c)
	c.runCompletions()
}

// buildElements assembles the ordered chain: matching interceptors by group,
// then the target handler.
func (d *Dispatcher) buildElements(path string, entry *RouteEntry) []element {
	interceptors := d.registry.InterceptorsFor(path)
	elements := make([]element, 0, len(interceptors)+1)
	for _, ie := range interceptors {
		ie := ie
		elements = append(elements, element{
			name: ie.Name,
			run: func(ctx context.Context, ch *Chain) error {
				return ie.Handler(ctx, ch)
			},
		})
	}
	if entry == nil {
		elements = append(elements, notFoundElement())
	} else {
		elements = append(elements, d.targetElement(entry))
	}
	return elements
}

// notFoundElement stands in for the target when no route matches: it routes
// a 404 through the error router once the chain has unwound.
func notFoundElement() element {
	return element{
		name:     "not-found",
		isTarget: true,
		run: func(ctx context.Context, ch *Chain) error {
			return ch.Abort(http.StatusNotFound)
		},
	}
}

// targetElement is the final chain element: resolve the declared parameters,
// invoke the handler, and record its return value as the provisional
// response.
func (d *Dispatcher) targetElement(entry *RouteEntry) element {
	return element{
		name:     entry.Name,
		isTarget: true,
		run: func(ctx context.Context, ch *Chain) error {
			if entry.BodyType != binder.BodyNone {
				if err := checkBodyType(ch.ctx, entry); err != nil {
					return err
				}
			}
			args, err := d.registry.Providers().Resolve(ctx, entry.Params, ch.ctx, d.services)
			if err != nil {
				return err
			}
			v, err := entry.Handler(ctx, args)
			if err != nil {
				return err
			}
			ch.ctx.SetResponse(v, "")
			return nil
		},
	}
}

// checkBodyType enforces a route's declared body format before the handler
// runs: a missing or differently formatted body is rejected as a 400.
func checkBodyType(c *Ctx, entry *RouteEntry) error {
	_, kind, err := c.Body()
	if err != nil {
		return rserrors.BadRequest("malformed request body")
	}
	if kind != entry.BodyType {
		return rserrors.BadRequest("expected " + string(entry.BodyType) + " request body")
	}
	return nil
}

// routeError looks up an error handler for the status and records its output
// as the response value. A custom handler runs as a one-element chain: its
// parameters are resolved and its return value goes through the response
// pipeline like any other. A failure inside the handler falls back
// unconditionally to the built-in diagnostic page; error handling is never
// re-entered recursively.
func (d *Dispatcher) routeError(c *Ctx, status int, err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
	c.SetStatus(status)

	if entry := d.registry.ErrorHandler(status); entry != nil {
		if hErr := d.runErrorHandler(c, entry); hErr == nil {
			return
		} else if d.logger != nil {
			d.logger.Error("error handler failed",
				zap.Int("status", status),
				zap.String("path", c.Path()),
				zap.Error(hErr))
		}
		d.forcePage(c, status, err)
		return
	}

	// An expected abort without a custom handler is written verbatim as
	// plain text.
	if abort, ok := err.(*rserrors.Abort); ok {
		c.forceResponse(response.Status{Code: abort.Code, Message: abort.Message}, "")
		return
	}

	d.forcePage(c, status, err)
}

func (d *Dispatcher) runErrorHandler(c *Ctx, entry *ErrorHandlerEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicFailure(r)
		}
	}()

	args, err := d.registry.Providers().Resolve(c.Context(), entry.Params, c, d.services)
	if err != nil {
		return err
	}
	v, err := entry.Handler(c.Context(), args)
	if err != nil {
		return err
	}
	c.forceResponse(v, c.ContentType())
	return nil
}

// forcePage sets the built-in diagnostic page as the final response.
func (d *Dispatcher) forcePage(c *Ctx, status int, err error) {
	var stack string
	if s, ok := err.(interface{ Stack() []byte }); ok {
		stack = string(s.Stack())
	}
	page := rserrors.ErrorPage(status, c.Path(), err, stack)
	header := http.Header{}
	header.Set("Content-Type", "text/html; charset=utf-8")
	c.forceResponse(response.Raw{Code: status, Header: header, Body: page}, "")
}

// complete runs the response pipeline and the writer. A failure in either is
// routed through the error router once; a second failure degrades to a bare
// 500 with no body so the transport always sees exactly one response.
func (d *Dispatcher) complete(c *Ctx) {
	if d.writeResponse(c) {
		return
	}
	if c.Response().Written() {
		return
	}
	if d.writeResponse(c) {
		return
	}
	if !c.Response().Written() {
		c.Response().WriteHeader(http.StatusInternalServerError)
	}
}

// writeResponse applies the pipeline and writer once. On failure it routes
// the error and reports false so the caller can retry with the routed value.
func (d *Dispatcher) writeResponse(c *Ctx) bool {
	v, err := d.pipeline.Apply(c.Context(), c.ResponseValue())
	if err == nil {
		err = d.writer.Write(c.Response(), v, c.Status(), c.ContentType())
		if err == nil {
			return true
		}
	}
	if d.logger != nil {
		d.logger.Error("response writing failed",
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	if c.Response().Written() {
		return false
	}

	// Replace the response with the routed error and let the caller retry.
	d.bypassCustomOnRetry(c, statusOf(err), err)
	return false
}

// bypassCustomOnRetry routes a late failure. The retry must not loop through
// a failing custom handler twice, so after the first completed routing any
// further failure goes straight to the built-in page.
func (d *Dispatcher) bypassCustomOnRetry(c *Ctx, status int, err error) {
	if c.lateFailure {
		d.forcePage(c, status, err)
		return
	}
	c.lateFailure = true
	d.routeError(c, status, err)
}

// statusOf maps a failure to the status the error router is invoked with.
func statusOf(err error) int {
	if sc, ok := err.(rserrors.StatusCoder); ok {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}
