package dispatch

import (
	"sort"
	"strings"

	"github.com/stijnvanbael/redstone/binder"
	rserrors "github.com/stijnvanbael/redstone/errors"
	"github.com/stijnvanbael/redstone/router"
)

// RouteEntry describes one registered route. Entries are created at setup
// time and never mutated afterwards.
type RouteEntry struct {
	// Name identifies the route. It must be unique within its method.
	Name string
	// Method is the HTTP method the route answers.
	Method string
	// Path is the path template source; it is compiled on registration.
	Path string
	// Handler is invoked with the resolved parameter values.
	Handler HandlerFunc
	// Params declares the handler parameters, in declaration order.
	Params []binder.Spec
	// BodyType declares the expected body format, if any.
	BodyType binder.BodyKind

	template *router.Template
}

// InterceptorEntry describes one registered interceptor.
type InterceptorEntry struct {
	// Name identifies the interceptor in diagnostics.
	Name string
	// Prefix selects the requests the interceptor wraps: every request whose
	// path starts with it.
	Prefix string
	// Group orders interceptors: lower groups run their before phase earlier
	// and their continuations later. Interceptors in the same group run in
	// registration order.
	Group int
	// Handler is the interceptor body.
	Handler InterceptorFunc
}

// ErrorHandlerEntry binds a handler to a status code. A zero status
// registers the default handler used for any status without an exact match.
type ErrorHandlerEntry struct {
	Status  int
	Handler HandlerFunc
	Params  []binder.Spec
}

// Registry holds every registered route, interceptor and error handler. It
// is built synchronously before serving begins and is read-only afterwards,
// so concurrent requests read it without synchronization.
type Registry struct {
	providers *binder.Set

	routes        []*RouteEntry
	routeNames    map[string]map[string]bool // method → name
	matcher       *router.Matcher
	interceptors  []*InterceptorEntry
	errorHandlers map[int]*ErrorHandlerEntry
	frozen        bool
}

// NewRegistry creates an empty registry backed by the given provider set.
func NewRegistry(providers *binder.Set) *Registry {
	if providers == nil {
		providers = binder.NewSet()
	}
	return &Registry{
		providers:     providers,
		routeNames:    make(map[string]map[string]bool),
		matcher:       router.NewMatcher(),
		errorHandlers: make(map[int]*ErrorHandlerEntry),
	}
}

// Providers returns the parameter provider set.
func (r *Registry) Providers() *binder.Set {
	return r.providers
}

// AddRoute registers a route. It fails with a typed configuration error when
// the route name collides with an existing route of the same method, the
// template does not compile, or a declared parameter marker has no provider.
func (r *Registry) AddRoute(entry RouteEntry) error {
	if r.frozen {
		return rserrors.Configf("cannot register route %q: registry is serving", entry.Name)
	}
	if entry.Name == "" || entry.Method == "" || entry.Handler == nil {
		return rserrors.Configf("route requires a name, a method and a handler")
	}

	names := r.routeNames[entry.Method]
	if names == nil {
		names = make(map[string]bool)
		r.routeNames[entry.Method] = names
	}
	if names[entry.Name] {
		return rserrors.Configf("duplicate route %q for method %s", entry.Name, entry.Method)
	}

	template, err := router.ParseTemplate(entry.Path)
	if err != nil {
		return rserrors.Configf("route %q: %v", entry.Name, err)
	}

	for i := range entry.Params {
		if entry.Params[i].Handler == "" {
			entry.Params[i].Handler = entry.Name
		}
		if !r.providers.Has(entry.Params[i].Marker) {
			return rserrors.Configf("route %q: no provider registered for parameter marker %q",
				entry.Name, entry.Params[i].Marker)
		}
	}

	entry.template = template
	names[entry.Name] = true
	stored := entry
	r.routes = append(r.routes, &stored)
	r.matcher.Add(entry.Method, template, &stored)
	return nil
}

// AddInterceptor registers an interceptor.
func (r *Registry) AddInterceptor(entry InterceptorEntry) error {
	if r.frozen {
		return rserrors.Configf("cannot register interceptor %q: registry is serving", entry.Name)
	}
	if entry.Handler == nil {
		return rserrors.Configf("interceptor %q requires a handler", entry.Name)
	}
	if entry.Prefix == "" {
		entry.Prefix = "/"
	}
	stored := entry
	r.interceptors = append(r.interceptors, &stored)
	return nil
}

// AddErrorHandler registers an error handler for a status code. Status zero
// registers the default handler.
func (r *Registry) AddErrorHandler(entry ErrorHandlerEntry) error {
	if r.frozen {
		return rserrors.Configf("cannot register error handler for %d: registry is serving", entry.Status)
	}
	if entry.Handler == nil {
		return rserrors.Configf("error handler for status %d requires a handler", entry.Status)
	}
	if _, exists := r.errorHandlers[entry.Status]; exists {
		return rserrors.Configf("duplicate error handler for status %d", entry.Status)
	}
	for i := range entry.Params {
		if !r.providers.Has(entry.Params[i].Marker) {
			return rserrors.Configf("error handler for status %d: no provider for marker %q",
				entry.Status, entry.Params[i].Marker)
		}
	}
	stored := entry
	r.errorHandlers[entry.Status] = &stored
	return nil
}

// Freeze marks the registry read-only. Interceptors are ordered by group
// here once, keeping registration order within a group, so request-time
// lookups are a plain filtered scan.
func (r *Registry) Freeze() {
	if r.frozen {
		return
	}
	sort.SliceStable(r.interceptors, func(i, j int) bool {
		return r.interceptors[i].Group < r.interceptors[j].Group
	})
	r.frozen = true
}

// Match returns the first registered route matching method and path, in
// registration order, with the extracted path variables.
func (r *Registry) Match(method, path string) (*RouteEntry, map[string]string, bool) {
	payload, vars, ok := r.matcher.Match(method, path)
	if !ok {
		return nil, nil, false
	}
	return payload.(*RouteEntry), vars, true
}

// InterceptorsFor returns the interceptors whose prefix matches the path,
// ordered by group then registration order.
func (r *Registry) InterceptorsFor(path string) []*InterceptorEntry {
	var matched []*InterceptorEntry
	for _, entry := range r.interceptors {
		if strings.HasPrefix(path, entry.Prefix) {
			matched = append(matched, entry)
		}
	}
	return matched
}

// ErrorHandler returns the handler registered for the exact status, falling
// back to the default handler. nil means the built-in page applies.
func (r *Registry) ErrorHandler(status int) *ErrorHandlerEntry {
	if entry, ok := r.errorHandlers[status]; ok {
		return entry
	}
	return r.errorHandlers[0]
}

// Routes returns all registered routes in registration order.
func (r *Registry) Routes() []*RouteEntry {
	return r.routes
}

// Clear removes every registration and unfreezes the registry. Intended for
// full teardown.
func (r *Registry) Clear() {
	r.routes = nil
	r.routeNames = make(map[string]map[string]bool)
	r.matcher = router.NewMatcher()
	r.interceptors = nil
	r.errorHandlers = make(map[int]*ErrorHandlerEntry)
	r.frozen = false
}
