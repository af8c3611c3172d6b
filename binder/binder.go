// Package binder resolves declared handler parameters from the incoming
// request. Each parameter declaration carries a marker that selects the
// provider responsible for producing its value; resolution runs in
// declaration order and fails fast on the first provider error.
package binder

import (
	"context"
	"fmt"
	"reflect"
)

// Marker identifies which provider resolves a declared parameter.
type Marker int

const (
	// Path resolves the parameter from a matched path variable.
	Path Marker = iota
	// Query resolves the parameter from a URL query value.
	Query
	// Header resolves the parameter from a request header.
	Header
	// Attr resolves the parameter from a request attribute set upstream,
	// typically by an interceptor.
	Attr
	// Inject resolves the parameter from the service locator.
	Inject
	// Body resolves the parameter to the parsed request body, optionally
	// decoded into a declared target type.
	Body
)

var markerNames = map[Marker]string{
	Path:   "path",
	Query:  "query",
	Header: "header",
	Attr:   "attr",
	Inject: "inject",
	Body:   "body",
}

// String returns the marker name used in diagnostics.
func (m Marker) String() string {
	if name, ok := markerNames[m]; ok {
		return name
	}
	return fmt.Sprintf("marker(%d)", int(m))
}

// BodyKind tags the detected body format of a request.
type BodyKind string

const (
	BodyNone   BodyKind = ""
	BodyJSON   BodyKind = "json"
	BodyForm   BodyKind = "form"
	BodyText   BodyKind = "text"
	BodyBinary BodyKind = "binary"
)

// Spec declares one handler parameter.
type Spec struct {
	// Marker selects the provider.
	Marker Marker
	// Name is the lookup key for path/query/header/attr markers and the
	// parameter name reported in resolution errors.
	Name string
	// Handler is the name of the declaring handler, reported in errors.
	Handler string
	// Optional parameters resolve to the default value instead of failing
	// when the source value is absent.
	Optional bool
	// Default is the value substituted for an absent optional parameter.
	Default string
	// Service is the type looked up for Inject parameters.
	Service reflect.Type
	// Target, when set on a Body parameter, produces a fresh value the body
	// is decoded into. The decoded value is validated before being returned.
	// Decoding is JSON-only: a form, text or binary body fails resolution.
	// Handlers for those formats take the generic parsed body instead.
	Target func() any
}

// Request is the provider-facing view of the request being processed.
type Request interface {
	PathParam(name string) string
	QueryParam(name string) string
	Header(name string) string
	Attribute(name string) any

	// Body returns the lazily parsed request body with its detected kind.
	Body() (any, BodyKind, error)
	// RawBody returns the memoized raw body bytes.
	RawBody() ([]byte, error)
}

// ServiceLocator is the opaque service lookup used by Inject parameters.
type ServiceLocator interface {
	Resolve(t reflect.Type) (any, error)
}

// Provider produces the value for one parameter. Returning an error aborts
// the whole handler invocation.
type Provider func(ctx context.Context, spec Spec, req Request, services ServiceLocator) (any, error)
