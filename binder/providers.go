package binder

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	rserrors "github.com/stijnvanbael/redstone/errors"
)

// Set holds the registered providers, keyed by marker. A Set is built at
// setup time and read-only during request processing.
type Set struct {
	providers map[Marker]Provider
	validate  *validator.Validate
}

// NewSet creates a Set with the built-in providers registered.
func NewSet() *Set {
	s := &Set{
		providers: make(map[Marker]Provider),
		validate:  validator.New(),
	}
	s.Register(Path, providePath)
	s.Register(Query, provideQuery)
	s.Register(Header, provideHeader)
	s.Register(Attr, provideAttr)
	s.Register(Inject, provideService)
	s.Register(Body, s.provideBody)
	return s
}

// Register binds a provider to a marker, replacing any existing binding.
func (s *Set) Register(m Marker, p Provider) {
	s.providers[m] = p
}

// Has reports whether a provider is registered for the marker.
func (s *Set) Has(m Marker) bool {
	_, ok := s.providers[m]
	return ok
}

// Resolve produces the values for all declared parameters in declaration
// order. The first provider failure aborts resolution with a typed
// *errors.ResolutionError naming the handler and the parameter.
func (s *Set) Resolve(ctx context.Context, specs []Spec, req Request, services ServiceLocator) ([]any, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	values := make([]any, len(specs))
	for i, spec := range specs {
		provider, ok := s.providers[spec.Marker]
		if !ok {
			return nil, &rserrors.ResolutionError{
				Handler: spec.Handler,
				Param:   spec.Name,
				Cause:   fmt.Errorf("no provider registered for marker %q", spec.Marker),
			}
		}
		v, err := provider(ctx, spec, req, services)
		if err != nil {
			if resErr, ok := err.(*rserrors.ResolutionError); ok {
				return nil, resErr
			}
			return nil, &rserrors.ResolutionError{
				Handler: spec.Handler,
				Param:   spec.Name,
				Cause:   err,
			}
		}
		values[i] = v
	}
	return values, nil
}

func providePath(_ context.Context, spec Spec, req Request, _ ServiceLocator) (any, error) {
	if v := req.PathParam(spec.Name); v != "" {
		return v, nil
	}
	return absent(spec)
}

func provideQuery(_ context.Context, spec Spec, req Request, _ ServiceLocator) (any, error) {
	if v := req.QueryParam(spec.Name); v != "" {
		return v, nil
	}
	return absent(spec)
}

func provideHeader(_ context.Context, spec Spec, req Request, _ ServiceLocator) (any, error) {
	if v := req.Header(spec.Name); v != "" {
		return v, nil
	}
	return absent(spec)
}

func provideAttr(_ context.Context, spec Spec, req Request, _ ServiceLocator) (any, error) {
	if v := req.Attribute(spec.Name); v != nil {
		return v, nil
	}
	if spec.Optional {
		return nil, nil
	}
	return nil, fmt.Errorf("attribute %q not set", spec.Name)
}

func provideService(_ context.Context, spec Spec, _ Request, services ServiceLocator) (any, error) {
	if spec.Service == nil {
		return nil, fmt.Errorf("inject parameter %q declares no service type", spec.Name)
	}
	if services == nil {
		return nil, fmt.Errorf("no service locator available")
	}
	return services.Resolve(spec.Service)
}

// provideBody returns the whole parsed body. With a declared target, the raw
// body is decoded into a fresh target value and validated; without one, the
// generic parsed value is returned as-is. Targets decode JSON bodies only;
// form, text and binary bodies resolve through the generic path.
func (s *Set) provideBody(_ context.Context, spec Spec, req Request, _ ServiceLocator) (any, error) {
	v, kind, err := req.Body()
	if err != nil {
		return nil, err
	}
	if spec.Target == nil {
		if kind == BodyNone && !spec.Optional {
			return nil, fmt.Errorf("request has no body")
		}
		return v, nil
	}

	if kind == BodyNone {
		if spec.Optional {
			return spec.Target(), nil
		}
		return nil, fmt.Errorf("request has no body")
	}
	if kind != BodyJSON {
		return nil, fmt.Errorf("cannot decode %s body into a declared target; targets require a JSON body", kind)
	}

	raw, err := req.RawBody()
	if err != nil {
		return nil, err
	}

	target := spec.Target()
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("cannot decode body: %w", err)
	}
	if err := s.validateTarget(target); err != nil {
		return nil, err
	}
	return target, nil
}

// validateTarget runs struct validation on decoded body targets. Non-struct
// targets are returned without validation.
func (s *Set) validateTarget(target any) error {
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	if err := s.validate.Struct(target); err != nil {
		return fmt.Errorf("body validation failed: %w", err)
	}
	return nil
}

func absent(spec Spec) (any, error) {
	if spec.Optional {
		return spec.Default, nil
	}
	return nil, fmt.Errorf("required value %q is missing", spec.Name)
}
