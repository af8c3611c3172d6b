package binder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rserrors "github.com/stijnvanbael/redstone/errors"
)

// fakeRequest is a minimal Request for provider tests.
type fakeRequest struct {
	path    map[string]string
	query   map[string]string
	headers map[string]string
	attrs   map[string]any
	raw     []byte
	kind    BodyKind
}

func (f *fakeRequest) PathParam(name string) string  { return f.path[name] }
func (f *fakeRequest) QueryParam(name string) string { return f.query[name] }
func (f *fakeRequest) Header(name string) string     { return f.headers[name] }
func (f *fakeRequest) Attribute(name string) any     { return f.attrs[name] }
func (f *fakeRequest) RawBody() ([]byte, error)      { return f.raw, nil }

func (f *fakeRequest) Body() (any, BodyKind, error) {
	if len(f.raw) == 0 {
		return nil, BodyNone, nil
	}
	if f.kind == BodyJSON {
		var v any
		if err := json.Unmarshal(f.raw, &v); err != nil {
			return nil, BodyNone, err
		}
		return v, BodyJSON, nil
	}
	return f.raw, f.kind, nil
}

type fakeLocator struct {
	services map[reflect.Type]any
}

func (f *fakeLocator) Resolve(t reflect.Type) (any, error) {
	if s, ok := f.services[t]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("service %v not found", t)
}

func TestResolvePathQueryHeader(t *testing.T) {
	s := NewSet()
	req := &fakeRequest{
		path:    map[string]string{"id": "42"},
		query:   map[string]string{"page": "3"},
		headers: map[string]string{"X-Token": "abc"},
	}

	values, err := s.Resolve(context.Background(), []Spec{
		{Marker: Path, Name: "id", Handler: "getUser"},
		{Marker: Query, Name: "page", Handler: "getUser"},
		{Marker: Header, Name: "X-Token", Handler: "getUser"},
	}, req, nil)

	require.NoError(t, err)
	assert.Equal(t, []any{"42", "3", "abc"}, values)
}

func TestResolveMissingRequiredValue(t *testing.T) {
	s := NewSet()
	req := &fakeRequest{}

	_, err := s.Resolve(context.Background(), []Spec{
		{Marker: Query, Name: "id", Handler: "getUser"},
	}, req, nil)

	require.Error(t, err)
	var resErr *rserrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "getUser", resErr.Handler)
	assert.Equal(t, "id", resErr.Param)
}

func TestResolveOptionalDefault(t *testing.T) {
	s := NewSet()
	req := &fakeRequest{}

	values, err := s.Resolve(context.Background(), []Spec{
		{Marker: Query, Name: "page", Optional: true, Default: "1"},
	}, req, nil)

	require.NoError(t, err)
	assert.Equal(t, []any{"1"}, values)
}

func TestResolveAttribute(t *testing.T) {
	s := NewSet()
	req := &fakeRequest{attrs: map[string]any{"user_id": 42}}

	values, err := s.Resolve(context.Background(), []Spec{
		{Marker: Attr, Name: "user_id"},
	}, req, nil)

	require.NoError(t, err)
	assert.Equal(t, []any{42}, values)

	// Missing required attribute fails; optional resolves to nil.
	_, err = s.Resolve(context.Background(), []Spec{
		{Marker: Attr, Name: "missing"},
	}, req, nil)
	assert.Error(t, err)

	values, err = s.Resolve(context.Background(), []Spec{
		{Marker: Attr, Name: "missing", Optional: true},
	}, req, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, values)
}

type clock interface {
	Now() string
}

type fixedClock struct{}

func (fixedClock) Now() string { return "now" }

func TestResolveInjectedService(t *testing.T) {
	s := NewSet()
	clockType := reflect.TypeOf((*clock)(nil)).Elem()
	locator := &fakeLocator{services: map[reflect.Type]any{clockType: fixedClock{}}}

	values, err := s.Resolve(context.Background(), []Spec{
		{Marker: Inject, Name: "clock", Service: clockType},
	}, &fakeRequest{}, locator)

	require.NoError(t, err)
	assert.Equal(t, "now", values[0].(clock).Now())
}

func TestResolveInjectWithoutServiceType(t *testing.T) {
	s := NewSet()

	_, err := s.Resolve(context.Background(), []Spec{
		{Marker: Inject, Name: "thing", Handler: "getThing"},
	}, &fakeRequest{}, &fakeLocator{})

	require.Error(t, err)
	var resErr *rserrors.ResolutionError
	assert.ErrorAs(t, err, &resErr)
}

func TestResolveGenericBody(t *testing.T) {
	s := NewSet()
	req := &fakeRequest{raw: []byte(`{"a":1}`), kind: BodyJSON}

	values, err := s.Resolve(context.Background(), []Spec{
		{Marker: Body, Name: "payload"},
	}, req, nil)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, values[0])
}

type orderBody struct {
	Item  string `json:"item" validate:"required"`
	Count int    `json:"count" validate:"gte=1"`
}

func TestResolveBodyTarget(t *testing.T) {
	s := NewSet()
	req := &fakeRequest{raw: []byte(`{"item":"widget","count":2}`), kind: BodyJSON}

	values, err := s.Resolve(context.Background(), []Spec{
		{Marker: Body, Name: "order", Target: func() any { return &orderBody{} }},
	}, req, nil)

	require.NoError(t, err)
	order := values[0].(*orderBody)
	assert.Equal(t, "widget", order.Item)
	assert.Equal(t, 2, order.Count)
}

func TestResolveBodyTargetValidationFailure(t *testing.T) {
	s := NewSet()
	req := &fakeRequest{raw: []byte(`{"item":"","count":0}`), kind: BodyJSON}

	_, err := s.Resolve(context.Background(), []Spec{
		{Marker: Body, Name: "order", Handler: "createOrder", Target: func() any { return &orderBody{} }},
	}, req, nil)

	require.Error(t, err)
	var resErr *rserrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "createOrder", resErr.Handler)
}

func TestResolveBodyMissingRequired(t *testing.T) {
	s := NewSet()

	_, err := s.Resolve(context.Background(), []Spec{
		{Marker: Body, Name: "order", Target: func() any { return &orderBody{} }},
	}, &fakeRequest{}, nil)

	assert.Error(t, err)
}

func TestResolveStopsAtFirstFailure(t *testing.T) {
	s := NewSet()
	called := false
	s.Register(Marker(42), func(ctx context.Context, spec Spec, req Request, services ServiceLocator) (any, error) {
		called = true
		return nil, nil
	})

	_, err := s.Resolve(context.Background(), []Spec{
		{Marker: Query, Name: "missing"},
		{Marker: Marker(42), Name: "second"},
	}, &fakeRequest{}, nil)

	require.Error(t, err)
	assert.False(t, called, "resolution must stop at the first failure")
}

func TestResolveKeepsProviderResolutionError(t *testing.T) {
	s := NewSet()
	custom := &rserrors.ResolutionError{Handler: "h", Param: "p", Cause: errors.New("x"), Status: 422}
	s.Register(Marker(43), func(ctx context.Context, spec Spec, req Request, services ServiceLocator) (any, error) {
		return nil, custom
	})

	_, err := s.Resolve(context.Background(), []Spec{
		{Marker: Marker(43), Name: "p"},
	}, &fakeRequest{}, nil)

	require.ErrorIs(t, err, custom)
	assert.Equal(t, 422, custom.StatusCode())
}

func TestResolveBodyTargetRequiresJSONBody(t *testing.T) {
	s := NewSet()
	req := &fakeRequest{raw: []byte("name=gopher"), kind: BodyForm}

	_, err := s.Resolve(context.Background(), []Spec{{
		Marker: Body, Name: "payload", Handler: "createUser",
		Target: func() any { return &struct{ Name string }{} },
	}}, req, nil)

	var resErr *rserrors.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "createUser", resErr.Handler)
	assert.Contains(t, err.Error(), "JSON")
}
