package interceptor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stijnvanbael/redstone/dispatch"
	"github.com/stijnvanbael/redstone/response"
)

// newPingDispatcher builds a dispatcher with the given interceptor wrapping a
// /ping route that answers "pong".
func newPingDispatcher(t *testing.T, fn dispatch.InterceptorFunc) *dispatch.Dispatcher {
	t.Helper()
	d, err := dispatch.New(dispatch.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	require.NoError(t, d.AddInterceptor(dispatch.InterceptorEntry{Name: "under-test", Handler: fn}))
	require.NoError(t, d.AddRoute(dispatch.RouteEntry{
		Name: "ping", Method: http.MethodGet, Path: "/ping",
		Handler: func(ctx context.Context, args []any) (response.Value, error) {
			return response.Text("pong"), nil
		},
	}))
	return d
}

func get(d *dispatch.Dispatcher, target string, headers map[string]string) *httptest.ResponseRecorder {
	return do(d, http.MethodGet, target, headers)
}

func do(d *dispatch.Dispatcher, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	return rec
}
