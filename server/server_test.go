package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stijnvanbael/redstone/config"
	"github.com/stijnvanbael/redstone/dispatch"
	"github.com/stijnvanbael/redstone/response"
)

func TestNewServerDefaults(t *testing.T) {
	srv, err := New()
	require.NoError(t, err)
	assert.NotNil(t, srv.Dispatcher())
	assert.Equal(t, ":8080", srv.cfg.Server.Address)
}

func TestNewServerRejectsNilOptions(t *testing.T) {
	_, err := New(WithConfig(nil))
	assert.Error(t, err)

	_, err = New(WithLogger(nil))
	assert.Error(t, err)

	_, err = New(WithDispatcher(nil))
	assert.Error(t, err)

	_, err = New(WithShutdownTimeout(0))
	assert.Error(t, err)
}

func TestServerRegistersStandardInterceptors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RateLimit.Enabled = true

	srv, err := New(WithConfig(cfg), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	names := map[string]bool{}
	for _, ie := range srv.Dispatcher().Registry().InterceptorsFor("/") {
		names[ie.Name] = true
	}
	assert.True(t, names["request-id"])
	assert.True(t, names["logger"])
	assert.True(t, names["cors"])
	assert.True(t, names["rate-limit"])
}

func TestServerSkipsDisabledInterceptors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.RequestID = false
	cfg.Server.CORS = false

	srv, err := New(WithConfig(cfg))
	require.NoError(t, err)
	assert.Empty(t, srv.Dispatcher().Registry().InterceptorsFor("/"))
}

func TestServerServesRegisteredRoutes(t *testing.T) {
	srv, err := New(WithLogger(zap.NewNop()))
	require.NoError(t, err)

	require.NoError(t, srv.Dispatcher().AddRoute(dispatch.RouteEntry{
		Name: "health", Method: http.MethodGet, Path: "/health",
		Handler: func(ctx context.Context, args []any) (response.Value, error) {
			return response.Mapping{"status": "ok"}, nil
		},
	}))

	rec := httptest.NewRecorder()
	srv.Dispatcher().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRunRefusesInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	srv, err := New(WithConfig(cfg))
	require.NoError(t, err)

	cfg.Server.Address = ""
	assert.Error(t, srv.Run())
}

func TestRunAndShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Address = "127.0.0.1:0"

	srv, err := New(WithConfig(cfg), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- srv.Run()
	}()

	// Give the listener a moment to come up.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownRunsHooks(t *testing.T) {
	srv, err := New()
	require.NoError(t, err)

	ran := make(chan struct{}, 2)
	srv.RegisterShutdownHook(func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	})
	srv.RegisterShutdownHook(func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	})

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Len(t, ran, 2)
}

func TestShutdownCollectsHookFailures(t *testing.T) {
	srv, err := New()
	require.NoError(t, err)

	srv.RegisterShutdownHook(func(ctx context.Context) error {
		return errors.New("cleanup failed")
	})

	err = srv.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup failed")
}
