package interceptor_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stijnvanbael/redstone/dispatch"
	rserrors "github.com/stijnvanbael/redstone/errors"
	"github.com/stijnvanbael/redstone/interceptor"
	"github.com/stijnvanbael/redstone/response"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return zap.New(core), logs
}

func TestLoggerRecordsWrittenResponse(t *testing.T) {
	logger, logs := newObservedLogger()
	d := newPingDispatcher(t, interceptor.Logger(logger))

	rec := get(d, "/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request completed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.EqualValues(t, len("pong"), fields["size"])
	assert.Equal(t, "/ping", fields["path"])
}

func TestLoggerRecordsErrorRoutedStatus(t *testing.T) {
	logger, logs := newObservedLogger()
	d, err := dispatch.New(dispatch.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	require.NoError(t, d.AddInterceptor(dispatch.InterceptorEntry{
		Name: "logger", Handler: interceptor.Logger(logger),
	}))
	require.NoError(t, d.AddRoute(dispatch.RouteEntry{
		Name: "teapot", Method: http.MethodGet, Path: "/teapot",
		Handler: func(ctx context.Context, args []any) (response.Value, error) {
			return nil, rserrors.NewAbort(http.StatusTeapot, "short and stout")
		},
	}))

	rec := get(d, "/teapot", nil)
	require.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["size"])
}

func TestLoggerSkipPaths(t *testing.T) {
	logger, logs := newObservedLogger()
	d := newPingDispatcher(t, interceptor.LoggerWithConfig(interceptor.LoggerConfig{
		Logger:    logger,
		SkipPaths: []string{"/ping"},
	}))

	rec := get(d, "/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, logs.Len())
}
