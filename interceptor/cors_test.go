package interceptor_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stijnvanbael/redstone/interceptor"
)

func TestCORSSimpleRequest(t *testing.T) {
	d := newPingDispatcher(t, interceptor.CORS())

	rec := get(d, "/ping", map[string]string{"Origin": "https://example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "pong", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	d := newPingDispatcher(t, interceptor.CORS())

	rec := do(d, http.MethodOptions, "/ping", map[string]string{
		"Origin":                        "https://example.com",
		"Access-Control-Request-Method": http.MethodGet,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	assert.Empty(t, rec.Body.String())
}

func TestCORSPreflightDisallowedOrigin(t *testing.T) {
	d := newPingDispatcher(t, interceptor.CORSWithConfig(interceptor.CORSConfig{
		AllowOrigins: []string{"https://allowed.com"},
	}))

	rec := do(d, http.MethodOptions, "/ping", map[string]string{
		"Origin":                        "https://evil.com",
		"Access-Control-Request-Method": http.MethodGet,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowedOriginList(t *testing.T) {
	d := newPingDispatcher(t, interceptor.CORSWithConfig(interceptor.CORSConfig{
		AllowOrigins: []string{"https://allowed.com"},
	}))

	rec := get(d, "/ping", map[string]string{"Origin": "https://allowed.com"})
	assert.Equal(t, "https://allowed.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(d, "/ping", map[string]string{"Origin": "https://other.com"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSCredentialsAndMaxAge(t *testing.T) {
	d := newPingDispatcher(t, interceptor.CORSWithConfig(interceptor.CORSConfig{
		AllowOrigins:     []string{"https://allowed.com"},
		AllowCredentials: true,
		MaxAge:           600,
	}))

	rec := do(d, http.MethodOptions, "/ping", map[string]string{
		"Origin":                        "https://allowed.com",
		"Access-Control-Request-Method": http.MethodGet,
	})
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}
