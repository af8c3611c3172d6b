package interceptor

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/stijnvanbael/redstone/dispatch"
)

// CORSConfig defines the config for the CORS interceptor.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. "*" allows any.
	// Optional. Defaults to ["*"].
	AllowOrigins []string

	// AllowMethods lists methods allowed in preflight responses.
	AllowMethods []string

	// AllowHeaders lists headers allowed in preflight responses.
	AllowHeaders []string

	// AllowCredentials adds the Access-Control-Allow-Credentials header.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig is the default CORS interceptor config.
var DefaultCORSConfig = CORSConfig{
	AllowOrigins: []string{"*"},
	AllowMethods: []string{
		http.MethodGet, http.MethodHead, http.MethodPut,
		http.MethodPatch, http.MethodPost, http.MethodDelete,
	},
}

// CORS returns an interceptor that answers preflight requests and decorates
// responses with the CORS headers.
func CORS() dispatch.InterceptorFunc {
	return CORSWithConfig(DefaultCORSConfig)
}

// CORSWithConfig returns a CORS interceptor with config.
func CORSWithConfig(config CORSConfig) dispatch.InterceptorFunc {
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = DefaultCORSConfig.AllowOrigins
	}
	if len(config.AllowMethods) == 0 {
		config.AllowMethods = DefaultCORSConfig.AllowMethods
	}
	allowMethods := strings.Join(config.AllowMethods, ",")
	allowHeaders := strings.Join(config.AllowHeaders, ",")

	return func(ctx context.Context, ch *dispatch.Chain) error {
		c := dispatch.MustFromContext(ctx)
		origin := c.Header("Origin")
		header := c.Response().Header()

		allowed := ""
		for _, o := range config.AllowOrigins {
			if o == "*" || o == origin {
				allowed = o
				break
			}
		}

		if c.Method() != http.MethodOptions {
			header.Add("Vary", "Origin")
			if allowed != "" {
				header.Set("Access-Control-Allow-Origin", allowed)
				if config.AllowCredentials {
					header.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			return ch.Next()
		}

		// Preflight
		header.Add("Vary", "Origin")
		header.Add("Vary", "Access-Control-Request-Method")
		header.Add("Vary", "Access-Control-Request-Headers")
		if allowed == "" {
			return ch.Interrupt(http.StatusNoContent, nil, "")
		}
		header.Set("Access-Control-Allow-Origin", allowed)
		header.Set("Access-Control-Allow-Methods", allowMethods)
		if allowHeaders != "" {
			header.Set("Access-Control-Allow-Headers", allowHeaders)
		} else if reqHeaders := c.Header("Access-Control-Request-Headers"); reqHeaders != "" {
			header.Set("Access-Control-Allow-Headers", reqHeaders)
		}
		if config.AllowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		if config.MaxAge > 0 {
			header.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
		}
		return ch.Interrupt(http.StatusNoContent, nil, "")
	}
}
