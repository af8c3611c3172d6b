// Package interceptor provides standard interceptors for the Redstone
// dispatch core. Each interceptor is registered like any other
// InterceptorEntry, with a path prefix and a group.
package interceptor

import (
	"context"

	"github.com/google/uuid"

	"github.com/stijnvanbael/redstone/dispatch"
)

// RequestIDAttr is the request attribute holding the request ID.
const RequestIDAttr = "request_id"

// RequestIDConfig defines the config for the RequestID interceptor.
type RequestIDConfig struct {
	// Generator defines a function to generate an ID.
	// Optional. Defaults to UUID v4.
	Generator func() string

	// TargetHeader defines the header to look for an existing request ID.
	// Optional. Defaults to X-Request-ID.
	TargetHeader string
}

// DefaultRequestIDConfig is the default RequestID interceptor config.
var DefaultRequestIDConfig = RequestIDConfig{
	Generator:    func() string { return uuid.New().String() },
	TargetHeader: "X-Request-ID",
}

// RequestID returns an interceptor that assigns each request a unique ID,
// reusing the incoming header value when present, and exposes it as both a
// request attribute and a response header.
func RequestID() dispatch.InterceptorFunc {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

// RequestIDWithConfig returns a RequestID interceptor with config.
func RequestIDWithConfig(config RequestIDConfig) dispatch.InterceptorFunc {
	if config.Generator == nil {
		config.Generator = DefaultRequestIDConfig.Generator
	}
	if config.TargetHeader == "" {
		config.TargetHeader = DefaultRequestIDConfig.TargetHeader
	}

	return func(ctx context.Context, ch *dispatch.Chain) error {
		c := dispatch.MustFromContext(ctx)

		rid := c.Header(config.TargetHeader)
		if rid == "" {
			rid = config.Generator()
		}

		c.Response().Header().Set(config.TargetHeader, rid)
		c.SetAttribute(RequestIDAttr, rid)

		return ch.Next()
	}
}

// GetRequestID retrieves the request ID assigned to the current request.
func GetRequestID(c *dispatch.Ctx) string {
	if rid, ok := c.Attribute(RequestIDAttr).(string); ok {
		return rid
	}
	return ""
}
