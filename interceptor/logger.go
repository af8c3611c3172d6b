package interceptor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stijnvanbael/redstone/dispatch"
)

// LoggerConfig defines the config for the Logger interceptor.
type LoggerConfig struct {
	// Logger receives one entry per request. Required.
	Logger *zap.Logger

	// SkipPaths lists exact paths that are not logged.
	SkipPaths []string
}

// Logger returns an interceptor that logs one structured entry per request:
// method, path, status, size and duration. The entry is written through a
// completion hook once the response has reached the wire, so the logged
// status and size reflect error routing and the writer, not the provisional
// chain state.
func Logger(logger *zap.Logger) dispatch.InterceptorFunc {
	return LoggerWithConfig(LoggerConfig{Logger: logger})
}

// LoggerWithConfig returns a Logger interceptor with config.
func LoggerWithConfig(config LoggerConfig) dispatch.InterceptorFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(ctx context.Context, ch *dispatch.Chain) error {
		c := dispatch.MustFromContext(ctx)
		if config.Logger == nil || skip[c.Path()] {
			return ch.Next()
		}

		start := time.Now()
		c.OnComplete(func() {
			fields := []zap.Field{
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status()),
				zap.Int64("size", c.Response().Size()),
				zap.Duration("duration", time.Since(start)),
			}
			if rid := GetRequestID(c); rid != "" {
				fields = append(fields, zap.String("request_id", rid))
			}
			if err := c.Err(); err != nil {
				fields = append(fields, zap.Error(err))
				config.Logger.Warn("request failed", fields...)
			} else {
				config.Logger.Info("request completed", fields...)
			}
		})
		return ch.Next()
	}
}
