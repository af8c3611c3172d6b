// Package server provides the serving shell around a Dispatcher: the HTTP
// transport, lifecycle management and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stijnvanbael/redstone/config"
	"github.com/stijnvanbael/redstone/dispatch"
	"github.com/stijnvanbael/redstone/interceptor"
)

// ShutdownHook is a function that gets called during shutdown.
type ShutdownHook func(ctx context.Context) error

// Server owns a Dispatcher and the net/http transport serving it.
type Server struct {
	cfg             *config.Config
	logger          *zap.Logger
	dispatcher      *dispatch.Dispatcher
	httpServer      *http.Server
	shutdownHooks   []ShutdownHook
	shutdownTimeout time.Duration
	mu              sync.RWMutex
}

// Option defines a functional option for Server.
type Option func(*Server) error

// New creates a server instance with the given options.
func New(opts ...Option) (*Server, error) {
	srv := &Server{
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(srv); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if srv.cfg == nil {
		srv.cfg = config.DefaultConfig()
	}
	if srv.dispatcher == nil {
		d, err := dispatch.New(dispatch.WithLogger(srv.logger))
		if err != nil {
			return nil, err
		}
		srv.dispatcher = d
	}

	if err := srv.registerStandardInterceptors(); err != nil {
		return nil, err
	}
	return srv, nil
}

// WithConfig sets the server configuration.
func WithConfig(cfg *config.Config) Option {
	return func(srv *Server) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		srv.cfg = cfg
		return nil
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(srv *Server) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		srv.logger = logger
		return nil
	}
}

// WithDispatcher sets the dispatcher serving the requests.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(srv *Server) error {
		if d == nil {
			return fmt.Errorf("dispatcher cannot be nil")
		}
		srv.dispatcher = d
		return nil
	}
}

// WithShutdownTimeout sets the shutdown timeout duration.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(srv *Server) error {
		if timeout <= 0 {
			return fmt.Errorf("shutdown timeout must be positive")
		}
		srv.shutdownTimeout = timeout
		return nil
	}
}

// registerStandardInterceptors wires the interceptors the configuration
// enables. They run before any user-registered group 0 interceptor.
func (srv *Server) registerStandardInterceptors() error {
	reg := srv.dispatcher.Registry()

	if srv.cfg.Server.RequestID {
		if err := reg.AddInterceptor(dispatch.InterceptorEntry{
			Name:    "request-id",
			Group:   -100,
			Handler: interceptor.RequestID(),
		}); err != nil {
			return err
		}
	}
	if srv.logger != nil {
		if err := reg.AddInterceptor(dispatch.InterceptorEntry{
			Name:    "logger",
			Group:   -90,
			Handler: interceptor.Logger(srv.logger),
		}); err != nil {
			return err
		}
	}
	if srv.cfg.Server.CORS {
		if err := reg.AddInterceptor(dispatch.InterceptorEntry{
			Name:    "cors",
			Group:   -80,
			Handler: interceptor.CORS(),
		}); err != nil {
			return err
		}
	}
	if srv.cfg.RateLimit.Enabled {
		if err := reg.AddInterceptor(dispatch.InterceptorEntry{
			Name:    "rate-limit",
			Group:   -70,
			Handler: interceptor.RateLimit(srv.cfg.RateLimit.Rate, srv.cfg.RateLimit.Burst),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Dispatcher returns the dispatcher serving the requests.
func (srv *Server) Dispatcher() *dispatch.Dispatcher {
	return srv.dispatcher
}

// Run builds the registry and starts the HTTP server. It fails before
// listening when the configuration is invalid.
func (srv *Server) Run() error {
	if err := srv.cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to start: %w", err)
	}
	srv.dispatcher.Build()

	srv.mu.Lock()
	srv.httpServer = &http.Server{
		Addr:         srv.cfg.Server.Address,
		Handler:      srv.dispatcher,
		ReadTimeout:  srv.cfg.Server.ReadTimeout,
		WriteTimeout: srv.cfg.Server.WriteTimeout,
		IdleTimeout:  srv.cfg.Server.IdleTimeout,
	}
	srv.mu.Unlock()

	if srv.logger != nil {
		srv.logger.Info("Starting server", zap.String("address", srv.cfg.Server.Address))
	}

	err := srv.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// RegisterShutdownHook registers a function to be called during shutdown.
func (srv *Server) RegisterShutdownHook(hook ShutdownHook) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.shutdownHooks = append(srv.shutdownHooks, hook)
}

// Shutdown gracefully shuts down the server.
func (srv *Server) Shutdown(ctx context.Context) error {
	if srv.logger != nil {
		srv.logger.Info("Starting graceful shutdown")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, srv.shutdownTimeout)
		defer cancel()
	}

	var shutdownErr error
	if err := srv.runShutdownHooks(ctx); err != nil {
		if srv.logger != nil {
			srv.logger.Error("Error running shutdown hooks", zap.Error(err))
		}
		shutdownErr = err
	}

	srv.mu.RLock()
	httpServer := srv.httpServer
	srv.mu.RUnlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			if srv.logger != nil {
				srv.logger.Error("Error shutting down HTTP server", zap.Error(err))
			}
			return err
		}
	}

	if srv.logger != nil {
		srv.logger.Info("Graceful shutdown completed")
	}
	return shutdownErr
}

// runShutdownHooks executes all registered shutdown hooks in parallel.
func (srv *Server) runShutdownHooks(ctx context.Context) error {
	srv.mu.RLock()
	hooks := make([]ShutdownHook, len(srv.shutdownHooks))
	copy(hooks, srv.shutdownHooks)
	srv.mu.RUnlock()

	if len(hooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(hooks))

	for i, hook := range hooks {
		wg.Add(1)
		go func(idx int, h ShutdownHook) {
			defer wg.Done()
			if err := h(ctx); err != nil {
				errChan <- fmt.Errorf("shutdown hook %d failed: %w", idx, err)
			}
		}(i, hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown hooks timed out: %w", ctx.Err())
	}

	close(errChan)
	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown hooks failed: %v", errs)
	}
	return nil
}
