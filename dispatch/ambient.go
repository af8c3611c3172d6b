package dispatch

import "context"

// The ambient request binding: every chain element, parameter provider,
// processor and handler runs with a context.Context that carries the request
// Ctx. Child goroutines spawned with that context inherit the binding, and
// two concurrent requests can never observe each other's Ctx because each
// dispatch derives its own context tree.

type ctxKey struct{}

// WithCtx returns a context carrying the request Ctx.
func WithCtx(parent context.Context, c *Ctx) context.Context {
	return context.WithValue(parent, ctxKey{}, c)
}

// FromContext returns the Ctx of the request this context belongs to.
func FromContext(ctx context.Context) (*Ctx, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Ctx)
	return c, ok
}

// MustFromContext is like FromContext but panics when the context does not
// belong to a request. Intended for code that only ever runs inside a chain.
func MustFromContext(ctx context.Context) *Ctx {
	c, ok := FromContext(ctx)
	if !ok {
		panic("dispatch: context does not carry a request")
	}
	return c
}

// ChainFromContext returns the chain view of the request this context
// belongs to.
func ChainFromContext(ctx context.Context) (*Chain, bool) {
	c, ok := FromContext(ctx)
	if !ok || c.chain == nil {
		return nil, false
	}
	return c.chain, true
}
