package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	rserrors "github.com/stijnvanbael/redstone/errors"
	"github.com/stijnvanbael/redstone/response"
)

// InterceptorFunc wraps route execution. It runs its "before" work, calls
// Next (optionally scheduling a continuation for the unwind), or Interrupt to
// stop the chain.
type InterceptorFunc func(ctx context.Context, ch *Chain) error

// HandlerFunc is a route or error handler. args holds the resolved parameter
// values in declaration order.
type HandlerFunc func(ctx context.Context, args []any) (response.Value, error)

// Continuation is deferred work scheduled through Next. It runs after every
// deeper chain element has completed, producing the LIFO unwind order.
type Continuation func(ctx context.Context) error

type element struct {
	name     string
	isTarget bool
	run      func(ctx context.Context, ch *Chain) error
}

// Chain drives the ordered execution of the interceptors matching a request
// plus the target handler. Elements execute strictly one at a time; no two
// elements of the same chain ever run concurrently.
type Chain struct {
	ctx      *Ctx
	elements []element
	cursor   int
	// interrupted is set by Interrupt; once true no further element runs,
	// though continuations already scheduled by shallower elements still do.
	interrupted bool
	// routeStatus holds a pending error-router status from Interrupt.
	routeStatus int
}

func newChain(c *Ctx, elements []element) *Chain {
	ch := &Chain{ctx: c, elements: elements}
	c.chain = ch
	return ch
}

// Interrupted reports whether the chain was interrupted.
func (ch *Chain) Interrupted() bool {
	return ch.interrupted
}

// Error returns the failure recorded for the request, if any.
func (ch *Chain) Error() error {
	return ch.ctx.err
}

// Next executes the next element of the chain, then runs the given
// continuations. The continuations run after every deeper element has fully
// completed, so shallower interceptors unwind in reverse order of their
// "before" phases. A failure from a deeper element propagates through Next
// after the continuations have run, letting an interceptor observe or
// swallow it.
func (ch *Chain) Next(after ...Continuation) error {
	var err error
	if !ch.interrupted {
		ch.cursor++
		if ch.cursor < len(ch.elements) {
			err = ch.runElement(ch.cursor)
		}
	}
	for _, f := range after {
		if cerr := ch.runContinuation(f); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Interrupt stops the chain. A status of 400 or above routes the request to
// the error router once the chain has unwound. Otherwise, a non-nil value
// becomes the final response value, frozen against later writes, and a
// non-zero status becomes the response status. Elements deeper than the
// interrupt point never execute.
func (ch *Chain) Interrupt(status int, v response.Value, contentType string) error {
	if ch.interrupted {
		return nil
	}
	ch.interrupted = true

	if status >= http.StatusBadRequest {
		ch.routeStatus = status
		return nil
	}
	if status > 0 {
		ch.ctx.SetStatus(status)
	}
	if v != nil {
		ch.ctx.SetResponse(v, contentType)
		ch.ctx.freeze()
	}
	return nil
}

// Abort interrupts the chain and routes the given status to the error
// router.
func (ch *Chain) Abort(status int) error {
	return ch.Interrupt(status, nil, "")
}

// Redirect interrupts the chain with a 302 redirect to url.
func (ch *Chain) Redirect(url string) error {
	ch.ctx.Response().Header().Set("Location", url)
	return ch.Interrupt(http.StatusFound, nil, "")
}

// run starts the chain at its first element.
func (ch *Chain) run() error {
	if len(ch.elements) == 0 {
		return nil
	}
	return ch.runElement(0)
}

// runElement executes one element, catching panics at the boundary and
// detecting elements that return without signaling completion.
func (ch *Chain) runElement(i int) error {
	el := ch.elements[i]
	err := ch.invoke(el)

	// An interceptor that returns without calling Next or Interrupt leaves
	// the chain unable to advance.
	if err == nil && !el.isTarget && !ch.interrupted && ch.cursor == i {
		err = &rserrors.StallError{Element: el.name}
	}
	if err != nil && ch.ctx.err == nil {
		ch.ctx.err = err
	}
	return err
}

func (ch *Chain) invoke(el element) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicFailure(r)
		}
	}()
	return el.run(ch.ctx.Context(), ch)
}

func (ch *Chain) runContinuation(f Continuation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicFailure(r)
		}
	}()
	return f(ch.ctx.Context())
}

// panicFailure preserves the recovered value and stack of a panicking
// element for diagnostic rendering.
type panicFailure struct {
	value any
	stack []byte
}

func newPanicFailure(value any) *panicFailure {
	stack := make([]byte, 4<<10)
	stack = stack[:runtime.Stack(stack, false)]
	return &panicFailure{value: value, stack: stack}
}

func (p *panicFailure) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// Stack returns the captured stack trace.
func (p *panicFailure) Stack() []byte {
	return p.stack
}
