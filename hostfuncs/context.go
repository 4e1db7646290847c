package hostfuncs

import (
	"context"

	"github.com/google/uuid"
)

// CallContext wraps a standard context.Context with per-call information:
// the invoked method name and a call id shared by every middleware layer.
type CallContext interface {
	context.Context

	// Method returns the name of the operation being invoked.
	Method() string

	// CallID returns the unique id of this call.
	CallID() string
}

// callContext is the concrete implementation of CallContext.
type callContext struct {
	context.Context
	method string
	callID string
}

// NewCallContext creates a new CallContext wrapping the given context.
func NewCallContext(ctx context.Context, method string) CallContext {
	return &callContext{
		Context: ctx,
		method:  method,
		callID:  newCallID(),
	}
}

func newCallID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Method returns the name of the operation being invoked.
func (c *callContext) Method() string {
	return c.method
}

// CallID returns the unique id of this call.
func (c *callContext) CallID() string {
	return c.callID
}

// CallContextFrom returns ctx itself when it is already the CallContext of
// method. Any other context, including a CallContext left over from a
// different call, is wrapped in a fresh CallContext with a new call id.
func CallContextFrom(ctx context.Context, method string) CallContext {
	if cc, ok := ctx.(CallContext); ok && cc.Method() == method {
		return cc
	}
	return NewCallContext(ctx, method)
}
