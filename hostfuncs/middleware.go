package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

// Middleware is a function that wraps an Invoker to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	timing := func(next Invoker) Invoker {
//	    return func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
//	        start := time.Now()
//	        defer func() { fmt.Println(time.Since(start)) }()
//	        return next(ctx, api, args)
//	    }
//	}
type Middleware func(next Invoker) Invoker

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that catches panics and converts
// them to a HostCallFailed error instead of crashing the bridge.
func PanicRecoveryMiddleware() Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, api ports.ContentAPI, args Args) (result any, err error) {
			defer func() {
				if r := recover(); r != nil {
					result = nil
					err = &domainerrors.HostCallFailedError{
						Method: methodOf(ctx),
						Err:    fmt.Errorf("panic: %v", r),
					}
				}
			}()
			return next(ctx, api, args)
		}
	}
}

// LoggingMiddleware returns a middleware that logs every invocation with its
// method, call id, duration and failure type.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Invoker) Invoker {
		return func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
			attrs := []any{slog.String("method", methodOf(ctx))}
			if cc, ok := ctx.(CallContext); ok {
				attrs = append(attrs, slog.String("call_id", cc.CallID()))
			}

			start := time.Now()
			result, err := next(ctx, api, args)
			attrs = append(attrs, slog.Duration("duration", time.Since(start)))

			if err != nil {
				attrs = append(attrs,
					slog.String("error_type", domainerrors.TypeOf(err)),
					slog.String("error", err.Error()),
				)
				logger.WarnContext(ctx, "operation failed", attrs...)
				return nil, err
			}
			logger.DebugContext(ctx, "operation completed", attrs...)
			return result, nil
		}
	}
}

func methodOf(ctx context.Context) string {
	if cc, ok := ctx.(CallContext); ok {
		return cc.Method()
	}
	return "unknown"
}
