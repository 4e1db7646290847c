package hostfuncs

import (
	"context"
	"fmt"
	"sort"

	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

// Invoker runs one resolved operation. Middleware wraps Invokers.
type Invoker func(ctx context.Context, api ports.ContentAPI, args Args) (any, error)

// Registry is an immutable table of named operations.
// Once created via NewRegistry, operations cannot be added or removed.
// This ensures thread safety and lock-free lookups during execution.
type Registry struct {
	ops      map[string]Operation
	invokers map[string]Invoker
	names    []string // sorted for consistent iteration
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	ops        map[string]Operation
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable Registry with the given options.
// Returns an error if any operation name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(DefaultBundles(stager)...),
//	    WithOperation(customOp),
//	)
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	b := &registryBuilder{
		ops: make(map[string]Operation),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.ops))
	for name := range b.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	// Apply middleware in reverse order so the first one wraps outermost.
	invokers := make(map[string]Invoker, len(b.ops))
	for name, o := range b.ops {
		wrapped := bind(o)
		for i := len(b.middleware) - 1; i >= 0; i-- {
			wrapped = b.middleware[i](wrapped)
		}
		invokers[name] = wrapped
	}

	return &Registry{
		ops:      b.ops,
		invokers: invokers,
		names:    names,
	}, nil
}

// bind turns a descriptor into an Invoker: validate, call, classify, shape.
func bind(o Operation) Invoker {
	return func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
		if err := validateArgs(o.Name, o.Params, args); err != nil {
			return nil, err
		}
		result, err := o.Invoke(ctx, api, args)
		if err != nil {
			return nil, asHostFailure(o.Name, err)
		}
		if o.Shape != nil {
			result = o.Shape(result)
		}
		return result, nil
	}
}

// Invoke runs the named operation against api.
// An unknown name yields a *errors.NotImplementedError.
func (r *Registry) Invoke(ctx context.Context, api ports.ContentAPI, name string, args Args) (any, error) {
	invoke, ok := r.invokers[name]
	if !ok {
		return nil, &domainerrors.NotImplementedError{Method: name}
	}
	if args == nil {
		args = Args{}
	}
	return invoke(CallContextFrom(ctx, name), api, args)
}

// Has returns true if an operation with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.ops[name]
	return ok
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	o, ok := r.ops[name]
	return o, ok
}

// Names returns a sorted list of all registered operation names.
func (r *Registry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

// Operations returns every descriptor in name order.
func (r *Registry) Operations() []Operation {
	out := make([]Operation, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.ops[name])
	}
	return out
}

// addOperation registers o. Returns an error if the name is empty or taken.
func (b *registryBuilder) addOperation(o Operation) error {
	if o.Name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}
	if o.Invoke == nil {
		return fmt.Errorf("operation %q has no invoke function", o.Name)
	}
	if _, exists := b.ops[o.Name]; exists {
		return fmt.Errorf("duplicate operation name: %q", o.Name)
	}
	b.ops[o.Name] = o
	return nil
}

// WithOperation registers one or more operation descriptors.
func WithOperation(ops ...Operation) RegistryOption {
	return func(b *registryBuilder) {
		for _, o := range ops {
			if err := b.addOperation(o); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
