package bridge

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reglet-dev/ankibridge/domain/entities"
	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/ports"
	"github.com/reglet-dev/ankibridge/hostfuncs"
	"github.com/reglet-dev/ankibridge/permission"
)

// Permission method names. They bypass the gate.
const (
	MethodCheckPermission = "checkPermission"

	// MethodRequestPermission keeps the spelling existing callers send.
	MethodRequestPermission      = "requestPremission"
	MethodRequestPermissionAlias = "requestPermission"
)

// State is the attachment state of a Bridge.
type State int

const (
	StateUnattached State = iota
	StateAttached
	StateAttachedUI
)

func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateAttachedUI:
		return "attached_ui"
	default:
		return "unattached"
	}
}

// Resolve receives the single outcome of a dispatched call.
type Resolve func(entities.Outcome)

var _ ports.Dispatcher = (*Bridge)(nil)

// Bridge dispatches named calls to the host engine behind the permission gate.
type Bridge struct {
	gate     *permission.Gate
	registry *hostfuncs.Registry
	denials  ports.DenialHandler
	logger   *slog.Logger

	mu  sync.RWMutex
	api ports.ContentAPI
	ui  ports.UIContext
}

// New creates an unattached Bridge guarded by gate.
func New(gate *permission.Gate, opts ...Option) (*Bridge, error) {
	if gate == nil {
		return nil, fmt.Errorf("bridge: gate is required")
	}
	cfg := defaultBridgeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.complete(); err != nil {
		return nil, fmt.Errorf("bridge: build registry: %w", err)
	}

	return &Bridge{
		gate:     gate,
		registry: cfg.registry,
		denials:  cfg.denials,
		logger:   cfg.logger,
	}, nil
}

// Registry returns the operation registry the bridge dispatches to.
func (b *Bridge) Registry() *hostfuncs.Registry {
	return b.registry
}

// Attach connects the host engine.
func (b *Bridge) Attach(api ports.ContentAPI) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.api = api
	b.logger.Debug("bridge attached")
}

// Detach disconnects the host engine and any UI context. A pending permission
// request is abandoned, not resolved.
func (b *Bridge) Detach() {
	b.mu.Lock()
	b.api = nil
	b.ui = nil
	b.mu.Unlock()
	b.gate.Abandon()
	b.logger.Debug("bridge detached")
}

// AttachUI sets the context that hosts permission prompts.
func (b *Bridge) AttachUI(ui ports.UIContext) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ui = ui
}

// DetachUI clears the UI context. A pending permission request is abandoned.
func (b *Bridge) DetachUI() {
	b.mu.Lock()
	b.ui = nil
	b.mu.Unlock()
	b.gate.Abandon()
}

// State reports the current attachment state.
func (b *Bridge) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	switch {
	case b.api == nil:
		return StateUnattached
	case b.ui == nil:
		return StateAttached
	default:
		return StateAttachedUI
	}
}

// Dispatch runs method and hands its outcome to resolve exactly once.
// Most methods resolve before Dispatch returns; a permission request that
// needs a prompt resolves later, from the goroutine delivering the OS result.
func (b *Bridge) Dispatch(ctx context.Context, method string, args map[string]any, resolve Resolve) {
	switch method {
	case MethodCheckPermission:
		resolve(entities.Success(b.gate.CheckGranted()))
		return
	case MethodRequestPermission, MethodRequestPermissionAlias:
		b.requestPermission(method, resolve)
		return
	}

	if !b.gate.CheckGranted() {
		b.denials.OnDenial(method, b.gate.Permission())
		resolve(failure(&domainerrors.PermissionDeniedError{Method: method, Permission: b.gate.Permission()}))
		return
	}

	if !b.registry.Has(method) {
		resolve(entities.NotImplemented())
		return
	}

	b.mu.RLock()
	api := b.api
	b.mu.RUnlock()
	if api == nil {
		resolve(failure(&domainerrors.HostCallFailedError{Method: method, Err: domainerrors.ErrNotAttached}))
		return
	}

	result, err := b.registry.Invoke(ctx, api, method, hostfuncs.Args(args))
	if err != nil {
		var nie *domainerrors.NotImplementedError
		if stdErrors.As(err, &nie) {
			resolve(entities.NotImplemented())
			return
		}
		resolve(failure(err))
		return
	}
	resolve(entities.Success(result))
}

// Call dispatches method and waits for its outcome or for ctx to end.
func (b *Bridge) Call(ctx context.Context, method string, args map[string]any) (entities.Outcome, error) {
	done := make(chan entities.Outcome, 1)
	b.Dispatch(ctx, method, args, func(out entities.Outcome) {
		done <- out
	})

	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		return entities.Outcome{}, ctx.Err()
	}
}

func (b *Bridge) requestPermission(method string, resolve Resolve) {
	b.mu.RLock()
	ui := b.ui
	b.mu.RUnlock()

	err := b.gate.RequestGranted(ui, func(granted bool) {
		resolve(entities.Success(granted))
	})
	if err != nil {
		resolve(entities.Failure(&entities.ErrorDetail{
			Type:    entities.ErrorTypePermissionDenied,
			Code:    method,
			Message: err.Error(),
		}))
	}
}

func failure(err error) entities.Outcome {
	return entities.Failure(domainerrors.ToErrorDetail(err))
}
