package wazero

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/reglet-dev/ankibridge/domain/ports"
)

// ErrNullResponse is returned when a guest export returns a zero ptr+len.
var ErrNullResponse = errors.New("null response from guest")

type executorConfig struct {
	logger      *slog.Logger
	adapterOpts []AdapterOption
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*executorConfig)

// WithAdapterOptions passes options to the host module adapter.
func WithAdapterOptions(opts ...AdapterOption) ExecutorOption {
	return func(c *executorConfig) {
		c.adapterOpts = append(c.adapterOpts, opts...)
	}
}

// WithExecutorLogger sets the logger used by the executor and the adapter.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(c *executorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Executor owns a wazero runtime with WASI and the bridge host module.
type Executor struct {
	runtime wazero.Runtime
	logger  *slog.Logger
}

// NewExecutor creates a runtime whose guests call into dispatcher.
func NewExecutor(ctx context.Context, dispatcher ports.Dispatcher, opts ...ExecutorOption) (*Executor, error) {
	cfg := executorConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	adapterOpts := append([]AdapterOption{WithLogger(cfg.logger)}, cfg.adapterOpts...)
	if err := RegisterWithRuntime(ctx, rt, dispatcher, adapterOpts...); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return &Executor{runtime: rt, logger: cfg.logger}, nil
}

// Close releases the runtime and every guest loaded into it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Guest is an instantiated WASM module.
type Guest struct {
	module api.Module
}

// LoadGuest instantiates wasmBytes under name.
func (e *Executor) LoadGuest(ctx context.Context, name string, wasmBytes []byte) (*Guest, error) {
	cfg := wazero.NewModuleConfig().WithName(name).WithStartFunctions()
	mod, err := e.runtime.InstantiateWithConfig(ctx, wasmBytes, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	e.logger.DebugContext(ctx, "guest loaded", "guest", name)
	return &Guest{module: mod}, nil
}

// Name returns the guest module name.
func (g *Guest) Name() string {
	return g.module.Name()
}

// Close releases the guest module.
func (g *Guest) Close(ctx context.Context) error {
	return g.module.Close(ctx)
}

// Call invokes export with input copied into guest memory and returns a copy
// of the bytes behind the packed ptr+len result. Exports that return nothing
// yield nil.
func (g *Guest) Call(ctx context.Context, export string, input []byte) ([]byte, error) {
	packed, hasResult, err := g.callRaw(ctx, export, input)
	if err != nil {
		return nil, err
	}
	if !hasResult {
		return nil, nil
	}

	ptr, length := unpackPtrLen(packed)
	if ptr == 0 || length == 0 {
		return nil, ErrNullResponse
	}
	mem := g.module.Memory()
	if mem == nil {
		return nil, fmt.Errorf("guest %q exports no memory", g.Name())
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("failed to read response from memory")
	}
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}

func (g *Guest) callRaw(ctx context.Context, name string, input []byte) (uint64, bool, error) {
	f := g.module.ExportedFunction(name)
	if f == nil {
		return 0, false, fmt.Errorf("export %q not found", name)
	}

	var results []uint64
	var err error

	if len(input) == 0 {
		results, err = f.Call(ctx)
	} else {
		allocate := g.module.ExportedFunction("allocate")
		if allocate == nil {
			return 0, false, fmt.Errorf("guest does not export 'allocate'")
		}
		resAlloc, errAlloc := allocate.Call(ctx, uint64(len(input)))
		if errAlloc != nil {
			return 0, false, fmt.Errorf("failed to allocate in guest: %w", errAlloc)
		}
		if len(resAlloc) == 0 {
			return 0, false, fmt.Errorf("allocate returned no results")
		}
		ptr := uint32(resAlloc[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
		if mem := g.module.Memory(); mem == nil || !mem.Write(ptr, input) {
			return 0, false, fmt.Errorf("failed to write input to guest memory")
		}
		results, err = f.Call(ctx, uint64(ptr), uint64(len(input)))
	}

	if err != nil {
		var exit *sys.ExitError
		if errors.As(err, &exit) && exit.ExitCode() == 0 {
			return 0, false, nil
		}
		return 0, false, err
	}
	if len(results) == 0 {
		return 0, false, nil
	}
	return results[0], true, nil
}
