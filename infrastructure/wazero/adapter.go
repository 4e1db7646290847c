package wazero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/ankibridge/domain/entities"
	domainerrors "github.com/reglet-dev/ankibridge/domain/errors"
	"github.com/reglet-dev/ankibridge/domain/ports"
	bridgelog "github.com/reglet-dev/ankibridge/log"
)

const (
	// DefaultModuleName is the host module guests import from.
	DefaultModuleName = "ankibridge_host"

	// DefaultMaxRequestSize limits a single guest request (1MB).
	DefaultMaxRequestSize uint32 = 1 << 20

	invokeMethodExport = "invoke_method"
	logMessageExport   = "log_message"
)

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Policy restricts which methods a guest may call. Nil allows all.
	Policy MethodPolicy

	// Logger receives adapter diagnostics and replayed guest logs.
	Logger *slog.Logger

	// ModuleName is the host module name (default: "ankibridge_host").
	ModuleName string

	// MaxRequestSize limits the size of incoming requests from guest memory.
	MaxRequestSize uint32
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum request size from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithMethodPolicy sets the guest method policy.
func WithMethodPolicy(p MethodPolicy) AdapterOption {
	return func(c *AdapterConfig) {
		c.Policy = p
	}
}

// WithAllowedMethods restricts guests to the named methods.
func WithAllowedMethods(methods ...string) AdapterOption {
	return WithMethodPolicy(AllowMethods(methods...))
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: DefaultMaxRequestSize,
		Logger:         slog.Default(),
	}
}

// InvokeRequest is the JSON a guest passes to invoke_method.
type InvokeRequest struct {
	Args   map[string]any `json:"args,omitempty"`
	Method string         `json:"method"`
}

// RegisterWithRuntime instantiates the host module on runtime, routing
// invoke_method calls to dispatcher.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, dispatcher ports.Dispatcher, opts ...AdapterOption) error {
	if dispatcher == nil {
		return fmt.Errorf("wazero: dispatcher is required")
	}
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ctx = WithGuestName(ctx, GetGuestName(ctx, mod))
			handleInvoke(ctx, mod, stack, dispatcher, &cfg)
		}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export(invokeMethodExport)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			handleLog(ctx, mod, stack, &cfg)
		}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{}).
		Export(logMessageExport)

	_, err := builder.Instantiate(ctx)
	return err
}

// handleInvoke reads the request from guest memory, dispatches it and writes
// the outcome back.
func handleInvoke(ctx context.Context, mod api.Module, stack []uint64, dispatcher ports.Dispatcher, cfg *AdapterConfig) {
	ptr, length := unpackPtrLen(stack[0])

	if length > cfg.MaxRequestSize {
		err := &domainerrors.ContractViolationError{
			Method: invokeMethodExport,
			Err:    fmt.Errorf("request size %d exceeds maximum %d bytes", length, cfg.MaxRequestSize),
		}
		cfg.Logger.ErrorContext(ctx, "wazero: request too large", "size", length)
		stack[0] = writeOutcome(ctx, mod, cfg.Logger, entities.Failure(domainerrors.ToErrorDetail(err)))
		return
	}

	request, ok := mod.Memory().Read(ptr, length)
	if !ok {
		err := &domainerrors.HostCallFailedError{
			Method: invokeMethodExport,
			Err:    fmt.Errorf("failed to read request from guest memory"),
		}
		cfg.Logger.ErrorContext(ctx, "wazero: bad request pointer", "ptr", ptr, "length", length)
		stack[0] = writeOutcome(ctx, mod, cfg.Logger, entities.Failure(domainerrors.ToErrorDetail(err)))
		return
	}

	stack[0] = writeResponse(ctx, mod, cfg.Logger, invokeFromGuest(ctx, dispatcher, cfg.Policy, request))
}

// invokeFromGuest decodes one request, runs it and returns the encoded outcome.
func invokeFromGuest(ctx context.Context, dispatcher ports.Dispatcher, policy MethodPolicy, request []byte) []byte {
	out := invokeOutcome(ctx, dispatcher, policy, request)
	data, err := json.Marshal(out)
	if err != nil {
		data, _ = json.Marshal(entities.Failure(domainerrors.ToErrorDetail(
			&domainerrors.HostCallFailedError{Method: invokeMethodExport, Err: err})))
	}
	return data
}

func invokeOutcome(ctx context.Context, dispatcher ports.Dispatcher, policy MethodPolicy, request []byte) entities.Outcome {
	var req InvokeRequest
	dec := json.NewDecoder(bytes.NewReader(request))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return entities.Failure(domainerrors.ToErrorDetail(
			&domainerrors.ContractViolationError{Method: invokeMethodExport, Err: err}))
	}
	if req.Method == "" {
		return entities.Failure(domainerrors.ToErrorDetail(&domainerrors.ContractViolationError{
			Method: invokeMethodExport, Argument: "method", Expected: "string",
		}))
	}

	guest, _ := GuestNameFromContext(ctx)
	if policy != nil {
		if err := policy.Allow(guest, req.Method); err != nil {
			return entities.Failure(domainerrors.ToErrorDetail(err))
		}
	}

	out, err := dispatcher.Call(ctx, req.Method, req.Args)
	if err != nil {
		return entities.Failure(domainerrors.ToErrorDetail(
			&domainerrors.HostCallFailedError{Method: req.Method, Err: err}))
	}
	return out
}

func handleLog(ctx context.Context, mod api.Module, stack []uint64, cfg *AdapterConfig) {
	ptr, length := unpackPtrLen(stack[0])
	if length > cfg.MaxRequestSize {
		return
	}
	payload, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return
	}
	bridgelog.Replay(ctx, cfg.Logger.With(slog.String("guest", GetGuestName(ctx, mod))), payload)
}

func writeOutcome(ctx context.Context, mod api.Module, logger *slog.Logger, out entities.Outcome) uint64 {
	data, err := json.Marshal(out)
	if err != nil {
		logger.ErrorContext(ctx, "wazero: encode outcome", "error", err)
		return 0
	}
	return writeResponse(ctx, mod, logger, data)
}

// writeResponse allocates memory in the guest and writes the response bytes.
// Returns packed ptr+len or 0 on failure.
func writeResponse(ctx context.Context, mod api.Module, logger *slog.Logger, data []byte) uint64 {
	allocateFn := mod.ExportedFunction("allocate")
	if allocateFn == nil {
		logger.ErrorContext(ctx, "wazero: guest module missing 'allocate' export")
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil || len(results) == 0 {
		logger.ErrorContext(ctx, "wazero: failed to call guest allocate", "error", err)
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit

	if !mod.Memory().Write(ptr, data) {
		logger.ErrorContext(ctx, "wazero: failed to write response to guest memory")
		return 0
	}

	return packPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: Data length is bounded by config
}

// packPtrLen packs a pointer and length into a single i64.
// Upper 32 bits: pointer, lower 32 bits: length.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}
