package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/ankibridge/infrastructure/wazero"
)

// RunWasmOptions holds flags for the run-wasm command.
type RunWasmOptions struct {
	*RootOptions
	Export  string
	Input   string
	Allow   []string
	MaxSize uint32
}

// NewRunWasmCommand creates the run-wasm command.
func NewRunWasmCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunWasmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run-wasm <module.wasm>",
		Short: "Run a WebAssembly guest against the bridge",
		Long: `Load a WebAssembly module and call one of its exports. The guest reaches
the bridge through the "ankibridge_host" module:

  invoke_method(i64) i64   packed ptr+len of {"method": ..., "args": {...}}
  log_message(i64)         packed ptr+len of a JSON log record

If the export returns a packed ptr+len, the bytes it points to are printed.

Example:
  ankibridge run-wasm importer.wasm --export run --allow addNote,deckList`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWasm(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Export, "export", "run", "export to call")
	cmd.Flags().StringVar(&opts.Input, "input", "", "bytes passed to the export")
	cmd.Flags().StringSliceVar(&opts.Allow, "allow", nil, "methods the guest may call (default all)")
	cmd.Flags().Uint32Var(&opts.MaxSize, "max-request-size", wazero.DefaultMaxRequestSize, "largest guest request in bytes")

	return cmd
}

func runWasm(cmd *cobra.Command, opts *RunWasmOptions, path string) error {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read module", err)
	}

	a, err := newApp(opts.Config, opts.logger(), cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start bridge", err)
	}
	defer a.Close()

	adapterOpts := []wazero.AdapterOption{wazero.WithMaxRequestSize(opts.MaxSize)}
	if len(opts.Allow) > 0 {
		adapterOpts = append(adapterOpts, wazero.WithAllowedMethods(opts.Allow...))
	}

	ctx := contextOf(cmd)
	exec, err := wazero.NewExecutor(ctx, a.bridge,
		wazero.WithExecutorLogger(opts.logger()),
		wazero.WithAdapterOptions(adapterOpts...),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start runtime", err)
	}
	defer exec.Close(ctx)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	guest, err := exec.LoadGuest(ctx, name, wasmBytes)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load module", err)
	}

	out, err := guest.Call(ctx, opts.Export, []byte(opts.Input))
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("export %s failed", opts.Export), err)
	}
	if len(out) > 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	return err
}
