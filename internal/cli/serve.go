package cli

import (
	"context"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/ankibridge/infrastructure/httpapi"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge over HTTP",
		Long: `Serve the bridge over HTTP until interrupted.

Routes:
  GET  /healthz
  GET  /v1/methods
  GET  /v1/methods/{name}/schema
  POST /v1/methods/{name}        body: JSON object of arguments

Permission prompts appear on this terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	addr := opts.Config.HTTP.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	a, err := newApp(opts.Config, opts.logger(), cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start bridge", err)
	}
	defer a.Close()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := httpapi.NewHandler(a.bridge,
		httpapi.WithLogger(opts.logger()),
		httpapi.WithRegistry(a.bridge.Registry()),
		httpapi.WithMaxRequestSize(opts.Config.HTTP.MaxRequestSize),
	)
	return httpapi.Serve(ctx, ln, h, opts.logger())
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
