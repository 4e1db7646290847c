// Package cli implements the ankibridge command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/ankibridge/config"
	bridgelog "github.com/reglet-dev/ankibridge/log"
)

// RootOptions holds global flags and the state they resolve to.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFormat  string

	Config config.Config
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the ankibridge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ankibridge",
		Short: "Permission-gated bridge to a flashcard collection",
		Long: `ankibridge exposes a flashcard collection (notes, models, decks and media)
to untrusted callers. Every call except checkPermission and the permission
request itself needs the collection permission, granted interactively.

Quick Start:
  ankibridge call requestPermission     # grant access
  ankibridge call deckList              # run one method
  ankibridge serve                      # HTTP transport
  ankibridge run-wasm guest.wasm        # run a WASM guest against the bridge`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with ANKIBRIDGE_* overrides")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCallCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewRunWasmCommand(opts))
	cmd.AddCommand(NewRevokeCommand(opts))

	return cmd
}

// resolve loads the configuration and builds the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath, o.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}

	level, err := bridgelog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	format, err := bridgelog.ParseFormat(cfg.Log.Format)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log format", err)
	}

	o.Config = cfg
	o.Logger = bridgelog.New(
		bridgelog.WithLevel(level),
		bridgelog.WithFormat(format),
		bridgelog.WithOutput(cmd.ErrOrStderr()),
	)
	return nil
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
