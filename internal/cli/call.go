package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/ankibridge/hostfuncs"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Args string
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <method>",
		Short: "Run one bridge method against the local collection",
		Long: `Run one bridge method and print its outcome as JSON.

The exit status is 0 for a success outcome, 1 for error or not_implemented.

Example:
  ankibridge call addNewDeck --args '{"deckName":"Spanish"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Args, "args", "{}", "method arguments as a JSON object")

	return cmd
}

func runCall(cmd *cobra.Command, opts *CallOptions, method string) error {
	args, err := hostfuncs.DecodeArgs([]byte(opts.Args))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --args JSON", err)
	}

	a, err := newApp(opts.Config, opts.logger(), cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start bridge", err)
	}
	defer a.Close()

	out, err := a.bridge.Call(cmd.Context(), method, args)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("call %s", method), err)
	}
	return writeOutcome(cmd.OutOrStdout(), out)
}
