package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	grant_store "github.com/reglet-dev/ankibridge/infrastructure/grantstore"
	"github.com/reglet-dev/ankibridge/infrastructure/prompter"
)

// NewRevokeCommand creates the revoke command.
func NewRevokeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke",
		Short: "Forget a stored permission grant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rootOpts.Config
			store := grant_store.NewFileStore(grant_store.WithPath(cfg.Permission.GrantStorePath))
			perms := prompter.NewTerminalPermissions(prompter.NewCliPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), store, rootOpts.logger())

			if err := perms.Revoke(cfg.Permission.Name); err != nil {
				return WrapExitError(ExitCommandError, "failed to revoke", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", cfg.Permission.Name)
			return err
		},
	}
}
