package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/ankibridge/application/schema"
	"github.com/reglet-dev/ankibridge/config"
	"github.com/reglet-dev/ankibridge/hostfuncs"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	ConfigSchema bool
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print JSON Schemas for every method's arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ConfigSchema, "config-schema", false, "print the configuration file schema instead")

	return cmd
}

func runSchema(cmd *cobra.Command, opts *SchemaOptions) error {
	var (
		data []byte
		err  error
	)
	if opts.ConfigSchema {
		data, err = schema.GenerateSchema(config.Config{})
	} else {
		var registry *hostfuncs.Registry
		// A placeholder stager keeps addMedia in the catalog.
		registry, err = hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.DefaultBundles(catalogStager{})...))
		if err == nil {
			data, err = schema.GenerateCatalog(registry.Operations())
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to generate schema", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
