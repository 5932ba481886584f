package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/virtualizer/pkg/scenario"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the scenario JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(scenario.Schema())

			return err
		},
	}
}
