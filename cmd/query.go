package cmd

import (
	"github.com/spf13/cobra"

	"ngraph.dev/pkg/ngraph/internal/domain"
)

// queryCmd represents the query command.
var queryCmd = newQueryCmd()

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query TARGET...",
		Short: "Show inputs and outputs of targets",
		Long: `For each target, show the rule that produces it with its inputs by
block, its dyndep file, and the outputs of every edge that consumes it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parse, err := parseArgs()
			if err != nil {
				return err
			}

			return workflow.Query(cmd.Context(), domain.QueryArgs{
				ParseArgs: parse,
				Targets:   args,
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
