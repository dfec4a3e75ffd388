package cmd

import (
	"github.com/spf13/cobra"
)

// parseCmd represents the parse command.
var parseCmd = newParseCmd()

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Load the manifest and summarize the graph",
		Long: `Parse the manifest, print any warnings, and show how many rules,
pools, edges, nodes, defaults and scopes it declares.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := parseArgs()
			if err != nil {
				return err
			}

			return workflow.Summary(cmd.Context(), args)
		},
	}
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
