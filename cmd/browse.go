package cmd

import (
	"github.com/spf13/cobra"
)

// browseCmd represents the browse command.
var browseCmd = newBrowseCmd()

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the graph interactively",
		Long: `Open an interactive browser over the parsed graph's nodes and edges.
When stdout is not a terminal every edge is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := parseArgs()
			if err != nil {
				return err
			}

			return workflow.Browse(cmd.Context(), args)
		},
	}
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
