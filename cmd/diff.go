package cmd

import (
	"github.com/spf13/cobra"

	"ngraph.dev/pkg/ngraph/internal/domain"
	m "ngraph.dev/pkg/ngraph/internal/model"
)

// diffCmd represents the diff command.
var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare the graphs of two manifests",
		Long: `Parse both manifests and print a unified diff of their graph
snapshots. Only the graphs are compared, not the manifest text.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parse, err := parseArgs()
			if err != nil {
				return err
			}

			return workflow.Diff(cmd.Context(), domain.DiffArgs{
				ParseArgs: parse,
				Old:       m.Path(args[0]),
				New:       m.Path(args[1]),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
