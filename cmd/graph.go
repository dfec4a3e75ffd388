package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ngraph.dev/pkg/ngraph/internal/domain"
	m "ngraph.dev/pkg/ngraph/internal/model"
)

const graphOutputKey = "graph.output"

var graphOutputFlag string

// graphCmd represents the graph command.
var graphCmd = newGraphCmd()

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Dump the parsed graph as YAML",
		Long: `Write a YAML snapshot of the parsed graph: pools, edges in creation
order, nodes sorted by path, and default targets. Without --output the
snapshot goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parse, err := parseArgs()
			if err != nil {
				return err
			}

			return workflow.Dump(cmd.Context(), domain.DumpArgs{
				ParseArgs: parse,
				Output:    m.Path(viper.GetString(graphOutputKey)),
				Out:       cmd.OutOrStdout(),
			})
		},
	}

	configureGraphFlags(cmd)

	return cmd
}

func configureGraphFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&graphOutputFlag, outputFlagName, "o", "", "write the snapshot to this file")
	bindFlagToConfig(cmd.Flags().Lookup(outputFlagName), graphOutputKey)
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
