package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ngraph.dev/pkg/ngraph/internal/domain"
)

var checkParallelFlag int

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check MANIFEST...",
		Short: "Parse several manifests and report which fail",
		Long: `Parse each manifest on its own, several at a time, and print one row
per manifest. Exits non-zero when any manifest fails to parse.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parse, err := parseArgs()
			if err != nil {
				return err
			}

			return workflow.Check(cmd.Context(), domain.CheckArgs{
				ParseArgs: parse,
				Manifests: parsePaths(args),
				Parallel:  viper.GetInt(checkParallelKey),
			})
		},
	}

	configureCheckFlags(cmd)

	return cmd
}

func configureCheckFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&checkParallelFlag, checkParallelFlagName, "j", viper.GetInt(checkParallelKey), "number of manifests to parse at once")
	bindFlagToConfig(cmd.Flags().Lookup(checkParallelFlagName), checkParallelKey)
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
