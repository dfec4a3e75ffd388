package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ngraph.dev/pkg/ngraph/internal/domain"
)

const targetsLongDescription = `List targets by their rule or depth in the graph.

  targets [depth N]   the default targets and their inputs, N levels deep
                      (default 1, 0 for unlimited)
  targets rule [NAME] outputs built by rule NAME, or every source file
  targets all         every output with its rule`

// targetsCmd represents the targets command.
var targetsCmd = newTargetsCmd()

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "targets [depth N | rule [NAME] | all]",
		Short:     "List targets",
		Long:      targetsLongDescription,
		Args:      cobra.MaximumNArgs(2),
		ValidArgs: []string{string(domain.TargetsDepth), string(domain.TargetsRule), string(domain.TargetsAll)},
		RunE: func(cmd *cobra.Command, args []string) error {
			parse, err := parseArgs()
			if err != nil {
				return err
			}

			targets, err := parseTargetsArgs(args)
			if err != nil {
				return err
			}

			targets.ParseArgs = parse

			return workflow.Targets(cmd.Context(), targets)
		},
	}
}

// parseTargetsArgs turns the positional arguments into a mode and its parameter.
func parseTargetsArgs(args []string) (domain.TargetsArgs, error) {
	targets := domain.TargetsArgs{Mode: domain.TargetsDepth, Depth: 1}
	if len(args) == 0 {
		return targets, nil
	}

	targets.Mode = domain.TargetsMode(args[0])

	switch targets.Mode {
	case domain.TargetsDepth:
		if len(args) > 1 {
			depth, err := strconv.Atoi(args[1])
			if err != nil || depth < 0 {
				return targets, fmt.Errorf("invalid depth '%s'", args[1])
			}

			targets.Depth = depth
		}
	case domain.TargetsRule:
		if len(args) > 1 {
			targets.Rule = args[1]
		}
	case domain.TargetsAll:
		if len(args) > 1 {
			return targets, fmt.Errorf("targets all takes no argument")
		}
	default:
		return targets, fmt.Errorf("unknown target tool mode '%s'; use one of: depth, rule, all", args[0])
	}

	return targets, nil
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
