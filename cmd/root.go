// Package cmd provides the root command and CLI setup for ngraph.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ngraph.dev/pkg/ngraph/internal/adapter"
	"ngraph.dev/pkg/ngraph/internal/controller"
	"ngraph.dev/pkg/ngraph/internal/ctxlog"
	"ngraph.dev/pkg/ngraph/internal/domain"
	m "ngraph.dev/pkg/ngraph/internal/model"
)

var fileReader adapter.FileReader
var graphStore adapter.GraphStore
var workflow domain.Workflow
var ui controller.UI

var manifestFlag string
var dirFlag string
var warningFlags []string
var quietFlag bool
var verboseFlag bool
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fileReader = adapter.NewLocalFileReader()
	graphStore = adapter.NewGraphStore(afero.NewOsFs())
	workflow = domain.NewWorkflow(
		fileReader,
		graphStore,
		ui,
		domain.NewVersionChecker(domain.ManifestVersion),
	)
}

const rootLongDescription = `ngraph loads ninja build manifests into an in-memory build graph and
lets you inspect it: count what a manifest declares, list and query
targets, dump the graph as YAML, diff two manifests, check many
manifests at once, or browse the graph interactively.

Subninja files may carry a 'chdir = DIR' binding; the nested file is
then read from DIR and its paths are rooted there.`

const warningHelp = `adjust warnings (can be repeated):
  dupbuild=err|warn    multiple build lines for one target
  phonycycle=err|warn  phony build statement references itself`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "ngraph",
		Short:        "Ninja build manifest graph tool",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger := configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
			ctx := ctxlog.WithLogger(cmd.Context(), logger)
			cmd.SetContext(ctx)

			if dirFlag == "" {
				return nil
			}

			logger.Debug("changing directory", "dir", dirFlag)

			if err := fileReader.Chdir(ctx, m.Path(dirFlag)); err != nil {
				return fmt.Errorf("chdir to '%s': %w", dirFlag, err)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&manifestFlag, fileFlagName, "f", viper.GetString(manifestFileKey), "manifest to load")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(fileFlagName), manifestFileKey)

	cmd.PersistentFlags().StringVarP(&dirFlag, dirFlagName, "C", "", "change to DIR before doing anything else")

	cmd.PersistentFlags().StringArrayVarP(&warningFlags, warningFlagName, "w", nil, warningHelp)

	cmd.PersistentFlags().BoolVar(&quietFlag, quietFlagName, viper.GetBool(quietKey), "don't report parser warnings")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(quietFlagName), quietKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// parseArgs collects the manifest and parser policies from config and flags.
// -w values override the configured warning policies.
func parseArgs() (domain.ParseArgs, error) {
	dupbuild := viper.GetString(dupbuildKey)
	phonycycle := viper.GetString(phonycycleKey)

	for _, flag := range warningFlags {
		name, value, ok := strings.Cut(flag, "=")
		if !ok {
			return domain.ParseArgs{}, fmt.Errorf("invalid -w value '%s'; expected NAME=err|warn", flag)
		}

		switch name {
		case "dupbuild":
			dupbuild = value
		case "phonycycle":
			phonycycle = value
		default:
			return domain.ParseArgs{}, fmt.Errorf("unknown warning flag '%s'", name)
		}
	}

	dupeAction, err := parseDupbuild(dupbuild)
	if err != nil {
		return domain.ParseArgs{}, err
	}

	cycleAction, err := parsePhonycycle(phonycycle)
	if err != nil {
		return domain.ParseArgs{}, err
	}

	return domain.ParseArgs{
		Manifest:         m.Path(viper.GetString(manifestFileKey)),
		DupeEdgeAction:   dupeAction,
		PhonyCycleAction: cycleAction,
		Quiet:            viper.GetBool(quietKey),
	}, nil
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
