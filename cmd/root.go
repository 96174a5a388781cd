// Package cmd provides the root command and CLI setup for crucible.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/crucible/internal/adapter"
	"gooze.dev/pkg/crucible/internal/controller"
)

var reportStore adapter.ReportStore
var mutantStore adapter.MutantStore
var ui controller.UI

// reportOutputFlag is a root-level flag shared by commands that write reports.
var reportOutputFlag string

// mutantsFileFlag points at the mutant plan produced by a generator.
var mutantsFileFlag string

var verboseFlag bool
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))

	store := adapter.NewYAMLStore()
	reportStore = store
	mutantStore = store
}

const rootLongDescription = `Crucible is a mutation testing engine. It applies the mutants of a plan
to the code under test one at a time, runs the test suite against each of them
in isolated worker processes, and reports which mutants the tests killed.

Mutants are read from a YAML plan (see --mutants). Workers that crash, hang or
run out of memory are restarted and the affected mutant is retried.`

const runLongDescription = `Run the test suite against every mutant of the plan and write a report.

Use --shard INDEX/TOTAL to split a plan across several machines.`

const listLongDescription = `List the files of the mutant plan and how many mutants each holds.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "crucible",
		Short:        "Out-of-process mutation testing engine",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportOutputFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"path of the mutation testing report",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVarP(&mutantsFileFlag, mutantsFlagName, "m", viper.GetString(mutantsFileKey), "YAML file listing the mutants to test")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(mutantsFlagName), mutantsFileKey)

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

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
