package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/crucible/internal/adapter"
	"gooze.dev/pkg/crucible/internal/childproc"
	"gooze.dev/pkg/crucible/internal/domain"
	"gooze.dev/pkg/crucible/internal/metrics"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

const metricsNamespace = "crucible"

// newCampaign is swapped in tests.
var newCampaign = domain.NewCampaign

var runConcurrencyFlag int
var runShardFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run mutation testing",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			opts, err := campaignOptions(runShardFlag)
			if err != nil {
				return err
			}

			mutants, err := mutantStore.LoadMutants(m.Path(viper.GetString(mutantsFileKey)))
			if err != nil {
				return err
			}

			collector, stop := startMetrics(viper.GetString(metricsAddrKey))
			defer stop()

			deps, err := campaignDeps(mutants, collector)
			if err != nil {
				return err
			}

			_, err = newCampaign(deps).Run(ctx, mutants, opts)

			return err
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.IntVarP(&runConcurrencyFlag, concurrencyFlagName, "c", viper.GetInt(concurrencyKey), "number of parallel workers")
	bindFlagToConfig(flags.Lookup(concurrencyFlagName), concurrencyKey)
	flags.StringVarP(&runShardFlag, "shard", "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")

	flags.Int(maxTestRunnerReuseFlagName, viper.GetInt(maxTestRunnerReuseKey), "restart a test runner after this many runs (0 reuses forever)")
	bindFlagToConfig(flags.Lookup(maxTestRunnerReuseFlagName), maxTestRunnerReuseKey)
	flags.Int(timeoutMSFlagName, viper.GetInt(timeoutMSKey), "extra milliseconds every mutant run may take")
	bindFlagToConfig(flags.Lookup(timeoutMSFlagName), timeoutMSKey)
	flags.Float64(timeoutFactorFlagName, viper.GetFloat64(timeoutFactorKey), "multiplier applied to the initial run duration")
	bindFlagToConfig(flags.Lookup(timeoutFactorFlagName), timeoutFactorKey)
	flags.String(dryRunTimeoutFlagName, viper.GetString(dryRunTimeoutKey), "time limit of the initial test run")
	bindFlagToConfig(flags.Lookup(dryRunTimeoutFlagName), dryRunTimeoutKey)
	flags.String(coverageFlagName, viper.GetString(coverageKey), "coverage analysis: off, all or perTest")
	bindFlagToConfig(flags.Lookup(coverageFlagName), coverageKey)
	flags.Bool(disableBailFlagName, viper.GetBool(disableBailKey), "keep running tests after the first failure")
	bindFlagToConfig(flags.Lookup(disableBailFlagName), disableBailKey)
	flags.StringSlice(checkersFlagName, viper.GetStringSlice(checkersKey), "checker plugins run before testing")
	bindFlagToConfig(flags.Lookup(checkersFlagName), checkersKey)
	flags.String(testRunnerFlagName, viper.GetString(testRunnerKey), "test runner plugin")
	bindFlagToConfig(flags.Lookup(testRunnerFlagName), testRunnerKey)
	flags.StringSlice(ignoreMutatorsFlagName, viper.GetStringSlice(ignoreMutatorsKey), "mutator names to report as ignored")
	bindFlagToConfig(flags.Lookup(ignoreMutatorsFlagName), ignoreMutatorsKey)
	flags.StringSlice(packagesFlagName, viper.GetStringSlice(packagesKey), "packages passed to go test")
	bindFlagToConfig(flags.Lookup(packagesFlagName), packagesKey)
	flags.String(tagsFlagName, viper.GetString(tagsKey), "build tags passed to go test")
	bindFlagToConfig(flags.Lookup(tagsFlagName), tagsKey)
	flags.String(metricsAddrFlagName, viper.GetString(metricsAddrKey), "serve Prometheus metrics on this address (e.g. :9090)")
	bindFlagToConfig(flags.Lookup(metricsAddrFlagName), metricsAddrKey)
}

func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return index, total
}

func campaignOptions(shard string) (domain.CampaignOptions, error) {
	coverage, err := m.ParseCoverageAnalysis(viper.GetString(coverageKey))
	if err != nil {
		return domain.CampaignOptions{}, err
	}

	shardIndex, totalShards := parseShardFlag(shard)

	return domain.CampaignOptions{
		Concurrency:        viper.GetInt(concurrencyKey),
		MaxTestRunnerReuse: viper.GetInt(maxTestRunnerReuseKey),
		CoverageAnalysis:   coverage,
		DryRunTimeout:      durationValue(dryRunTimeoutKey, defaultDryRunTimeout),
		TimeoutMS:          viper.GetInt(timeoutMSKey),
		TimeoutFactor:      viper.GetFloat64(timeoutFactorKey),
		DisableBail:        viper.GetBool(disableBailKey),
		ShardIndex:         shardIndex,
		TotalShards:        totalShards,
		IgnoredMutators:    viper.GetStringSlice(ignoreMutatorsKey),
		SourceRoot:         ".",
		Output:             m.Path(viper.GetString(outputFlagName)),
	}, nil
}

// campaignDeps resolves the configured plugins and builds worker factories.
func campaignDeps(mutants []m.Mutant, collector metrics.Collector) (domain.CampaignDeps, error) {
	registry := adapter.DefaultRegistry()

	runnerName := viper.GetString(testRunnerKey)
	if _, err := registry.TestRunner(runnerName); err != nil {
		return domain.CampaignDeps{}, err
	}

	goTest := adapter.GoTestOptions{
		Packages: viper.GetStringSlice(packagesKey),
		Tags:     viper.GetString(tagsKey),
	}

	runnerOpts, err := workerOptions(runnerName, goTest, mutants, collector)
	if err != nil {
		return domain.CampaignDeps{}, err
	}

	var checkers []func() plugin.Checker

	for _, name := range viper.GetStringSlice(checkersKey) {
		if _, err := registry.Checker(name); err != nil {
			return domain.CampaignDeps{}, err
		}

		checkerOpts, err := workerOptions(name, adapter.GoBuildOptions{
			Packages: goTest.Packages,
			Tags:     goTest.Tags,
		}, mutants, collector)
		if err != nil {
			return domain.CampaignDeps{}, err
		}

		checkers = append(checkers, childproc.CheckerFactory(checkerOpts))
	}

	return domain.CampaignDeps{
		Store:      reportStore,
		UI:         ui,
		TestRunner: childproc.TestRunnerFactory(runnerOpts),
		Checkers:   checkers,
		Metrics:    collector,
	}, nil
}

func workerOptions(name string, pluginOptions any, mutants []m.Mutant, collector metrics.Collector) (childproc.WorkerOptions, error) {
	wd, err := os.Getwd()
	if err != nil {
		return childproc.WorkerOptions{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	spawn, err := childproc.DefaultSpawnOptions(wd)
	if err != nil {
		return childproc.WorkerOptions{}, err
	}

	files := make(m.FileDescriptions, len(mutants))
	for _, mt := range mutants {
		files[mt.FileName] = m.FileDescription{Mutate: true}
	}

	return childproc.WorkerOptions{
		Spawner:       childproc.ExecSpawner{},
		Spawn:         spawn,
		PluginName:    name,
		PluginOptions: pluginOptions,
		Files:         files,
		WorkingDir:    wd,
		LogLevel:      logLevel(),
		Metrics:       collector,
	}, nil
}

// startMetrics serves Prometheus metrics when addr is set. The returned
// function stops the server.
func startMetrics(addr string) (metrics.Collector, func()) {
	if addr == "" {
		return metrics.NewNoopCollector(), func() {}
	}

	collector := metrics.NewPrometheusCollector(metricsNamespace)
	server := metrics.NewServer(addr, collector.Registry())
	server.Start()

	return collector, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("Failed to stop metrics server", "addr", addr, "error", err)
		}
	}
}
