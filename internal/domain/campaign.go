package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/crucible/internal/adapter"
	"gooze.dev/pkg/crucible/internal/controller"
	"gooze.dev/pkg/crucible/internal/metrics"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
	pkg "gooze.dev/pkg/crucible/pkg"
)

// Defaults for CampaignOptions.
const (
	DefaultTimeoutMS        = 5000
	DefaultTimeoutFactor    = 1.5
	DefaultDryRunTimeout    = 5 * time.Minute
	DefaultCheckerBatchSize = 10
)

// ErrDryRunFailed is returned when the initial test run does not complete.
// Mutants cannot be judged against a failing suite.
var ErrDryRunFailed = errors.New("initial test run failed")

// CampaignOptions tune one mutation testing campaign.
type CampaignOptions struct {
	Concurrency        int
	MaxTestRunnerReuse int
	CoverageAnalysis   m.CoverageAnalysis
	DryRunTimeout      time.Duration
	TimeoutMS          int
	TimeoutFactor      float64
	DisableBail        bool
	ShardIndex         int
	TotalShards        int
	CheckerBatchSize   int
	IgnoredMutators    []string
	SpillDir           string
	SourceRoot         string
	Output             m.Path
}

func (o CampaignOptions) withDefaults() CampaignOptions {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}

	if o.CoverageAnalysis == "" {
		o.CoverageAnalysis = m.CoverageOff
	}

	if o.DryRunTimeout <= 0 {
		o.DryRunTimeout = DefaultDryRunTimeout
	}

	if o.TimeoutFactor <= 0 {
		o.TimeoutFactor = DefaultTimeoutFactor
	}

	if o.TimeoutMS < 0 {
		o.TimeoutMS = 0
	}

	if o.CheckerBatchSize < 1 {
		o.CheckerBatchSize = DefaultCheckerBatchSize
	}

	if o.TotalShards < 1 {
		o.TotalShards = 1
	}

	if o.SourceRoot == "" {
		o.SourceRoot = "."
	}

	return o
}

// Campaign runs a mutant plan against a test suite.
type Campaign interface {
	Estimate(ctx context.Context, mutants []m.Mutant, opts CampaignOptions) error
	Run(ctx context.Context, mutants []m.Mutant, opts CampaignOptions) (m.Report, error)
}

// CampaignDeps are the collaborators of a campaign. Worker factories produce
// undecorated resources; the campaign builds the policy chain around them.
type CampaignDeps struct {
	Store      adapter.ReportStore
	UI         controller.UI
	TestRunner func() plugin.TestRunner
	Checkers   []func() plugin.Checker
	Metrics    metrics.Collector
}

type campaign struct {
	adapter.ReportStore
	controller.UI

	testRunner func() plugin.TestRunner
	checkers   []func() plugin.Checker
	metrics    metrics.Collector
	now        func() time.Time
}

// NewCampaign creates a Campaign.
func NewCampaign(deps CampaignDeps) Campaign {
	return &campaign{
		ReportStore: deps.Store,
		UI:          deps.UI,
		testRunner:  deps.TestRunner,
		checkers:    deps.Checkers,
		metrics:     metrics.OrNoop(deps.Metrics),
		now:         time.Now,
	}
}

// Estimate shows what a run of this shard would test.
func (c *campaign) Estimate(ctx context.Context, mutants []m.Mutant, opts CampaignOptions) error {
	opts = opts.withDefaults()

	if err := c.Start(ctx, controller.WithEstimateMode(), controller.WithSourceRoot(opts.SourceRoot)); err != nil {
		slog.Error("Failed to start campaign UI", "error", err)
		return err
	}

	if err := c.DisplayEstimation(ctx, shardMutants(mutants, opts.ShardIndex, opts.TotalShards), nil); err != nil {
		c.Close(ctx)
		slog.Error("Failed to display estimation", "error", err)

		return fmt.Errorf("display: %w", err)
	}

	c.Wait(ctx)
	c.Close(ctx)

	return nil
}

// Run tests every mutant of the shard and saves the report to opts.Output.
func (c *campaign) Run(ctx context.Context, mutants []m.Mutant, opts CampaignOptions) (m.Report, error) {
	opts = opts.withDefaults()
	startedAt := c.now()

	if err := c.Start(ctx, controller.WithTestMode(), controller.WithSourceRoot(opts.SourceRoot)); err != nil {
		slog.Error("Failed to start campaign UI", "error", err)
		return m.Report{}, err
	}
	defer c.Close(ctx)

	shard := shardMutants(mutants, opts.ShardIndex, opts.TotalShards)
	c.DisplayConcurrencyInfo(ctx, opts.Concurrency, opts.ShardIndex, opts.TotalShards)

	runners := NewPool(opts.Concurrency, func() plugin.TestRunner {
		return NewTestRunnerChain(c.testRunner, ChainOptions{
			MaxTestRunnerReuse: opts.MaxTestRunnerReuse,
			Decorators:         []DecoratorOption{WithMetrics(c.metrics)},
		})
	})
	defer disposePool(ctx, "test runner", runners)

	dryRun, err := c.dryRun(ctx, runners, shard, opts)
	if err != nil {
		return m.Report{}, err
	}

	spill, err := pkg.NewFileSpill[m.MutantResult](opts.SpillDir)
	if err != nil {
		return m.Report{}, err
	}

	defer func() {
		if rerr := spill.Remove(); rerr != nil {
			slog.Warn("Failed to remove result spill", "path", spill.Path(), "error", rerr)
		}
	}()

	rec := &recorder{campaign: c, spill: spill, timings: newRunTimings()}

	pending := rec.ignore(ctx, shard, opts.IgnoredMutators)

	pending, err = c.check(ctx, rec, pending, opts)
	if err != nil {
		return m.Report{}, err
	}

	plans := planMutantRuns(ctx, rec, pending, dryRun, opts)

	c.DisplayUpcomingTestsInfo(ctx, len(plans))

	if err := c.runMutants(ctx, runners, rec, plans, opts); err != nil {
		return m.Report{}, err
	}

	report, err := rec.report(shard, startedAt, c.now())
	if err != nil {
		return m.Report{}, err
	}

	if err := c.SaveReport(opts.Output, report); err != nil {
		slog.Error("Failed to save report", "path", opts.Output, "error", err)
		return report, fmt.Errorf("save report: %w", err)
	}

	c.DisplayMutationScore(ctx, report.Score, report.Timing)
	c.Wait(ctx)

	return report, nil
}

func (c *campaign) dryRun(ctx context.Context, runners *Pool[plugin.TestRunner], shard []m.Mutant, opts CampaignOptions) (m.DryRunResult, error) {
	var result m.DryRunResult

	files := make(map[m.Path]struct{}, len(shard))
	for _, mt := range shard {
		files[mt.FileName] = struct{}{}
	}

	err := runners.Run(ctx, func(ctx context.Context, runner plugin.TestRunner) error {
		var err error
		result, err = runner.DryRun(ctx, m.DryRunOptions{
			Timeout:          opts.DryRunTimeout,
			CoverageAnalysis: opts.CoverageAnalysis,
			DisableBail:      opts.DisableBail,
			Files:            files,
		})

		return err
	})
	if err != nil {
		slog.Error("Failed to run initial tests", "error", err)
		return m.DryRunResult{}, fmt.Errorf("dry run: %w", err)
	}

	c.DisplayDryRunInfo(ctx, result)

	if result.Status != m.DryRunComplete {
		reason := firstNonEmpty(result.ErrorMessage, result.Reason, string(result.Status))
		slog.Error("Initial test run did not complete", "status", result.Status, "reason", reason)

		return result, fmt.Errorf("%w: %s", ErrDryRunFailed, reason)
	}

	slog.Info("Initial test run completed", "tests", len(result.Tests))

	return result, nil
}

// check runs every checker over the pending mutants and returns those that
// passed all of them.
func (c *campaign) check(ctx context.Context, rec *recorder, pending []m.Mutant, opts CampaignOptions) ([]m.Mutant, error) {
	for i, newChecker := range c.checkers {
		if len(pending) == 0 {
			break
		}

		pool := NewPool(opts.Concurrency, func() plugin.Checker {
			return NewCheckerChain(newChecker, WithMetrics(c.metrics))
		})

		verdicts, err := runChecks(ctx, pool, pending, opts)
		disposePool(ctx, fmt.Sprintf("checker %d", i), pool)

		if err != nil {
			return nil, err
		}

		passed := make([]m.Mutant, 0, len(pending))

		for _, mt := range pending {
			verdict, ok := verdicts[mt.ID]
			if ok && verdict.Status == m.CheckCompileError {
				rec.complete(ctx, m.MutantResult{Mutant: mt, Status: m.StatusCompileError, StatusReason: verdict.Reason})
				continue
			}

			passed = append(passed, mt)
		}

		pending = passed
	}

	return pending, nil
}

func runChecks(ctx context.Context, pool *Pool[plugin.Checker], mutants []m.Mutant, opts CampaignOptions) (map[string]m.CheckResult, error) {
	var (
		mu       sync.Mutex
		verdicts = make(map[string]m.CheckResult, len(mutants))
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)

	for start := 0; start < len(mutants); start += opts.CheckerBatchSize {
		batch := mutants[start:min(start+opts.CheckerBatchSize, len(mutants))]

		group.Go(func() error {
			return pool.Run(groupCtx, func(ctx context.Context, checker plugin.Checker) error {
				results, err := checker.Check(ctx, batch)
				if err != nil {
					slog.Error("Failed to check mutants", "mutants", len(batch), "error", err)
					return fmt.Errorf("check mutants: %w", err)
				}

				mu.Lock()
				for id, result := range results {
					verdicts[id] = result
				}
				mu.Unlock()

				return nil
			})
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return verdicts, nil
}

func (c *campaign) runMutants(ctx context.Context, runners *Pool[plugin.TestRunner], rec *recorder, plans []mutantRunPlan, opts CampaignOptions) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)

	for _, plan := range plans {
		group.Go(func() error {
			c.DisplayStartingTestInfo(groupCtx, plan.options.ActiveMutant)

			started := c.now()

			var result m.MutantRunResult

			err := runners.Run(groupCtx, func(ctx context.Context, runner plugin.TestRunner) error {
				var err error
				result, err = runner.MutantRun(ctx, plan.options)

				return err
			})
			if err != nil {
				slog.Error("Failed to run mutant", "mutant", plan.options.ActiveMutant.ID, "error", err)
				return fmt.Errorf("run mutant %s: %w", plan.options.ActiveMutant.ID, err)
			}

			duration := c.now().Sub(started)
			rec.timings.Add(duration)
			rec.complete(groupCtx, toMutantResult(plan.options.ActiveMutant, result, duration))

			return nil
		})
	}

	return group.Wait()
}

// recorder collects final mutant verdicts as they arrive.
type recorder struct {
	*campaign

	spill   pkg.FileSpill[m.MutantResult]
	timings *runTimings
}

func (r *recorder) complete(ctx context.Context, result m.MutantResult) {
	if err := r.spill.Append(result); err != nil {
		slog.Error("Failed to record mutant result", "mutant", result.Mutant.ID, "error", err)
	}

	r.metrics.MutantCompleted(string(result.Status), result.Duration)
	r.DisplayCompletedTestInfo(ctx, result)
}

func (r *recorder) ignore(ctx context.Context, mutants []m.Mutant, ignored []string) []m.Mutant {
	if len(ignored) == 0 {
		return mutants
	}

	skip := make(map[string]struct{}, len(ignored))
	for _, name := range ignored {
		skip[name] = struct{}{}
	}

	pending := make([]m.Mutant, 0, len(mutants))

	for _, mt := range mutants {
		if _, ok := skip[mt.MutatorName]; ok {
			r.complete(ctx, m.MutantResult{
				Mutant:       mt,
				Status:       m.StatusIgnored,
				StatusReason: fmt.Sprintf("Ignored because of excluded mutation %q", mt.MutatorName),
			})

			continue
		}

		pending = append(pending, mt)
	}

	return pending
}

// report reads the spilled verdicts back in plan order.
func (r *recorder) report(shard []m.Mutant, startedAt, finishedAt time.Time) (m.Report, error) {
	score, err := mutationScoreFromResults(r.spill)
	if err != nil {
		slog.Error("Failed to compute mutation score", "error", err)
		return m.Report{}, fmt.Errorf("compute score: %w", err)
	}

	position := make(map[string]int, len(shard))
	for i, mt := range shard {
		position[mt.ID] = i
	}

	results := make([]m.MutantResult, len(shard))
	seen := make([]bool, len(shard))

	err = r.spill.Range(func(_ uint64, result m.MutantResult) error {
		i, ok := position[result.Mutant.ID]
		if !ok {
			return fmt.Errorf("result for unknown mutant %s", result.Mutant.ID)
		}

		results[i] = result
		seen[i] = true

		return nil
	})
	if err != nil {
		slog.Error("Failed to read mutant results", "error", err)
		return m.Report{}, fmt.Errorf("read results: %w", err)
	}

	for i, ok := range seen {
		if !ok {
			return m.Report{}, fmt.Errorf("mutant %s has no result", shard[i].ID)
		}
	}

	return m.Report{
		Version:   adapter.ReportVersion,
		StartedAt: startedAt,
		Duration:  finishedAt.Sub(startedAt),
		Score:     score,
		Timing:    r.timings.Timing(),
		Results:   results,
	}, nil
}

func disposePool[R poolable](ctx context.Context, name string, pool *Pool[R]) {
	if err := pool.Dispose(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("Failed to dispose workers", "pool", name, "error", err)
	}
}
