package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	m "gooze.dev/pkg/crucible/internal/model"
)

type mutantRunPlan struct {
	options m.MutantRunOptions
}

// shardMutants keeps every mutant whose plan position falls into shardIndex.
func shardMutants(mutants []m.Mutant, shardIndex int, totalShards int) []m.Mutant {
	if totalShards <= 1 {
		return mutants
	}

	var shard []m.Mutant

	for i, mt := range mutants {
		if i%totalShards == shardIndex {
			shard = append(shard, mt)
		}
	}

	return shard
}

// planMutantRuns matches mutants to the tests covering them. Uncovered
// mutants are recorded as NoCoverage and left out of the plan.
func planMutantRuns(ctx context.Context, rec *recorder, mutants []m.Mutant, dryRun m.DryRunResult, opts CampaignOptions) []mutantRunPlan {
	matcher := newCoverageMatcher(dryRun, opts.CoverageAnalysis)
	plans := make([]mutantRunPlan, 0, len(mutants))

	for _, mt := range mutants {
		match := matcher.match(mt)
		if !match.covered {
			rec.complete(ctx, m.MutantResult{Mutant: mt, Status: m.StatusNoCoverage, StatusReason: "no test covers this mutant"})
			continue
		}

		activation := m.ActivationRuntime
		if match.static {
			activation = m.ActivationStatic
		}

		plans = append(plans, mutantRunPlan{options: m.MutantRunOptions{
			ActiveMutant:      mt,
			Timeout:           mutantTimeout(match.baselineMS, opts),
			TestFilter:        match.tests,
			ReloadEnvironment: match.static,
			DisableBail:       opts.DisableBail,
			MutantActivation:  activation,
		}})
	}

	return plans
}

// mutantTimeout is factor × baseline + timeoutMS.
func mutantTimeout(baselineMS int64, opts CampaignOptions) time.Duration {
	ms := opts.TimeoutFactor*float64(baselineMS) + float64(opts.TimeoutMS)
	return time.Duration(ms * float64(time.Millisecond))
}

type coverageMatch struct {
	covered    bool
	static     bool
	tests      []string
	baselineMS int64
}

type coverageMatcher struct {
	analysis m.CoverageAnalysis
	coverage *m.MutantCoverage
	tests    map[string]m.TestResult
	totalMS  int64
}

func newCoverageMatcher(dryRun m.DryRunResult, analysis m.CoverageAnalysis) coverageMatcher {
	cm := coverageMatcher{
		analysis: analysis,
		coverage: dryRun.MutantCoverage,
		tests:    make(map[string]m.TestResult, len(dryRun.Tests)),
	}

	for _, test := range dryRun.Tests {
		cm.tests[test.ID] = test
		cm.totalMS += test.TimeSpentMs
	}

	return cm
}

// match decides how a mutant is tested. Without coverage data every test
// runs. Static coverage runs every test with a reloaded environment, and
// per-test coverage narrows the run to the covering tests.
func (cm coverageMatcher) match(mt m.Mutant) coverageMatch {
	all := coverageMatch{covered: true, static: mt.Static, baselineMS: cm.totalMS}

	if cm.analysis == m.CoverageOff || cm.coverage == nil {
		return all
	}

	staticHit := cm.coverage.Static[mt.ID] > 0

	var covering []string

	for testID, hits := range cm.coverage.PerTest {
		if hits[mt.ID] > 0 {
			covering = append(covering, testID)
		}
	}

	switch {
	case staticHit:
		all.static = cm.analysis == m.CoveragePerTest || mt.Static
		return all
	case len(covering) == 0:
		return coverageMatch{}
	case cm.analysis == m.CoverageAll:
		return all
	}

	sort.Strings(covering)

	var baseline int64
	for _, id := range covering {
		baseline += cm.tests[id].TimeSpentMs
	}

	return coverageMatch{covered: true, static: mt.Static, tests: covering, baselineMS: baseline}
}

// toMutantResult maps a runner verdict to the campaign status.
func toMutantResult(mt m.Mutant, result m.MutantRunResult, duration time.Duration) m.MutantResult {
	out := m.MutantResult{Mutant: mt, TestsCompleted: result.NrOfTests, Duration: duration}

	switch result.Status {
	case m.MutantRunKilled:
		out.Status = m.StatusKilled
		out.KilledBy = result.KilledBy
		out.StatusReason = result.FailureMessage
	case m.MutantRunSurvived:
		out.Status = m.StatusSurvived
	case m.MutantRunTimeout:
		out.Status = m.StatusTimeout
		out.StatusReason = result.Reason
	default:
		out.Status = m.StatusRuntimeError
		out.StatusReason = firstNonEmpty(result.ErrorMessage, result.Reason)
	}

	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}
