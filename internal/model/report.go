package model

import "time"

// DryRunStatus is the outcome of a dry run.
type DryRunStatus string

// Dry run outcomes.
const (
	DryRunComplete DryRunStatus = "Complete"
	DryRunError    DryRunStatus = "Error"
	DryRunTimeout  DryRunStatus = "Timeout"
)

// MutantRunStatus is the outcome of a single mutant run.
type MutantRunStatus string

// Mutant run outcomes.
const (
	MutantRunKilled   MutantRunStatus = "Killed"
	MutantRunSurvived MutantRunStatus = "Survived"
	MutantRunError    MutantRunStatus = "Error"
	MutantRunTimeout  MutantRunStatus = "Timeout"
)

// TestStatus is the outcome of a single test.
type TestStatus string

// Test outcomes.
const (
	TestSuccess TestStatus = "Success"
	TestFailed  TestStatus = "Failed"
	TestSkipped TestStatus = "Skipped"
)

// TestResult describes one executed test.
type TestResult struct {
	ID             string     `msgpack:"id" yaml:"id"`
	Name           string     `msgpack:"name" yaml:"name"`
	Status         TestStatus `msgpack:"status" yaml:"status"`
	TimeSpentMs    int64      `msgpack:"timeSpentMs" yaml:"timeSpentMs"`
	FailureMessage string     `msgpack:"failureMessage,omitempty" yaml:"failureMessage,omitempty"`
	FileName       Path       `msgpack:"fileName,omitempty" yaml:"fileName,omitempty"`
}

// CoverageData maps mutant ids to hit counts.
type CoverageData map[string]int

// MutantCoverage is the coverage reported by a dry run. Static holds
// mutants hit while loading the code, PerTest the mutants hit per test id.
type MutantCoverage struct {
	Static  CoverageData            `msgpack:"static"`
	PerTest map[string]CoverageData `msgpack:"perTest"`
}

// DryRunResult is the tagged union returned by a dry run.
type DryRunResult struct {
	Status         DryRunStatus    `msgpack:"status"`
	Tests          []TestResult    `msgpack:"tests,omitempty"`
	MutantCoverage *MutantCoverage `msgpack:"mutantCoverage,omitempty"`
	ErrorMessage   string          `msgpack:"errorMessage,omitempty"`
	Reason         string          `msgpack:"reason,omitempty"`
}

// MutantRunResult is the tagged union returned by a mutant run.
type MutantRunResult struct {
	Status         MutantRunStatus `msgpack:"status"`
	KilledBy       []string        `msgpack:"killedBy,omitempty"`
	FailureMessage string          `msgpack:"failureMessage,omitempty"`
	NrOfTests      int             `msgpack:"nrOfTests"`
	ErrorMessage   string          `msgpack:"errorMessage,omitempty"`
	Reason         string          `msgpack:"reason,omitempty"`
}

// CheckStatus is the outcome of checking one mutant.
type CheckStatus string

// Check outcomes.
const (
	CheckPassed       CheckStatus = "Passed"
	CheckCompileError CheckStatus = "CompileError"
)

// CheckResult is the result of a checker for one mutant.
type CheckResult struct {
	Status CheckStatus `msgpack:"status"`
	Reason string      `msgpack:"reason,omitempty"`
}

// MutantStatus is the final, campaign level verdict for a mutant.
type MutantStatus string

// Campaign verdicts.
const (
	StatusKilled       MutantStatus = "Killed"
	StatusSurvived     MutantStatus = "Survived"
	StatusNoCoverage   MutantStatus = "NoCoverage"
	StatusCompileError MutantStatus = "CompileError"
	StatusRuntimeError MutantStatus = "RuntimeError"
	StatusTimeout      MutantStatus = "Timeout"
	StatusIgnored      MutantStatus = "Ignored"
)

// MutantResult is one line of the final report.
type MutantResult struct {
	Mutant         Mutant        `msgpack:"mutant" yaml:"mutant"`
	Status         MutantStatus  `msgpack:"status" yaml:"status"`
	KilledBy       []string      `msgpack:"killedBy,omitempty" yaml:"killedBy,omitempty"`
	StatusReason   string        `msgpack:"statusReason,omitempty" yaml:"statusReason,omitempty"`
	TestsCompleted int           `msgpack:"testsCompleted" yaml:"testsCompleted"`
	Duration       time.Duration `msgpack:"duration" yaml:"duration"`
}

// Score summarises a campaign.
type Score struct {
	Killed        int     `yaml:"killed"`
	Survived      int     `yaml:"survived"`
	Timeout       int     `yaml:"timeout"`
	NoCoverage    int     `yaml:"noCoverage"`
	RuntimeErrors int     `yaml:"runtimeErrors"`
	CompileErrors int     `yaml:"compileErrors"`
	Ignored       int     `yaml:"ignored"`
	Total         int     `yaml:"total"`
	Value         float64 `yaml:"score"`
}

// Timing summarises how long mutant runs took.
type Timing struct {
	Runs int           `yaml:"runs"`
	P50  time.Duration `yaml:"p50"`
	P95  time.Duration `yaml:"p95"`
	Max  time.Duration `yaml:"max"`
}

// Report is the persisted outcome of a campaign.
type Report struct {
	Version   int            `yaml:"version"`
	StartedAt time.Time      `yaml:"startedAt"`
	Duration  time.Duration  `yaml:"duration"`
	Score     Score          `yaml:"score"`
	Timing    Timing         `yaml:"timing"`
	Results   []MutantResult `yaml:"results"`
}
