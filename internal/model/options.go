package model

import (
	"fmt"
	"time"
)

// CoverageAnalysis selects how much coverage the dry run collects.
type CoverageAnalysis string

// Supported coverage analysis modes.
const (
	CoverageOff     CoverageAnalysis = "off"
	CoverageAll     CoverageAnalysis = "all"
	CoveragePerTest CoverageAnalysis = "perTest"
)

// ParseCoverageAnalysis validates a coverage analysis mode.
func ParseCoverageAnalysis(value string) (CoverageAnalysis, error) {
	switch CoverageAnalysis(value) {
	case CoverageOff, CoverageAll, CoveragePerTest:
		return CoverageAnalysis(value), nil
	case "":
		return CoverageOff, nil
	}

	return "", fmt.Errorf("unknown coverage analysis %q (want off, all or perTest)", value)
}

// MutantActivation controls when the active mutant is switched on.
type MutantActivation string

// Mutant activation modes.
const (
	ActivationStatic  MutantActivation = "static"
	ActivationRuntime MutantActivation = "runtime"
)

// DryRunOptions describe the initial run without any mutant.
type DryRunOptions struct {
	Timeout          time.Duration     `msgpack:"timeout"`
	CoverageAnalysis CoverageAnalysis  `msgpack:"coverageAnalysis"`
	DisableBail      bool              `msgpack:"disableBail"`
	Files            map[Path]struct{} `msgpack:"files,omitempty"`
}

// MutantRunOptions describe one run with one active mutant.
type MutantRunOptions struct {
	ActiveMutant Mutant        `msgpack:"activeMutant"`
	Timeout      time.Duration `msgpack:"timeout"`
	// TestFilter limits the run to these test ids. Nil means all tests; an
	// empty filter runs none, so it is sent even when empty.
	TestFilter        []string         `msgpack:"testFilter"`
	ReloadEnvironment bool             `msgpack:"reloadEnvironment"`
	HitLimit          *int             `msgpack:"hitLimit,omitempty"`
	DisableBail       bool             `msgpack:"disableBail"`
	MutantActivation  MutantActivation `msgpack:"mutantActivation"`
}

// Validate reports malformed options. These are programmer errors and are
// never retried.
func (o MutantRunOptions) Validate() error {
	if o.ActiveMutant.ID == "" {
		return fmt.Errorf("active mutant has no id")
	}

	if o.ActiveMutant.FileName == "" {
		return fmt.Errorf("active mutant %s has no file name", o.ActiveMutant.ID)
	}

	if o.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", o.Timeout)
	}

	return nil
}

// Validate reports malformed dry run options.
func (o DryRunOptions) Validate() error {
	if o.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", o.Timeout)
	}

	if _, err := ParseCoverageAnalysis(string(o.CoverageAnalysis)); err != nil {
		return err
	}

	return nil
}
