package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/crucible/internal/model"
)

// ReportVersion is written into every saved report.
const ReportVersion = 1

// ReportStore persists campaign reports.
type ReportStore interface {
	SaveReport(path m.Path, report m.Report) error
	LoadReport(path m.Path) (m.Report, error)
}

// MutantStore loads the mutant plan produced by a generator.
type MutantStore interface {
	LoadMutants(path m.Path) ([]m.Mutant, error)
}

type mutantPlan struct {
	Mutants []m.Mutant `yaml:"mutants"`
}

// YAMLStore implements ReportStore and MutantStore with YAML files.
type YAMLStore struct{}

// NewYAMLStore constructs a YAMLStore.
func NewYAMLStore() *YAMLStore {
	return &YAMLStore{}
}

// SaveReport writes report to path, creating parent directories.
func (s *YAMLStore) SaveReport(path m.Path, report m.Report) error {
	if report.Version == 0 {
		report.Version = ReportVersion
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		slog.Error("Failed to create report directory", "path", path, "error", err)
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		slog.Error("Failed to write report", "path", path, "error", err)
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// LoadReport reads a report written by SaveReport.
func (s *YAMLStore) LoadReport(path m.Path) (m.Report, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return m.Report{}, fmt.Errorf("failed to read report: %w", err)
	}

	var report m.Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.Report{}, fmt.Errorf("failed to decode report %s: %w", path, err)
	}

	if report.Version != ReportVersion {
		return m.Report{}, fmt.Errorf("unsupported report version %d in %s", report.Version, path)
	}

	return report, nil
}

// LoadMutants reads a mutant plan. Mutants without an id are numbered by position.
func (s *YAMLStore) LoadMutants(path m.Path) ([]m.Mutant, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read mutants: %w", err)
	}

	var plan mutantPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode mutants %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(plan.Mutants))

	for i := range plan.Mutants {
		mt := &plan.Mutants[i]
		if mt.ID == "" {
			mt.ID = fmt.Sprint(i)
		}

		if _, dup := seen[mt.ID]; dup {
			return nil, fmt.Errorf("duplicate mutant id %q in %s", mt.ID, path)
		}

		seen[mt.ID] = struct{}{}

		if mt.FileName == "" {
			return nil, fmt.Errorf("mutant %s in %s has no fileName", mt.ID, path)
		}
	}

	return plan.Mutants, nil
}
