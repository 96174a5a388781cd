package controller

import (
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	m "gooze.dev/pkg/crucible/internal/model"
)

// mutantDiff renders a unified diff of the mutant against its source file.
// It returns "" when the file cannot be read or the mutant does not apply.
func mutantDiff(root string, mt m.Mutant) string {
	path := string(mt.FileName)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	// #nosec G304 - path comes from the mutant plan
	original, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	mutated, err := mt.Apply(original)
	if err != nil {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(mutated)),
		FromFile: string(mt.FileName),
		ToFile:   string(mt.FileName) + " (mutant " + mt.ID + ")",
		Context:  2,
	})
	if err != nil {
		return ""
	}

	return diff
}
