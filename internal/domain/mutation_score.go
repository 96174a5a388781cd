package domain

import (
	m "gooze.dev/pkg/crucible/internal/model"
	pkg "gooze.dev/pkg/crucible/pkg"
)

// mutationScoreFromResults tallies results into a Score. Killed and timed
// out mutants are detected, survived and uncovered ones are not; errors and
// ignored mutants stay out of the denominator. An empty campaign scores 100.
func mutationScoreFromResults(results pkg.FileSpill[m.MutantResult]) (m.Score, error) {
	var score m.Score

	err := results.Range(func(_ uint64, result m.MutantResult) error {
		score.Total++

		switch result.Status {
		case m.StatusKilled:
			score.Killed++
		case m.StatusTimeout:
			score.Timeout++
		case m.StatusSurvived:
			score.Survived++
		case m.StatusNoCoverage:
			score.NoCoverage++
		case m.StatusRuntimeError:
			score.RuntimeErrors++
		case m.StatusCompileError:
			score.CompileErrors++
		case m.StatusIgnored:
			score.Ignored++
		}

		return nil
	})
	if err != nil {
		return m.Score{}, err
	}

	detected := score.Killed + score.Timeout
	valid := detected + score.Survived + score.NoCoverage

	if valid == 0 {
		score.Value = 100.0
		return score, nil
	}

	score.Value = 100 * float64(detected) / float64(valid)

	return score, nil
}
