package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "package boolean\n\nfunc IsTrue(b bool) bool {\n\treturn b == true\n}\n"

func TestMutant_ApplyLocation(t *testing.T) {
	mt := Mutant{
		ID:          "1",
		Location:    Location{Start: Position{Line: 4, Column: 10}, End: Position{Line: 4, Column: 12}},
		Replacement: "!=",
	}

	out, err := mt.Apply([]byte(sample))
	require.NoError(t, err)
	assert.Contains(t, string(out), "return b != true")
	assert.Contains(t, sample, "return b == true", "source must not be modified")
}

func TestMutant_RangeWinsOverLocation(t *testing.T) {
	start := len("package ")
	mt := Mutant{
		ID:          "2",
		Range:       &[2]int{start, start + len("boolean")},
		Location:    Location{Start: Position{Line: 99}, End: Position{Line: 99}},
		Replacement: "other",
	}

	out, err := mt.Apply([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "package other\n", string(out[:len("package other\n")]))
}

func TestMutant_Offsets(t *testing.T) {
	tests := []struct {
		name    string
		mutant  Mutant
		start   int
		end     int
		wantErr bool
	}{
		{
			name:   "first line",
			mutant: Mutant{Location: Location{Start: Position{Line: 1, Column: 0}, End: Position{Line: 1, Column: 7}}},
			start:  0,
			end:    7,
		},
		{
			name:    "line beyond end",
			mutant:  Mutant{Location: Location{Start: Position{Line: 40}, End: Position{Line: 41}}},
			wantErr: true,
		},
		{
			name:    "column past end of line",
			mutant:  Mutant{Location: Location{Start: Position{Line: 2, Column: 3}, End: Position{Line: 2, Column: 3}}},
			wantErr: true,
		},
		{
			name:    "end before start",
			mutant:  Mutant{Location: Location{Start: Position{Line: 1, Column: 5}, End: Position{Line: 1, Column: 2}}},
			wantErr: true,
		},
		{
			name:    "range out of bounds",
			mutant:  Mutant{Range: &[2]int{0, 1000}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := tt.mutant.Offsets([]byte(sample))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestMutantRunOptions_Validate(t *testing.T) {
	assert.Error(t, MutantRunOptions{}.Validate())
	assert.Error(t, MutantRunOptions{ActiveMutant: Mutant{ID: "1"}}.Validate())
	assert.NoError(t, MutantRunOptions{ActiveMutant: Mutant{ID: "1", FileName: "a.go"}}.Validate())
}

func TestParseCoverageAnalysis(t *testing.T) {
	got, err := ParseCoverageAnalysis("")
	require.NoError(t, err)
	assert.Equal(t, CoverageOff, got)

	got, err = ParseCoverageAnalysis("perTest")
	require.NoError(t, err)
	assert.Equal(t, CoveragePerTest, got)

	_, err = ParseCoverageAnalysis("some")
	assert.Error(t, err)
}
