package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestMutantRunOptions_TestFilterSurvivesTheWire(t *testing.T) {
	tests := []struct {
		name    string
		filter  []string
		wantNil bool
	}{
		{name: "nil runs every test", filter: nil, wantNil: true},
		{name: "empty runs nothing", filter: []string{}},
		{name: "listed tests", filter: []string{"example.com/boolean.TestCheckStatus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := msgpack.Marshal(MutantRunOptions{ActiveMutant: Mutant{ID: "1"}, TestFilter: tt.filter})
			require.NoError(t, err)

			var decoded MutantRunOptions
			require.NoError(t, msgpack.Unmarshal(raw, &decoded))

			if tt.wantNil {
				assert.Nil(t, decoded.TestFilter)
				return
			}

			require.NotNil(t, decoded.TestFilter)
			assert.Equal(t, tt.filter, decoded.TestFilter)
		})
	}
}
