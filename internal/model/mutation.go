// Package model defines the data structures exchanged between the mutation
// campaign, the worker processes and their plugins.
package model

import (
	"bytes"
	"fmt"
)

// Position is a point in a source file. Lines are 1-based, columns 0-based.
type Position struct {
	Line   int `msgpack:"line" yaml:"line"`
	Column int `msgpack:"column" yaml:"column"`
}

// Location is a half-open source span.
type Location struct {
	Start Position `msgpack:"start" yaml:"start"`
	End   Position `msgpack:"end" yaml:"end"`
}

// Mutant is a single candidate code change. It is produced by the mutant
// generator and never modified afterwards.
type Mutant struct {
	ID          string   `msgpack:"id" yaml:"id"`
	FileName    Path     `msgpack:"fileName" yaml:"fileName"`
	Location    Location `msgpack:"location" yaml:"location"`
	Range       *[2]int  `msgpack:"range,omitempty" yaml:"range,omitempty"`
	Replacement string   `msgpack:"replacement" yaml:"replacement"`
	MutatorName string   `msgpack:"mutatorName" yaml:"mutatorName"`
	// Static marks mutants in code that runs once at load time
	// (package-level vars, init functions).
	Static bool `msgpack:"static,omitempty" yaml:"static,omitempty"`
}

// Offsets returns the byte range [start, end) the mutant replaces in src.
// Range wins over Location when both are set.
func (mt Mutant) Offsets(src []byte) (int, int, error) {
	if mt.Range != nil {
		start, end := mt.Range[0], mt.Range[1]
		if start < 0 || end < start || end > len(src) {
			return 0, 0, fmt.Errorf("mutant %s: range [%d,%d) out of bounds (size %d)", mt.ID, start, end, len(src))
		}

		return start, end, nil
	}

	start, err := offsetOf(src, mt.Location.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("mutant %s: start: %w", mt.ID, err)
	}

	end, err := offsetOf(src, mt.Location.End)
	if err != nil {
		return 0, 0, fmt.Errorf("mutant %s: end: %w", mt.ID, err)
	}

	if end < start {
		return 0, 0, fmt.Errorf("mutant %s: end before start", mt.ID)
	}

	return start, end, nil
}

// Apply returns a copy of src with the mutant's replacement applied.
func (mt Mutant) Apply(src []byte) ([]byte, error) {
	start, end, err := mt.Offsets(src)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(src)-(end-start)+len(mt.Replacement))
	out = append(out, src[:start]...)
	out = append(out, mt.Replacement...)
	out = append(out, src[end:]...)

	return out, nil
}

func offsetOf(src []byte, pos Position) (int, error) {
	if pos.Line < 1 {
		return 0, fmt.Errorf("invalid line %d", pos.Line)
	}

	offset := 0

	for line := 1; line < pos.Line; line++ {
		idx := bytes.IndexByte(src[offset:], '\n')
		if idx < 0 {
			return 0, fmt.Errorf("line %d beyond end of file", pos.Line)
		}

		offset += idx + 1
	}

	lineEnd := bytes.IndexByte(src[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src) - offset
	}

	if pos.Column < 0 || pos.Column > lineEnd {
		return 0, fmt.Errorf("column %d out of range on line %d", pos.Column, pos.Line)
	}

	return offset + pos.Column, nil
}
