package adapter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	m "gooze.dev/pkg/crucible/internal/model"
)

// testEvent is one line of `go test -json` output.
type testEvent struct {
	Time        time.Time `json:"Time"`
	Action      string    `json:"Action"`
	Package     string    `json:"Package"`
	ImportPath  string    `json:"ImportPath"`
	Test        string    `json:"Test"`
	Elapsed     float64   `json:"Elapsed"`
	Output      string    `json:"Output"`
	FailedBuild string    `json:"FailedBuild"`
}

// testRun aggregates one `go test -json` invocation.
type testRun struct {
	Tests      []m.TestResult
	BuildError string
	// failed packages without a failing test, e.g. a panic in TestMain
	PackageFailures []string
	Malformed       int
}

// Failed lists the ids of the failed tests.
func (r testRun) Failed() []string {
	var ids []string

	for _, test := range r.Tests {
		if test.Status == m.TestFailed {
			ids = append(ids, test.ID)
		}
	}

	return ids
}

// Executed counts the tests that ran.
func (r testRun) Executed() int {
	n := 0

	for _, test := range r.Tests {
		if test.Status != m.TestSkipped {
			n++
		}
	}

	return n
}

// FirstFailure returns the output of the first failed test.
func (r testRun) FirstFailure() string {
	for _, test := range r.Tests {
		if test.Status == m.TestFailed {
			return test.FailureMessage
		}
	}

	if len(r.PackageFailures) > 0 {
		return r.PackageFailures[0]
	}

	return ""
}

// testID qualifies a top-level test name with its package.
func testID(pkg, name string) string {
	return pkg + "." + name
}

// testName is the -run name of a test id. Go test names carry no dots.
func testName(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[i+1:]
	}

	return id
}

// parseTestJSON reads `go test -json` output. Subtests are folded into their
// top-level test. Lines that are not JSON (build errors printed by older
// toolchains) are collected as build output.
func parseTestJSON(r io.Reader) (testRun, error) {
	var (
		run       testRun
		index     = map[string]int{}
		output    = map[string][]string{}
		buildOut  []string
		rawOutput []string
		keys      []string
		ran       = map[string]bool{}
	)

	track := func(key, pkg, name string) int {
		if i, ok := index[key]; ok {
			return i
		}

		index[key] = len(run.Tests)
		keys = append(keys, key)
		run.Tests = append(run.Tests, m.TestResult{ID: testID(pkg, name), Name: name})

		return index[key]
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e testEvent
		if line[0] != '{' || json.Unmarshal(line, &e) != nil {
			run.Malformed++
			rawOutput = append(rawOutput, string(line))

			continue
		}

		switch e.Action {
		case "build-output":
			buildOut = append(buildOut, strings.TrimRight(e.Output, "\n"))
			continue
		case "build-fail":
			continue
		}

		top := e.Test
		if i := strings.IndexByte(top, '/'); i >= 0 {
			top = top[:i]
		}

		key := e.Package + "\x00" + top

		switch e.Action {
		case "output":
			output[key] = append(output[key], strings.TrimRight(e.Output, "\n"))
		case "run":
			if top == e.Test && top != "" {
				track(key, e.Package, top)
			}
		case "pass", "fail", "skip":
			if e.Test == "" {
				if e.Action == "fail" {
					if e.FailedBuild != "" {
						run.BuildError = strings.Join(buildOut, "\n")
						if run.BuildError == "" {
							run.BuildError = fmt.Sprintf("build of %s failed", e.FailedBuild)
						}
					} else if !ran[e.Package] {
						run.PackageFailures = append(run.PackageFailures, strings.Join(output[key], "\n"))
					}
				}

				continue
			}

			ran[e.Package] = true

			if top != e.Test {
				continue
			}

			test := &run.Tests[track(key, e.Package, top)]
			test.TimeSpentMs = int64(e.Elapsed * 1000)

			switch e.Action {
			case "pass":
				test.Status = m.TestSuccess
			case "fail":
				test.Status = m.TestFailed
				test.FailureMessage = strings.Join(output[key], "\n")
			case "skip":
				test.Status = m.TestSkipped
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return run, fmt.Errorf("scanning test output: %w", err)
	}

	if run.BuildError == "" && len(run.Tests) == 0 && len(rawOutput) > 0 {
		run.BuildError = strings.Join(rawOutput, "\n")
	}

	// tests that started but never reported were cut off
	for i := range run.Tests {
		if run.Tests[i].Status == "" {
			run.Tests[i].Status = m.TestFailed
			run.Tests[i].FailureMessage = strings.Join(output[keys[i]], "\n")
		}
	}

	return run, nil
}
