package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/crucible/internal/model"
)

const passFailStream = `{"Action":"start","Package":"example.com/p"}
{"Action":"run","Package":"example.com/p","Test":"TestOK"}
{"Action":"output","Package":"example.com/p","Test":"TestOK","Output":"=== RUN   TestOK\n"}
{"Action":"pass","Package":"example.com/p","Test":"TestOK","Elapsed":0.01}
{"Action":"run","Package":"example.com/p","Test":"TestBad"}
{"Action":"run","Package":"example.com/p","Test":"TestBad/case"}
{"Action":"output","Package":"example.com/p","Test":"TestBad/case","Output":"    p_test.go:12: expected true\n"}
{"Action":"fail","Package":"example.com/p","Test":"TestBad/case","Elapsed":0}
{"Action":"fail","Package":"example.com/p","Test":"TestBad","Elapsed":0.02}
{"Action":"run","Package":"example.com/p","Test":"TestSkip"}
{"Action":"skip","Package":"example.com/p","Test":"TestSkip","Elapsed":0}
{"Action":"fail","Package":"example.com/p","Elapsed":0.05}
`

func TestParseTestJSON(t *testing.T) {
	t.Run("pass fail and skip", func(t *testing.T) {
		run, err := parseTestJSON(strings.NewReader(passFailStream))
		require.NoError(t, err)

		require.Len(t, run.Tests, 3)
		assert.Equal(t, m.TestResult{ID: "example.com/p.TestOK", Name: "TestOK", Status: m.TestSuccess, TimeSpentMs: 10}, run.Tests[0])
		assert.Equal(t, m.TestFailed, run.Tests[1].Status)
		assert.Contains(t, run.Tests[1].FailureMessage, "expected true")
		assert.Equal(t, m.TestSkipped, run.Tests[2].Status)

		assert.Equal(t, []string{"example.com/p.TestBad"}, run.Failed())
		assert.Equal(t, 2, run.Executed())
		assert.Contains(t, run.FirstFailure(), "expected true")
		assert.Empty(t, run.BuildError)
		assert.Empty(t, run.PackageFailures)
	})

	t.Run("build failure", func(t *testing.T) {
		stream := `{"ImportPath":"example.com/p","Action":"build-output","Output":"# example.com/p\n"}
{"ImportPath":"example.com/p","Action":"build-output","Output":"./p.go:3:26: undefined: ture\n"}
{"ImportPath":"example.com/p","Action":"build-fail"}
{"Action":"start","Package":"example.com/p"}
{"Action":"output","Package":"example.com/p","Output":"FAIL\texample.com/p [build failed]\n"}
{"Action":"fail","Package":"example.com/p","Elapsed":0,"FailedBuild":"example.com/p"}
`

		run, err := parseTestJSON(strings.NewReader(stream))
		require.NoError(t, err)
		assert.Contains(t, run.BuildError, "undefined: ture")
		assert.Empty(t, run.Tests)
	})

	t.Run("plain text is build output", func(t *testing.T) {
		run, err := parseTestJSON(strings.NewReader("# example.com/p\n./p.go:3:26: undefined: ture\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, run.Malformed)
		assert.Contains(t, run.BuildError, "undefined: ture")
	})

	t.Run("package failure without tests", func(t *testing.T) {
		stream := `{"Action":"start","Package":"example.com/p"}
{"Action":"output","Package":"example.com/p","Output":"panic: boom\n"}
{"Action":"fail","Package":"example.com/p","Elapsed":0.01}
`

		run, err := parseTestJSON(strings.NewReader(stream))
		require.NoError(t, err)
		require.Len(t, run.PackageFailures, 1)
		assert.Contains(t, run.FirstFailure(), "panic: boom")
	})

	t.Run("interrupted test counts as failed", func(t *testing.T) {
		stream := `{"Action":"run","Package":"example.com/p","Test":"TestHang"}
{"Action":"output","Package":"example.com/p","Test":"TestHang","Output":"still going\n"}
`

		run, err := parseTestJSON(strings.NewReader(stream))
		require.NoError(t, err)
		require.Len(t, run.Tests, 1)
		assert.Equal(t, m.TestFailed, run.Tests[0].Status)
		assert.Equal(t, "still going", run.Tests[0].FailureMessage)
	})
}

func TestTestName(t *testing.T) {
	assert.Equal(t, "TestOK", testName(testID("gooze.dev/pkg/x", "TestOK")))
	assert.Equal(t, "TestBare", testName("TestBare"))
}
