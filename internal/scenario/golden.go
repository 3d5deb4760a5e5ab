package scenario

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the rendered trace of result with
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(FormatTrace(result.Trace)))
}

// RunWithGolden loads the scenario at path, runs it with opts and compares
// its trace with the golden file named after the scenario. Failed
// expectations fail the test.
func RunWithGolden(t *testing.T, path string, opts Options) *Result {
	t.Helper()

	sc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	result, err := Run(t.Context(), sc, opts)
	if err != nil {
		t.Fatalf("run %s: %v", sc.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", sc.Name, msg)
	}
	AssertGolden(t, sc.Name, result)
	return result
}
