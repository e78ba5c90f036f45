package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string                `json:"scenario_name"`
	Trace        []TraceEvent          `json:"trace"`
	Boards       map[string][]CardView `json:"boards"`
}

// MarshalSnapshot renders a run as indented JSON with a trailing newline.
// Map keys are sorted, so equal runs render byte-identically.
func MarshalSnapshot(name string, r *Result) ([]byte, error) {
	data, err := json.MarshalIndent(TraceSnapshot{ScenarioName: name, Trace: r.Trace, Boards: r.Boards}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

// UpdateGolden writes the snapshot of result to dir/{name}.golden,
// replacing any existing file. Used by the CLI's --update flag.
func UpdateGolden(dir, name string, result *Result) error {
	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}
	return writeGolden(dir, name, data)
}

func writeGolden(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	path := filepath.Join(dir, name+".golden")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write golden %s: %w", path, err)
	}
	return nil
}

// ReadGolden returns the golden snapshot stored for name in dir.
func ReadGolden(dir, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, name+".golden"))
}
