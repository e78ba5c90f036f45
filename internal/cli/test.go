package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theonlysinjin/team-retro/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // defaults to <scenarios-dir>/../golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match" | "mismatch" | "missing" | "updated"
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run board scenarios",
		Long: `Run multi-client board scenarios against an in-memory backend.

Each scenario hosts a session, replays its flow step by step and checks the
recorded trace and final boards. Snapshots are compared against golden files
when one exists.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  retro test ./testdata/scenarios
  retro test ./testdata/scenarios --filter "drag_*"
  retro test ./testdata/scenarios --update
  retro test ./testdata/scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}
	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden")
	}

	files, err := harness.FindScenarios(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(opts, file, goldenDir)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	f := opts.formatter(cmd)
	if err := f.Success(testSummary(result), result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

func runScenario(opts *TestOptions, file, goldenDir string) ScenarioResult {
	sr := ScenarioResult{Name: strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{err.Error()}
		return sr
	}
	sr.Name = scenario.Name

	var hopts []harness.Option
	if opts.Logger != nil && opts.Verbose {
		hopts = append(hopts, harness.WithLogger(opts.Logger.With("scenario", scenario.Name)))
	}
	hopts = append(hopts, harness.WithLayout(opts.Config.Layout()))

	res, err := harness.Run(scenario, hopts...)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("setup: %v", err)}
		return sr
	}
	sr.Pass = res.Pass
	sr.Errors = res.Errors

	if opts.Update {
		if err := harness.UpdateGolden(goldenDir, scenario.Name, res); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
		sr.Golden = "updated"
		return sr
	}

	want, err := harness.ReadGolden(goldenDir, scenario.Name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		sr.Golden = "missing"
		return sr
	case err != nil:
		sr.Pass = false
		sr.Errors = append(sr.Errors, err.Error())
		return sr
	}
	got, err := harness.MarshalSnapshot(scenario.Name, res)
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, err.Error())
		return sr
	}
	if bytes.Equal(got, want) {
		sr.Golden = "match"
	} else {
		sr.Golden = "mismatch"
		sr.Pass = false
		sr.Errors = append(sr.Errors, "snapshot differs from golden file (rerun with --update to accept)")
	}
	return sr
}

func testSummary(r TestResult) string {
	if r.Total == 0 {
		return "No scenarios found."
	}
	var b strings.Builder
	for _, s := range r.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s", mark, s.Name)
		if s.Golden != "" {
			fmt.Fprintf(&b, " (golden: %s)", s.Golden)
		}
		b.WriteString("\n")
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "    %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\n%d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
	return b.String()
}
