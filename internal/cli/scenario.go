package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/talentflow/internal/harness"
)

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// ScenarioReport holds the overall result.
type ScenarioReport struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// Text implements Texter.
func (r ScenarioReport) Text() string {
	var b strings.Builder
	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(&b, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
	}
	fmt.Fprintf(&b, "\nScenario Summary: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	return b.String()
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario <file.yaml>...",
		Short: "Run conformance scenarios",
		Long: `Run YAML scenarios against a fresh in-memory database each and report
pass/fail. Directories are searched for *.yaml and *.yml files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (no scenario files found)

Examples:
  talentflow scenario testdata/scenarios
  talentflow scenario testdata/scenarios/stage_rollback.yaml --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := scenarioFiles(args)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to find scenarios", err)
			}
			if len(files) == 0 {
				return NewExitError(ExitCommandError, "no scenario files found")
			}

			report := ScenarioReport{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
			for _, file := range files {
				r := runScenarioFile(file)
				report.Scenarios = append(report.Scenarios, r)
				if r.Pass {
					report.Passed++
				} else {
					report.Failed++
				}
			}

			if err := rootOpts.formatter(cmd).Success(report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
			}
			return nil
		},
	}
}

func runScenarioFile(file string) ScenarioResult {
	res := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return res
	}
	res.Name = scenario.Name

	result, err := harness.Run(scenario)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return res
	}
	res.Pass = result.Pass
	res.Errors = result.Errors
	return res
}

// scenarioFiles expands directories into their YAML files, in name order.
func scenarioFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		matches, err := filepath.Glob(filepath.Join(arg, "*.y*ml"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			if ext := filepath.Ext(arg); ext == ".yaml" || ext == ".yml" {
				files = append(files, arg)
			}
			continue
		}
		for _, m := range matches {
			if ext := filepath.Ext(m); ext == ".yaml" || ext == ".yml" {
				files = append(files, m)
			}
		}
	}
	return files, nil
}
