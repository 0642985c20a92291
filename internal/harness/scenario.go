package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/talentflow/internal/domain"
)

// Scenario is a conformance scenario: seed data, a flow of intents and
// faults, and assertions on the final state.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Seed        Seed        `yaml:"seed,omitempty"`
	Flow        []Step      `yaml:"flow"`
	Assertions  []Assertion `yaml:"assertions"`
}

// Seed is written straight to the database before the coordinator loads.
type Seed struct {
	Jobs       []SeedJob       `yaml:"jobs,omitempty"`
	Candidates []SeedCandidate `yaml:"candidates,omitempty"`
}

// SeedJob is a job row. Order defaults to its position in the seed list and
// Status to active.
type SeedJob struct {
	ID     string   `yaml:"id"`
	Title  string   `yaml:"title"`
	Status string   `yaml:"status,omitempty"`
	Tags   []string `yaml:"tags,omitempty"`
	Order  *int     `yaml:"order,omitempty"`
}

// SeedCandidate is a candidate row. Stage defaults to applied.
type SeedCandidate struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Stage string `yaml:"stage,omitempty"`
	JobID string `yaml:"job_id,omitempty"`
}

// Step is one flow entry. Exactly one action field must be set.
type Step struct {
	Reorder         *ReorderStep         `yaml:"reorder,omitempty"`
	Move            *MoveStep            `yaml:"move,omitempty"`
	CreateJob       *CreateJobStep       `yaml:"create_job,omitempty"`
	CreateCandidate *CreateCandidateStep `yaml:"create_candidate,omitempty"`
	Archive         string               `yaml:"archive,omitempty"`
	DeleteJob       string               `yaml:"delete_job,omitempty"`
	ImportCSV       string               `yaml:"import_csv,omitempty"`
	Fail            *FailStep            `yaml:"fail,omitempty"`

	// ExpectError is the error code the step must return
	// (NOT_FOUND, VALIDATION, PERSISTENCE_FAILURE). Empty means success.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// ReorderStep drops job Active onto job Over.
type ReorderStep struct {
	Active string `yaml:"active"`
	Over   string `yaml:"over"`
}

// MoveStep drops candidate ID onto a column (Stage) or a card (Onto).
type MoveStep struct {
	ID    string `yaml:"id"`
	Stage string `yaml:"stage,omitempty"`
	Onto  string `yaml:"onto,omitempty"`
	Notes string `yaml:"notes,omitempty"`
}

// CreateJobStep creates a job.
type CreateJobStep struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags,omitempty"`
}

// CreateCandidateStep creates a candidate.
type CreateCandidateStep struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	JobID string `yaml:"job_id"`
}

// FailStep makes the next Times provider operations matching Op, Table and
// ID fail. Times < 0 fails them for the rest of the scenario.
type FailStep struct {
	Op    string `yaml:"op"`
	Table string `yaml:"table,omitempty"`
	ID    string `yaml:"id,omitempty"`
	Times int    `yaml:"times"`
}

// Assertion validates the final state.
type Assertion struct {
	Type    string   `yaml:"type"`
	IDs     []string `yaml:"ids,omitempty"`
	ID      string   `yaml:"id,omitempty"`
	Stage   string   `yaml:"stage,omitempty"`
	Op      string   `yaml:"op,omitempty"`
	Outcome string   `yaml:"outcome,omitempty"`
	Count   *int     `yaml:"count,omitempty"`
	Durable bool     `yaml:"durable,omitempty"`
}

// Assertion type constants.
const (
	AssertJobOrder       = "job_order"
	AssertDenseOrder     = "dense_order"
	AssertCandidateStage = "candidate_stage"
	AssertTimelineCount  = "timeline_count"
	AssertOutcomeCount   = "outcome_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must have at least one step")
	}
	for i, j := range s.Seed.Jobs {
		if j.ID == "" || j.Title == "" {
			return fmt.Errorf("seed.jobs[%d]: id and title are required", i)
		}
		if j.Status != "" && !domain.JobStatus(j.Status).Valid() {
			return fmt.Errorf("seed.jobs[%d]: unknown status %q", i, j.Status)
		}
	}
	for i, c := range s.Seed.Candidates {
		if c.ID == "" {
			return fmt.Errorf("seed.candidates[%d]: id is required", i)
		}
		if c.Stage != "" && !domain.Stage(c.Stage).Valid() {
			return fmt.Errorf("seed.candidates[%d]: unknown stage %q", i, c.Stage)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	for _, present := range []bool{
		step.Reorder != nil,
		step.Move != nil,
		step.CreateJob != nil,
		step.CreateCandidate != nil,
		step.Archive != "",
		step.DeleteJob != "",
		step.ImportCSV != "",
		step.Fail != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("flow[%d]: exactly one action is required, got %d", index, set)
	}

	switch {
	case step.Move != nil:
		if (step.Move.Stage == "") == (step.Move.Onto == "") {
			return fmt.Errorf("flow[%d]: move needs exactly one of stage or onto", index)
		}
	case step.Fail != nil:
		if step.Fail.Op == "" {
			return fmt.Errorf("flow[%d]: fail.op is required", index)
		}
		if step.Fail.Times == 0 {
			return fmt.Errorf("flow[%d]: fail.times must be non-zero", index)
		}
	}

	switch domain.ErrorCode(step.ExpectError) {
	case "", domain.ErrCodeNotFound, domain.ErrCodeValidation, domain.ErrCodePersistence:
	default:
		return fmt.Errorf("flow[%d]: unknown expect_error %q", index, step.ExpectError)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertJobOrder:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for job_order", index)
		}
	case AssertDenseOrder:
	case AssertCandidateStage:
		if a.ID == "" || a.Stage == "" {
			return fmt.Errorf("assertions[%d]: id and stage are required for candidate_stage", index)
		}
	case AssertTimelineCount:
		if a.ID == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: id and count are required for timeline_count", index)
		}
	case AssertOutcomeCount:
		if a.Op == "" || a.Outcome == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: op, outcome and count are required for outcome_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Count != nil && *a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}
