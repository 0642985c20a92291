package harness

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Seq  int            `json:"seq"`
	Step string         `json:"step"`
	Args map[string]any `json:"args,omitempty"`

	// Error is the error code the step returned, if any.
	Error string `json:"error,omitempty"`

	// Optimistic is the state visible right after the step returned and
	// before its writes settled: job ids for reorders, the stage for moves.
	Optimistic []string `json:"optimistic,omitempty"`

	// Settled lists "op:outcome" for each settlement, in generation order.
	Settled []string `json:"settled,omitempty"`
}

// State is the final in-memory state of a scenario.
type State struct {
	Jobs       []string            `json:"jobs"`
	Candidates map[string]string   `json:"candidates"`
	Timeline   map[string][]string `json:"timeline"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion and expect_error matched.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
	State  State        `json:"state"`
}

// NewResult creates a passing result with empty collections.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State: State{
			Jobs:       []string{},
			Candidates: map[string]string{},
			Timeline:   map[string][]string{},
		},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
