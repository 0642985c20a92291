package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/jobs"
	"github.com/roach88/talentflow/internal/provider"
	"github.com/roach88/talentflow/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %v", event.Seq, event.Step, event.Args)
		if event.Error != "" {
			fmt.Fprintf(&buf, " error=%s", event.Error)
		}
		if len(event.Settled) > 0 {
			fmt.Fprintf(&buf, " settled=%v", event.Settled)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

// AssertionContext gives assertions access to the persisted state.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// assertJobOrder compares the job order, in memory or as persisted.
func assertJobOrder(result *Result, a Assertion, actx *AssertionContext) error {
	got := result.State.Jobs
	if a.Durable {
		persisted, err := durableJobs(actx)
		if err != nil {
			return err
		}
		got = jobIDs(persisted)
	}
	if slices.Equal(got, a.IDs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertJobOrder + durableSuffix(a.Durable),
		Expected: fmt.Sprintf("%v", a.IDs),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

// assertDenseOrder checks that the persisted orders are exactly 0..n-1.
func assertDenseOrder(result *Result, actx *AssertionContext) error {
	persisted, err := durableJobs(actx)
	if err != nil {
		return err
	}
	if jobs.IsDense(persisted) {
		return nil
	}
	orders := make([]int, len(persisted))
	for i, j := range persisted {
		orders[i] = j.Order
	}
	return &AssertionError{
		Type:     AssertDenseOrder,
		Expected: fmt.Sprintf("orders 0..%d", len(persisted)-1),
		Actual:   fmt.Sprintf("%v", orders),
		Trace:    result.Trace,
	}
}

// assertCandidateStage compares one candidate's stage, in memory or as
// persisted.
func assertCandidateStage(result *Result, a Assertion, actx *AssertionContext) error {
	got, ok := result.State.Candidates[a.ID]
	if a.Durable {
		rec, err := actx.Store.Get(actx.Ctx, provider.TableCandidates, a.ID)
		switch {
		case domain.IsNotFound(err):
			ok = false
		case err != nil:
			return fmt.Errorf("%s: %w", AssertCandidateStage, err)
		default:
			got, ok = string(rec.(domain.Candidate).Stage), true
		}
	}
	if ok && got == a.Stage {
		return nil
	}
	if !ok {
		got = "<missing>"
	}
	return &AssertionError{
		Type:     AssertCandidateStage + durableSuffix(a.Durable),
		Expected: fmt.Sprintf("%s in %s", a.ID, a.Stage),
		Actual:   fmt.Sprintf("%s in %s", a.ID, got),
		Trace:    result.Trace,
	}
}

// assertTimelineCount counts a candidate's timeline events, optionally only
// those for one stage. Durable counts read the timeline table.
func assertTimelineCount(result *Result, a Assertion, actx *AssertionContext) error {
	var stages []string
	if a.Durable {
		recs, err := actx.Store.Query(actx.Ctx, provider.TableTimeline, "candidate_id", a.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", AssertTimelineCount, err)
		}
		events, err := provider.TimelineEvents(recs)
		if err != nil {
			return fmt.Errorf("%s: %w", AssertTimelineCount, err)
		}
		for _, e := range events {
			stages = append(stages, string(e.Stage))
		}
	} else {
		for _, line := range result.State.Timeline[a.ID] {
			stage, _, _ := strings.Cut(line, ":")
			stages = append(stages, stage)
		}
	}

	n := 0
	for _, s := range stages {
		if a.Stage == "" || s == a.Stage {
			n++
		}
	}
	if n == *a.Count {
		return nil
	}
	what := a.ID
	if a.Stage != "" {
		what += " in " + a.Stage
	}
	return &AssertionError{
		Type:     AssertTimelineCount + durableSuffix(a.Durable),
		Expected: fmt.Sprintf("%d events for %s", *a.Count, what),
		Actual:   fmt.Sprintf("%d events", n),
		Trace:    result.Trace,
	}
}

// assertOutcomeCount counts settlements of one op with one outcome across
// the whole trace.
func assertOutcomeCount(result *Result, a Assertion) error {
	n := 0
	for _, ev := range result.Trace {
		for _, s := range ev.Settled {
			parts := strings.Split(s, ":")
			if len(parts) == 3 && parts[0] == a.Op && parts[2] == a.Outcome {
				n++
			}
		}
	}
	if n == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutcomeCount,
		Expected: fmt.Sprintf("%d %s %s", *a.Count, a.Op, a.Outcome),
		Actual:   fmt.Sprintf("%d", n),
		Trace:    result.Trace,
	}
}

func durableJobs(actx *AssertionContext) ([]domain.Job, error) {
	if actx == nil || actx.Store == nil {
		return nil, fmt.Errorf("durable assertions require database context")
	}
	recs, err := actx.Store.All(actx.Ctx, provider.TableJobs)
	if err != nil {
		return nil, fmt.Errorf("read jobs: %w", err)
	}
	return provider.Jobs(recs)
}

func durableSuffix(durable bool) string {
	if durable {
		return " (durable)"
	}
	return ""
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for durable assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		needsStore := assertion.Durable || assertion.Type == AssertDenseOrder
		if needsStore && (actx == nil || actx.Store == nil) {
			errs = append(errs, fmt.Sprintf("assertion[%d]: %s requires database context", i, assertion.Type))
			continue
		}

		switch assertion.Type {
		case AssertJobOrder:
			err = assertJobOrder(result, assertion, actx)
		case AssertDenseOrder:
			err = assertDenseOrder(result, actx)
		case AssertCandidateStage:
			err = assertCandidateStage(result, assertion, actx)
		case AssertTimelineCount:
			err = assertTimelineCount(result, assertion, actx)
		case AssertOutcomeCount:
			err = assertOutcomeCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
