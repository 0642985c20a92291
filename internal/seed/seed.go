// Package seed generates demo jobs and candidates and writes them to a
// provider. Generation is deterministic for a given random seed.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/provider"
)

// Defaults match the demo data set size.
const (
	DefaultJobs       = 25
	DefaultCandidates = 1000
)

var jobTitles = []string{
	"Senior Frontend Developer",
	"Backend Engineer",
	"Full Stack Developer",
	"Product Manager",
	"UX Designer",
	"UI Designer",
	"DevOps Engineer",
	"Data Scientist",
	"Mobile Developer",
	"QA Engineer",
	"Security Engineer",
	"Cloud Architect",
	"Technical Writer",
	"Scrum Master",
	"Business Analyst",
}

var (
	tags      = []string{"Remote", "On-site", "Hybrid", "Full-time", "Part-time", "Contract"}
	locations = []string{"New York", "San Francisco", "Austin", "Boston", "Seattle", "Remote"}
	jobTypes  = []string{"Full-time", "Part-time", "Contract", "Internship"}

	firstNames = []string{
		"Ada", "Alan", "Grace", "Linus", "Margaret", "Dennis", "Barbara", "Ken",
		"Frances", "Edsger", "Radia", "Donald", "Hedy", "John", "Katherine", "Tim",
	}
	lastNames = []string{
		"Lovelace", "Turing", "Hopper", "Torvalds", "Hamilton", "Ritchie", "Liskov", "Thompson",
		"Allen", "Dijkstra", "Perlman", "Knuth", "Lamarr", "Doe", "Johnson", "Berners-Lee",
	}
)

// Options controls what Run generates.
type Options struct {
	Jobs       int
	Candidates int
	// Seed makes generation reproducible.
	Seed uint64
	// Now anchors created and applied dates, which fall in the year before it.
	Now time.Time
}

// Data is a generated data set.
type Data struct {
	Jobs       []domain.Job
	Candidates []domain.Candidate
	Timeline   []domain.TimelineEvent
}

// Summary reports what Run wrote.
type Summary struct {
	Jobs       int `json:"jobs"`
	Candidates int `json:"candidates"`
	Events     int `json:"events"`
	// Skipped is true when the database already held data.
	Skipped bool `json:"skipped"`
}

// Generate builds jobs with dense order, then candidates spread over them,
// each with its initial "Application submitted" timeline event.
func Generate(opts Options) Data {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	r := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var data Data
	for i := 0; i < opts.Jobs; i++ {
		title := pick(r, jobTitles)
		status := domain.JobActive
		if r.Float64() < 0.3 {
			status = domain.JobArchived
		}
		data.Jobs = append(data.Jobs, domain.Job{
			ID:          fmt.Sprintf("job-%d", i+1),
			Title:       title,
			Slug:        fmt.Sprintf("%s-%d", domain.Slugify(title), i+1),
			Status:      status,
			Tags:        pickN(r, tags, 2+r.IntN(3)),
			Order:       i,
			Location:    pick(r, locations),
			Type:        pick(r, jobTypes),
			Description: fmt.Sprintf("We are looking for a talented %s to join our growing team.", title),
			Requirements: []string{
				fmt.Sprintf("%d+ years of experience", 2+r.IntN(4)),
				"Strong communication skills",
				"Problem-solving abilities",
			},
			CreatedAt: pastDate(r, opts.Now),
		})
	}

	stages := domain.Stages()
	for i := 0; i < opts.Candidates; i++ {
		first, last := pick(r, firstNames), pick(r, lastNames)
		applied := pastDate(r, opts.Now)
		c := domain.Candidate{
			ID:          fmt.Sprintf("cand-%d", i+1),
			Name:        first + " " + last,
			Email:       fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1),
			Phone:       fmt.Sprintf("555-%04d", r.IntN(10000)),
			Stage:       stages[r.IntN(len(stages))],
			AppliedDate: applied,
		}
		if len(data.Jobs) > 0 {
			j := data.Jobs[r.IntN(len(data.Jobs))]
			c.JobID, c.JobTitle = j.ID, j.Title
		}
		data.Candidates = append(data.Candidates, c)
		data.Timeline = append(data.Timeline, domain.TimelineEvent{
			ID:          fmt.Sprintf("timeline-%d-1", i+1),
			CandidateID: c.ID,
			Stage:       domain.StageApplied,
			Timestamp:   applied,
			Notes:       domain.InitialEventNotes,
			ChangedBy:   domain.InitialEventAuthor,
		})
	}
	return data
}

// Run generates a data set and writes it to p, unless p already holds jobs
// or candidates.
func Run(ctx context.Context, p provider.Provider, opts Options, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, table := range []provider.Table{provider.TableJobs, provider.TableCandidates} {
		existing, err := p.All(ctx, table)
		if err != nil {
			return Summary{}, fmt.Errorf("seed: %w", domain.Persistence("count "+string(table), err))
		}
		if len(existing) > 0 {
			logger.Info("database already seeded", "table", table, "rows", len(existing))
			return Summary{Skipped: true}, nil
		}
	}

	data := Generate(opts)
	writes := []struct {
		table   provider.Table
		records []domain.Record
	}{
		{provider.TableJobs, provider.AsRecords(data.Jobs)},
		{provider.TableCandidates, provider.AsRecords(data.Candidates)},
		{provider.TableTimeline, provider.AsRecords(data.Timeline)},
	}
	for _, w := range writes {
		if len(w.records) == 0 {
			continue
		}
		if err := p.BulkPut(ctx, w.table, w.records); err != nil {
			return Summary{}, fmt.Errorf("seed: %w", domain.Persistence("put "+string(w.table), err))
		}
	}

	logger.Info("database seeded",
		"jobs", len(data.Jobs), "candidates", len(data.Candidates), "events", len(data.Timeline))
	return Summary{Jobs: len(data.Jobs), Candidates: len(data.Candidates), Events: len(data.Timeline)}, nil
}

func pick(r *rand.Rand, from []string) string {
	return from[r.IntN(len(from))]
}

// pickN returns n distinct elements of from in their original order.
func pickN(r *rand.Rand, from []string, n int) []string {
	idx := r.Perm(len(from))[:min(n, len(from))]
	chosen := make([]bool, len(from))
	for _, i := range idx {
		chosen[i] = true
	}
	out := make([]string, 0, n)
	for i, s := range from {
		if chosen[i] {
			out = append(out, s)
		}
	}
	return out
}

func pastDate(r *rand.Rand, now time.Time) time.Time {
	back := time.Duration(r.Int64N(int64(365 * 24 * time.Hour)))
	return now.Add(-back).Truncate(time.Second)
}
