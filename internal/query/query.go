// Package query derives paginated, searched and filtered read views over a
// snapshot of the job or candidate collection.
//
// Compute is a pure function of its inputs: it never caches and never
// mutates the source. Callers recompute after every state or parameter
// change.
//
// Usage contract: changing Search or Filter must reset Page to 1, otherwise
// a narrowed result can leave the caller on a page past the end. Use
// Params.WithSearch and Params.WithFilter, which do this.
package query

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/talentflow/internal/domain"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 10

// Params selects a view.
type Params struct {
	Search   string `json:"search,omitempty" yaml:"search,omitempty"`
	Filter   string `json:"filter,omitempty" yaml:"filter,omitempty"` // exact stage or status; empty matches all
	Page     int    `json:"page" yaml:"page"`                         // 1-based
	PageSize int    `json:"pageSize" yaml:"page_size"`
}

// NewParams returns first-page params with no search or filter.
func NewParams(pageSize int) Params {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return Params{Page: 1, PageSize: pageSize}
}

// WithSearch returns p with a new search term and Page reset to 1.
func (p Params) WithSearch(search string) Params {
	p.Search = search
	p.Page = 1
	return p
}

// WithFilter returns p with a new filter and Page reset to 1.
func (p Params) WithFilter(filter string) Params {
	p.Filter = filter
	p.Page = 1
	return p
}

// WithPage returns p on another page.
func (p Params) WithPage(page int) Params {
	p.Page = page
	return p
}

// Validate rejects non-positive page numbers and sizes.
func (p Params) Validate() error {
	if p.Page < 1 {
		return domain.Validationf("page must be >= 1, got %d", p.Page)
	}
	if p.PageSize < 1 {
		return domain.Validationf("page size must be >= 1, got %d", p.PageSize)
	}
	return nil
}

// Result is one page of a view.
type Result[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Matcher describes how a record type is searched and filtered.
type Matcher[T any] struct {
	// Text returns the fields the search term is matched against.
	Text func(T) []string
	// Key returns the value the filter must equal.
	Key func(T) string
}

// Jobs searches title and tags and filters on status.
var Jobs = Matcher[domain.Job]{
	Text: func(j domain.Job) []string { return append([]string{j.Title}, j.Tags...) },
	Key:  func(j domain.Job) string { return string(j.Status) },
}

// Candidates searches name and email and filters on stage.
var Candidates = Matcher[domain.Candidate]{
	Text: func(c domain.Candidate) []string { return []string{c.Name, c.Email} },
	Key:  func(c domain.Candidate) string { return string(c.Stage) },
}

// Compute filters source by p.Search and p.Filter (ANDed), then returns the
// requested page. A page past the end is empty, not an error.
func Compute[T any](source []T, m Matcher[T], p Params) (Result[T], error) {
	if err := p.Validate(); err != nil {
		return Result[T]{}, err
	}

	needle := newFolder().fold(strings.TrimSpace(p.Search))
	f := newFolder()

	filtered := make([]T, 0, len(source))
	for _, item := range source {
		if p.Filter != "" && m.Key(item) != p.Filter {
			continue
		}
		if needle != "" && !f.matches(m.Text(item), needle) {
			continue
		}
		filtered = append(filtered, item)
	}

	total := len(filtered)
	totalPages := total / p.PageSize
	if total%p.PageSize != 0 {
		totalPages++
	}

	// Page and PageSize are unbounded: compare before multiplying.
	start := total
	if p.Page <= totalPages {
		start = (p.Page - 1) * p.PageSize
	}
	end := start + min(p.PageSize, total-start)
	items := make([]T, end-start)
	copy(items, filtered[start:end])

	return Result[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}, nil
}

// folder normalises strings for case-insensitive comparison. A cases.Caser
// is stateful, so each Compute call gets its own.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(norm.NFC.String(s))
}

func (f *folder) matches(fields []string, needle string) bool {
	for _, field := range fields {
		if strings.Contains(f.fold(field), needle) {
			return true
		}
	}
	return false
}
