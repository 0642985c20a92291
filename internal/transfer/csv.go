// Package transfer reads and writes the external file formats: candidate
// CSV import/export and JSON export of any record collection.
package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/talentflow/internal/domain"
)

// Header is the exact CSV header row.
var Header = []string{"Name", "Email", "Phone", "Stage", "Job Title", "Applied Date"}

// DateLayout is the Applied Date column format.
const DateLayout = "2006-01-02"

var validate = validator.New()

// row is one CSV data line before conversion.
type row struct {
	Name        string `validate:"required"`
	Email       string `validate:"required,email"`
	Phone       string
	Stage       string `validate:"required,oneof=applied screening technical offer hired rejected"`
	JobTitle    string
	AppliedDate string `validate:"required,datetime=2006-01-02"`
}

// ImportCSV parses candidate rows. A first row equal to Header is skipped;
// blank lines are ignored. Job Title resolves JobID against jobs by
// case-insensitive title; an unmatched title leaves JobID empty.
//
// Imported candidates have no id; the caller assigns one. Any malformed row
// fails the whole import with a VALIDATION error naming its line.
func ImportCSV(r io.Reader, jobs []domain.Job) ([]domain.Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.TrimLeadingSpace = true

	out := make([]domain.Candidate, 0)
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &domain.Error{
					Code:    domain.ErrCodeValidation,
					Message: fmt.Sprintf("line %d: %v", pe.Line, pe.Err),
					Err:     err,
				}
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}

		c, err := parseRow(rec, jobs)
		if err != nil {
			return nil, &domain.Error{
				Code:    domain.ErrCodeValidation,
				Message: fmt.Sprintf("line %d: %s", line, err),
				Err:     err,
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func isHeader(rec []string) bool {
	for i, h := range Header {
		if rec[i] != h {
			return false
		}
	}
	return true
}

func parseRow(rec []string, jobs []domain.Job) (domain.Candidate, error) {
	r := row{
		Name:        rec[0],
		Email:       rec[1],
		Phone:       rec[2],
		Stage:       rec[3],
		JobTitle:    rec[4],
		AppliedDate: rec[5],
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s %q (%s)", fe.Field(), fe.Value(), fe.Tag()))
			}
			return domain.Candidate{}, errors.New("invalid " + strings.Join(fields, ", "))
		}
		return domain.Candidate{}, err
	}

	applied, err := time.Parse(DateLayout, r.AppliedDate)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("applied date: %w", err)
	}
	return domain.Candidate{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Stage:       domain.Stage(r.Stage),
		JobID:       resolveJob(r.JobTitle, jobs),
		JobTitle:    r.JobTitle,
		AppliedDate: applied,
	}, nil
}

func resolveJob(title string, jobs []domain.Job) string {
	if title == "" {
		return ""
	}
	for _, j := range jobs {
		if strings.EqualFold(j.Title, title) {
			return j.ID
		}
	}
	return ""
}

// ExportCSV writes the header and one row per candidate. Fields containing
// commas or quotes are quoted.
func ExportCSV(w io.Writer, cands []domain.Candidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range cands {
		rec := []string{
			c.Name,
			c.Email,
			c.Phone,
			string(c.Stage),
			c.JobTitle,
			c.AppliedDate.UTC().Format(DateLayout),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
