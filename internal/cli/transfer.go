package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/transfer"
)

// ImportResult reports an import.
type ImportResult struct {
	File       string   `json:"file"`
	Imported   int      `json:"imported"`
	IDs        []string `json:"ids"`
	Unresolved int      `json:"unresolvedJobs"`
}

// Text implements Texter.
func (r ImportResult) Text() string {
	s := fmt.Sprintf("Imported %d candidates from %s.\n", r.Imported, r.File)
	if r.Unresolved > 0 {
		s += fmt.Sprintf("%d rows had a job title that matched no job.\n", r.Unresolved)
	}
	return s
}

// ExportResult reports an export written to a file.
type ExportResult struct {
	Kind  string `json:"kind"`
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Text implements Texter.
func (r ExportResult) Text() string {
	return fmt.Sprintf("Exported %d %s to %s.\n", r.Count, r.Kind, r.File)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import candidates from CSV",
		Long: `Import candidates from a CSV file with the columns

  Name,Email,Phone,Stage,Job Title,Applied Date

The header row is optional. Dates are YYYY-MM-DD. Job Title is matched
case-insensitively against existing jobs. Any invalid row rejects the
whole file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open CSV", err)
			}
			defer f.Close()

			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			parsed, err := transfer.ImportCSV(f, s.coord.AllJobs())
			if err != nil {
				return commandError("failed to parse "+args[0], err)
			}
			imported, err := s.coord.ImportCandidates(cmd.Context(), parsed)
			if err != nil {
				return commandError("failed to import candidates", err)
			}

			res := ImportResult{File: args[0], Imported: len(imported), IDs: make([]string, 0, len(imported))}
			for _, c := range imported {
				res.IDs = append(res.IDs, c.ID)
				if c.JobID == "" && c.JobTitle != "" {
					res.Unresolved++
				}
			}
			return rootOpts.formatter(cmd).Success(res)
		},
	}
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output, as string
	cmd := &cobra.Command{
		Use:   "export candidates|jobs",
		Short: "Export candidates (CSV) or jobs (JSON)",
		Long: `Export every candidate or job.

Candidates default to CSV and jobs to JSON; --as overrides. Without -o the
export goes to stdout.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"candidates", "jobs"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if kind != "candidates" && kind != "jobs" {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown export %q: must be candidates or jobs", kind))
			}
			if as == "" {
				as = map[string]string{"candidates": "csv", "jobs": "json"}[kind]
			}
			if as != "csv" && as != "json" {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid --as %q: must be csv or json", as))
			}
			if kind == "jobs" && as == "csv" {
				return NewExitError(ExitCommandError, "jobs can only be exported as json")
			}

			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to create output file", err)
				}
				defer f.Close()
				w = f
			}

			count, err := export(w, kind, as, s)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to export "+kind, err)
			}
			if output == "" {
				return nil
			}
			return rootOpts.formatter(cmd).Success(ExportResult{Kind: kind, File: output, Count: count})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&as, "as", "", "format: csv (candidates only) or json")
	return cmd
}

func export(w io.Writer, kind, as string, s *session) (int, error) {
	if kind == "jobs" {
		jobs := s.coord.AllJobs()
		return len(jobs), transfer.ExportJSON(w, jobs)
	}
	cands := s.coord.AllCandidates()
	if as == "json" {
		return len(cands), transfer.ExportJSON[domain.Candidate](w, cands)
	}
	return len(cands), transfer.ExportCSV(w, cands)
}
