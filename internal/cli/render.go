package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/roach88/talentflow/internal/coordinator"
	"github.com/roach88/talentflow/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(24)
)

// renderTable draws rows under headers with a normal border.
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	return t.Render() + "\n"
}

// pageFooter is the "page x of y" line under a list.
func pageFooter(page, totalPages, total int) string {
	return dimStyle.Render(fmt.Sprintf("page %d of %d (%d total)", page, max(totalPages, 1), total)) + "\n"
}

// renderColumns lays out Kanban columns side by side.
func renderColumns(columns []BoardColumn) string {
	blocks := make([]string, len(columns))
	for i, col := range columns {
		var b strings.Builder
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", col.Stage, len(col.Candidates))))
		for _, c := range col.Candidates {
			b.WriteString("\n" + c.Name + " " + dimStyle.Render(c.ID))
		}
		blocks[i] = columnStyle.Render(b.String())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...) + "\n"
}

// settlementLines renders one line per notification.
func settlementLines(notes []Settlement) string {
	var b strings.Builder
	for _, n := range notes {
		line := fmt.Sprintf("  %s %s: %s", n.Op, n.EntityID, n.Outcome)
		if n.Error != "" {
			line += dimStyle.Render(" (" + n.Error + ")")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Settlement is the JSON form of a coordinator notification.
type Settlement struct {
	Op         coordinator.Op      `json:"op"`
	Outcome    coordinator.Outcome `json:"outcome"`
	Generation int64               `json:"generation"`
	EntityID   string              `json:"entityId"`
	Error      string              `json:"error,omitempty"`
}

func toSettlements(notes []coordinator.Notification) []Settlement {
	out := make([]Settlement, len(notes))
	for i, n := range notes {
		out[i] = Settlement{Op: n.Op, Outcome: n.Outcome, Generation: n.Generation, EntityID: n.EntityID}
		if n.Err != nil {
			out[i].Error = n.Err.Error()
		}
	}
	return out
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func formatDate(c domain.Candidate) string {
	return c.AppliedDate.Format("2006-01-02")
}
