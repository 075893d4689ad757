package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/programme-lv/grader/report"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498db"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f8c8d"))
)

func renderReport(rep *report.Report) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Report (%s)", rep.Domain)))
	sb.WriteString("\n\n")
	sb.WriteString(renderRows(rep.Assignments, rep.Enrolled))
	sb.WriteString("\n")

	if len(rep.Unlisted) > 0 {
		sb.WriteString("\n")
		sb.WriteString(titleStyle.Render("Not on the roster"))
		sb.WriteString("\n\n")
		sb.WriteString(renderRows(rep.Assignments, rep.Unlisted))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("Distribution"))
	sb.WriteString("\n\n")
	sb.WriteString(renderDistribution(rep.Distribution))
	return sb.String()
}

func renderRows(assignments []string, rows []report.StudentRow) string {
	headers := []string{"ID", "Name"}
	for _, a := range assignments {
		headers = append(headers, a)
	}
	headers = append(headers, "Avg", "Grade")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range rows {
		cells := []string{r.StudentID, r.DisplayName}
		for i := range assignments {
			cells = append(cells, scoreCell(r, i))
		}
		cells = append(cells, formatScore(r.Average), r.Letter)
		t.Row(cells...)
	}
	return t.String()
}

// scoreCell shows the score with its status and lateness tag, e.g. "52.5 ○遅".
func scoreCell(r report.StudentRow, i int) string {
	return fmt.Sprintf("%s %s%s", formatScore(r.Scores[i]), r.Statuses[i], r.Tags[i])
}

func renderDistribution(dist []report.GradeCount) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Grade", "Count", "%").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, g := range dist {
		t.Row(g.Letter, strconv.Itoa(g.Count), formatScore(g.Percent))
	}
	return t.String()
}

func formatScore(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
