package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/sma-timetable-api/internal/fixture"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
)

const cellWidth = 16

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Width(cellWidth).Align(lipgloss.Center).Foreground(lipgloss.Color("#DDDDDD"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Width(6).Foreground(lipgloss.Color("#AAAAAA"))
	cellStyle   = lipgloss.NewStyle().Width(cellWidth).Height(3).Padding(0, 1)
	emptyStyle  = cellStyle.Foreground(lipgloss.Color("#444444"))
	mergedStyle = cellStyle.Foreground(lipgloss.Color("#FFB86C"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#50FA7B"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	errorStyle  = warnStyle
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func renderCohort(f *fixture.Fixture, grid *models.Grid, cohort string) string {
	header := []string{labelStyle.Render("")}
	for _, day := range f.Layout.Days {
		header = append(header, headerStyle.Render(day))
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	for period := 0; period < f.Layout.Slots(); period++ {
		row := []string{labelStyle.Render(models.PeriodLabel(period))}
		for day := range f.Layout.Days {
			row = append(row, renderCell(f, grid.Cell(cohort, day, period)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return boxStyle.Render(titleStyle.Render(cohort) + "\n" + body)
}

func renderCell(f *fixture.Fixture, p *models.Placement) string {
	if p == nil {
		return emptyStyle.Render("·")
	}
	var parts []string
	if subject, ok := f.Subject(p.SubjectID); ok {
		parts = append(parts, subject.Name)
	}
	if teacher, ok := f.Teacher(p.TeacherID); ok {
		label := teacher.Code
		if label == "" {
			label = teacher.Name
		}
		parts = append(parts, label)
	}
	if room, ok := f.Room(p.RoomID); ok {
		parts = append(parts, room.Name)
	}
	style := cellStyle
	if p.Merged() {
		style = mergedStyle
	}
	return style.Render(strings.Join(parts, "\n"))
}

func renderSummary(result service.SolveResult) string {
	status := okStyle.Render("all sessions placed")
	if result.UnplacedCount > 0 {
		status = warnStyle.Render(fmt.Sprintf("%d sessions unplaced", result.UnplacedCount))
	}
	lines := []string{
		status,
		fmt.Sprintf("phase %s, %d tokens, %d cells demanded of %d", result.Phase, result.Tokens, result.CellDemand, result.Capacity),
	}
	if result.CapacityWarning {
		lines = append(lines, warnStyle.Render("demand exceeds grid capacity"))
	}
	for _, pass := range result.Passes {
		outcome := "failed"
		switch {
		case pass.Succeeded:
			outcome = "ok"
		case pass.TimedOut:
			outcome = "timed out"
		}
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-14s %-9s %s", pass.Name, outcome, pass.Elapsed.Round(1e6))))
	}
	return strings.Join(lines, "\n")
}
