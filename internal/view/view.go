// Package view formats turns and reports for the terminal.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/career-architect/internal/conversation"
	"github.com/spigell/career-architect/internal/progress"
	"github.com/spigell/career-architect/internal/report"
	"github.com/spigell/career-architect/internal/stage"
)

const barWidth = 20

var (
	agentNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	userNameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	textStyle      = lipgloss.NewStyle().PaddingLeft(2)
	headingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	detailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Turn renders one conversation turn under the speaker's name.
func Turn(s stage.Stage, turn conversation.Turn) string {
	name := userNameStyle.Render("You")
	if turn.Speaker == conversation.SpeakerAgent {
		name = agentNameStyle.Render(progress.Label(s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, name, textStyle.Render(turn.Text))
}

// Report renders the analyst report as a set of panels.
func Report(r *report.Report) string {
	if r == nil {
		return ""
	}

	sections := []string{
		panelStyle.Render(summary(r)),
		panelStyle.Render(skills(r)),
	}
	if salary := salary(r); salary != "" {
		sections = append(sections, panelStyle.Render(salary))
	}
	if jobs := jobs(r); jobs != "" {
		sections = append(sections, panelStyle.Render(jobs))
	}
	sections = append(sections, panelStyle.Render(insights(r)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func summary(r *report.Report) string {
	lines := []string{
		headingStyle.Render("Career Readiness Report"),
		fmt.Sprintf("Target role: %s", r.Role),
		fmt.Sprintf("Readiness:   %d%% %s", r.Readiness, bar(r.Readiness)),
		fmt.Sprintf("Market fit:  %s", r.MarketFit),
	}
	if !r.GeneratedAt.IsZero() {
		lines = append(lines, detailStyle.Render("Generated "+r.GeneratedAt.Format("2006-01-02 15:04 MST")))
	}
	return strings.Join(lines, "\n")
}

func skills(r *report.Report) string {
	width := 0
	for _, skill := range r.Skills {
		width = max(width, len(skill.Name))
	}

	lines := []string{headingStyle.Render("Skills")}
	for _, skill := range r.Skills {
		lines = append(lines, fmt.Sprintf("%-*s %s %3d", width, skill.Name, bar(skill.Score), skill.Score))
	}
	return strings.Join(lines, "\n")
}

func salary(r *report.Report) string {
	if len(r.SalaryBands) == 0 {
		return ""
	}

	lines := []string{headingStyle.Render("Salary bands")}
	for _, band := range r.SalaryBands {
		lines = append(lines, fmt.Sprintf("%-10s %d-%d %s (%d vacancies)", band.Level, band.Min, band.Max, band.Currency, band.Samples))
	}
	if est := r.EstimatedRange; est != nil {
		lines = append(lines, fmt.Sprintf("Your range: %d-%d %s", est.Min, est.Max, est.Currency))
	}
	return strings.Join(lines, "\n")
}

func jobs(r *report.Report) string {
	if len(r.Jobs) == 0 {
		return ""
	}

	lines := []string{headingStyle.Render("Top job matches")}
	for _, job := range r.Jobs {
		line := fmt.Sprintf("%3d%%  %s at %s", job.Match, job.Title, job.Company)
		if job.Location != "" {
			line += " · " + job.Location
		}
		lines = append(lines, line)
		if len(job.MissingSkills) > 0 {
			lines = append(lines, detailStyle.Render("      missing: "+strings.Join(job.MissingSkills, ", ")))
		}
	}
	return strings.Join(lines, "\n")
}

func insights(r *report.Report) string {
	lines := []string{headingStyle.Render("Strengths")}
	for _, s := range r.Strengths {
		lines = append(lines, fmt.Sprintf("+ %s %s", s.Title, detailStyle.Render("("+s.Detail+")")))
	}
	lines = append(lines, headingStyle.Render("Gaps to close"))
	for _, g := range r.Gaps {
		lines = append(lines, fmt.Sprintf("- %s %s", g.Title, detailStyle.Render("("+g.Detail+")")))
	}
	return strings.Join(lines, "\n")
}

func bar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
