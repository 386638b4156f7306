// Package progress renders the pipeline position for the current stage.
package progress

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/career-architect/internal/stage"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
)

type Marker struct {
	Stage  stage.Stage
	Label  string
	Status Status
}

var labels = map[stage.Stage]string{
	stage.Recruiter:   "The Recruiter",
	stage.Interviewer: "The Tech Lead",
	stage.Analyst:     "The Analyst",
}

var (
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true).Underline(true)
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	connectorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// Label is the display name of a stage.
func Label(s stage.Stage) string {
	if label, ok := labels[s]; ok {
		return label
	}
	return s.String()
}

// Markers classifies every stage relative to current by pipeline order.
func Markers(current stage.Stage) []Marker {
	position := current.Index()
	all := stage.All()
	markers := make([]Marker, 0, len(all))
	for i, s := range all {
		status := StatusPending
		switch {
		case i < position:
			status = StatusCompleted
		case i == position:
			status = StatusActive
		}
		markers = append(markers, Marker{Stage: s, Label: Label(s), Status: status})
	}
	return markers
}

// Render draws the markers on a single line.
func Render(current stage.Stage) string {
	markers := Markers(current)
	parts := make([]string, 0, len(markers))
	for i, marker := range markers {
		parts = append(parts, renderMarker(i+1, marker))
	}
	return strings.Join(parts, connectorStyle.Render(" ── "))
}

func renderMarker(n int, m Marker) string {
	switch m.Status {
	case StatusCompleted:
		return completedStyle.Render("✓ " + m.Label)
	case StatusActive:
		return activeStyle.Render("● " + m.Label)
	default:
		return pendingStyle.Render(string(rune('0'+n)) + " " + m.Label)
	}
}
