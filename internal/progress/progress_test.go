package progress

import (
	"strings"
	"testing"

	"github.com/spigell/career-architect/internal/stage"
)

func TestMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		current stage.Stage
		want    []Status
	}{
		{current: stage.Recruiter, want: []Status{StatusActive, StatusPending, StatusPending}},
		{current: stage.Interviewer, want: []Status{StatusCompleted, StatusActive, StatusPending}},
		{current: stage.Analyst, want: []Status{StatusCompleted, StatusCompleted, StatusActive}},
	}

	for _, tt := range tests {
		markers := Markers(tt.current)
		if len(markers) != len(tt.want) {
			t.Fatalf("%s: expected %d markers, got %d", tt.current, len(tt.want), len(markers))
		}
		for i, marker := range markers {
			if marker.Status != tt.want[i] {
				t.Fatalf("%s: marker %d expected %q, got %q", tt.current, i, tt.want[i], marker.Status)
			}
		}
	}
}

func TestMarkerLabels(t *testing.T) {
	t.Parallel()

	markers := Markers(stage.Recruiter)
	want := []string{"The Recruiter", "The Tech Lead", "The Analyst"}
	for i, marker := range markers {
		if marker.Label != want[i] {
			t.Fatalf("expected label %q, got %q", want[i], marker.Label)
		}
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	out := Render(stage.Interviewer)
	for _, fragment := range []string{"✓ The Recruiter", "● The Tech Lead", "3 The Analyst"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in %q", fragment, out)
		}
	}
}
