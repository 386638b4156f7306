package report

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/ai/scripted"
)

// noCodePenalty is subtracted from readiness when no coding task was solved.
const noCodePenalty = 5

type skillsStep struct {
	toggle
	usedDefaults bool
}

// NewSkills creates the step that fixes the skill profile and readiness.
func NewSkills() Step {
	return &skillsStep{}
}

func (s *skillsStep) Name() string { return "skills" }

func (s *skillsStep) Validate(*Config) error { return nil }

func (s *skillsStep) Apply(_ context.Context, _ Deps, d *Draft) (Result, error) {
	skills := make([]ai.SkillScore, 0, len(d.Input.Profile.Skills))
	for _, skill := range d.Input.Profile.Skills {
		if strings.TrimSpace(skill.Name) == "" {
			continue
		}
		skill.Score = clamp(skill.Score, 0, 100)
		skills = append(skills, skill)
	}

	s.usedDefaults = len(skills) == 0
	if s.usedDefaults {
		skills = append(skills, scripted.DefaultSkills...)
	}

	total := 0
	for _, skill := range skills {
		total += skill.Score
	}
	readiness := int(math.Round(float64(total) / float64(len(skills))))
	if d.Input.CodeSubmissions == 0 {
		readiness -= noCodePenalty
	}
	readiness = clamp(readiness, 0, 100)

	d.Report.Skills = skills
	d.Report.Readiness = readiness
	d.Report.MarketFit = FitFor(readiness)

	note := "profile skills"
	if s.usedDefaults {
		note = "default skills"
	}
	return Result{Produced: len(skills), Note: note}, nil
}

func (s *skillsStep) Status() Status {
	return s.status(s.Name(), map[string]string{"default_skills": strconv.FormatBool(s.usedDefaults)})
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// holds reports whether the profile has the named skill at proficiency.
// Names match case-insensitively, and a skill also matches a required name
// that contains it word-for-word (for example "React" and "React Core").
func holds(skills []ai.SkillScore, required string, proficiency int) bool {
	want := normalizeSkill(required)
	for _, skill := range skills {
		have := normalizeSkill(skill.Name)
		if have == "" || skill.Score < proficiency {
			continue
		}
		if have == want || strings.HasPrefix(want, have+" ") || strings.HasPrefix(have, want+" ") {
			return true
		}
	}
	return false
}

func normalizeSkill(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
