package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/headhunter"
)

type jobsStep struct {
	toggle
	maxJobs     int
	proficiency int
	evaluated   int
	fallbacks   int
}

// NewJobs creates the step that scores every vacancy against the candidate
// and keeps the best matches.
func NewJobs() Step {
	return &jobsStep{}
}

func (s *jobsStep) Name() string { return "jobs" }

func (s *jobsStep) Validate(cfg *Config) error {
	if cfg.MaxJobs <= 0 {
		return fmt.Errorf("max jobs must be positive, got %d", cfg.MaxJobs)
	}
	s.maxJobs = cfg.MaxJobs
	s.proficiency = cfg.Proficiency
	return nil
}

func (s *jobsStep) Apply(ctx context.Context, deps Deps, d *Draft) (Result, error) {
	profile := &ai.Profile{
		TargetRole: d.Report.Role,
		Skills:     d.Report.Skills,
		Summary:    d.Input.Profile.Summary,
	}

	scored := make([]JobMatch, 0, d.Vacancies.Len())
	for _, vacancy := range d.Vacancies.Items {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		match := overlapMatch(profile.Skills, vacancy, s.proficiency)
		if deps.Matcher != nil {
			assessment, err := deps.Matcher.Evaluate(ctx, profile, vacancy)
			if err != nil {
				s.fallbacks++
				deps.Logger.Warn("AI evaluation failed, using skill overlap",
					zap.String("vacancy_id", vacancy.ID),
					zap.Error(err),
				)
			} else {
				s.evaluated++
				match.Match = int(math.Round(assessment.Score * 100))
				match.Reason = assessment.Reason
				if missing := splitSkills(assessment.Message); len(missing) > 0 {
					match.MissingSkills = missing
				}
			}
		}
		scored = append(scored, match)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Match > scored[j].Match })

	d.Scored = scored
	top := scored
	if len(top) > s.maxJobs {
		top = top[:s.maxJobs]
	}
	d.Report.Jobs = append([]JobMatch(nil), top...)

	return Result{Produced: len(d.Report.Jobs)}, nil
}

func (s *jobsStep) Status() Status {
	return s.status(s.Name(), map[string]string{
		"max_jobs":     strconv.Itoa(s.maxJobs),
		"ai_evaluated": strconv.Itoa(s.evaluated),
		"ai_fallbacks": strconv.Itoa(s.fallbacks),
	})
}

// overlapMatch scores a vacancy by the share of its key skills the candidate
// holds at proficiency.
func overlapMatch(skills []ai.SkillScore, vacancy *headhunter.Vacancy, proficiency int) JobMatch {
	match := JobMatch{
		ID:       vacancy.ID,
		Title:    vacancy.Name,
		Company:  vacancy.Employer.Name,
		Location: vacancy.Area.Name,
		URL:      vacancy.AlternateURL,
	}

	required := vacancy.Skills()
	if len(required) == 0 {
		match.Reason = "vacancy lists no key skills"
		return match
	}

	held := 0
	for _, name := range required {
		if holds(skills, name, proficiency) {
			held++
			continue
		}
		match.MissingSkills = append(match.MissingSkills, name)
	}
	match.Match = int(math.Round(100 * float64(held) / float64(len(required))))
	match.Reason = fmt.Sprintf("%d of %d key skills", held, len(required))
	return match
}

func splitSkills(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
