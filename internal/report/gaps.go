package report

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// strengthScore is the minimum score reported as a strength.
const strengthScore = 80

type gapsStep struct {
	toggle
	maxGaps      int
	maxStrengths int
	proficiency  int
}

// NewGaps creates the step that derives skill gaps and strengths.
func NewGaps() Step {
	return &gapsStep{}
}

func (s *gapsStep) Name() string { return "gaps" }

func (s *gapsStep) Validate(cfg *Config) error {
	s.maxGaps = cfg.MaxGaps
	s.maxStrengths = cfg.MaxStrengths
	s.proficiency = cfg.Proficiency
	return nil
}

func (s *gapsStep) Apply(_ context.Context, _ Deps, d *Draft) (Result, error) {
	type gap struct {
		name  string
		count int
		order int
	}

	counts := make(map[string]*gap)
	for _, job := range d.Scored {
		for _, name := range job.MissingSkills {
			key := normalizeSkill(name)
			if g, ok := counts[key]; ok {
				g.count++
				continue
			}
			counts[key] = &gap{name: name, count: 1, order: len(counts)}
		}
	}

	ranked := make([]*gap, 0, len(counts))
	for _, g := range counts {
		ranked = append(ranked, g)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].order < ranked[j].order
	})

	gaps := make([]Insight, 0, s.maxGaps)
	for _, g := range ranked {
		if len(gaps) == s.maxGaps {
			break
		}
		gaps = append(gaps, Insight{
			Title:  g.name,
			Detail: fmt.Sprintf("Required by %d of %d open vacancies", g.count, len(d.Scored)),
		})
	}

	// Without market data the weakest profile skills are the gaps.
	if len(ranked) == 0 {
		weak := append(d.Report.Skills[:0:0], d.Report.Skills...)
		sort.SliceStable(weak, func(i, j int) bool { return weak[i].Score < weak[j].Score })
		for _, skill := range weak {
			if len(gaps) == s.maxGaps || skill.Score >= s.proficiency {
				break
			}
			gaps = append(gaps, Insight{Title: skill.Name, Detail: fmt.Sprintf("Scored %d/100", skill.Score)})
		}
	}

	strong := append(d.Report.Skills[:0:0], d.Report.Skills...)
	sort.SliceStable(strong, func(i, j int) bool { return strong[i].Score > strong[j].Score })
	strengths := make([]Insight, 0, s.maxStrengths)
	for _, skill := range strong {
		if len(strengths) == s.maxStrengths || skill.Score < strengthScore {
			break
		}
		strengths = append(strengths, Insight{Title: skill.Name, Detail: fmt.Sprintf("Scored %d/100", skill.Score)})
	}

	d.Report.Gaps = gaps
	d.Report.Strengths = strengths
	return Result{Produced: len(gaps) + len(strengths)}, nil
}

func (s *gapsStep) Status() Status {
	return s.status(s.Name(), map[string]string{
		"max_gaps":      strconv.Itoa(s.maxGaps),
		"max_strengths": strconv.Itoa(s.maxStrengths),
	})
}
