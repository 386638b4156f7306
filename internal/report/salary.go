package report

import (
	"context"
	"math"
	"strconv"

	"github.com/spigell/career-architect/internal/headhunter"
)

const salaryRounding = 1000

type salaryStep struct {
	toggle
	bands int
}

// NewSalary creates the step that groups market salaries by level and
// estimates the candidate's range.
func NewSalary() Step {
	return &salaryStep{}
}

func (s *salaryStep) Name() string { return "salary" }

func (s *salaryStep) Validate(*Config) error { return nil }

func (s *salaryStep) Apply(_ context.Context, _ Deps, d *Draft) (Result, error) {
	bands := d.Vacancies.SalaryBands()
	d.Report.SalaryBands = bands
	d.Report.EstimatedRange = EstimateRange(bands, d.Report.MarketFit)
	s.bands = len(bands)

	if d.Report.EstimatedRange == nil {
		return Result{Produced: len(bands), Note: "no salary data"}, nil
	}
	return Result{Produced: len(bands)}, nil
}

func (s *salaryStep) Status() Status {
	return s.status(s.Name(), map[string]string{"bands": strconv.Itoa(s.bands)})
}

// EstimateRange picks the salary range for a market fit. A Mid-Junior
// candidate spans from the middle of the junior band to the bottom of the
// mid-level band.
func EstimateRange(bands []headhunter.SalaryBand, fit string) *headhunter.SalaryBand {
	if len(bands) == 0 {
		return nil
	}

	byLevel := make(map[string]headhunter.SalaryBand, len(bands))
	for _, band := range bands {
		byLevel[band.Level] = band
	}

	pick := func(level string) *headhunter.SalaryBand {
		if band, ok := byLevel[level]; ok {
			band.Level = fit
			return &band
		}
		return nil
	}

	switch fit {
	case FitJunior:
		if band := pick(headhunter.LevelJunior); band != nil {
			return band
		}
	case FitMidJunior:
		junior, hasJunior := byLevel[headhunter.LevelJunior]
		mid, hasMid := byLevel[headhunter.LevelMid]
		if hasJunior && hasMid {
			return &headhunter.SalaryBand{
				Level:    fit,
				Min:      roundTo((junior.Min+junior.Max)/2, salaryRounding),
				Max:      roundTo(mid.Min, salaryRounding),
				Currency: junior.Currency,
				Samples:  junior.Samples + mid.Samples,
			}
		}
		if band := pick(headhunter.LevelJunior); band != nil {
			return band
		}
	case FitMid:
		if band := pick(headhunter.LevelMid); band != nil {
			return band
		}
	case FitSenior:
		if band := pick(headhunter.LevelSenior); band != nil {
			return band
		}
	}

	// Fall back to the lowest published band.
	band := bands[0]
	band.Level = fit
	return &band
}

func roundTo(v, step int) int {
	return int(math.Round(float64(v)/float64(step))) * step
}
