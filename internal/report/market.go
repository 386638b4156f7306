package report

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/career-architect/internal/headhunter"
)

type marketStep struct {
	toggle
	found  int
	failed bool
}

// NewMarket creates the step that loads open vacancies for the target role.
func NewMarket() Step {
	return &marketStep{}
}

func (s *marketStep) Name() string { return "market" }

func (s *marketStep) Validate(*Config) error { return nil }

// Apply keeps the report going with an empty market when the lookup fails.
func (s *marketStep) Apply(ctx context.Context, deps Deps, d *Draft) (Result, error) {
	if deps.Market == nil {
		return Result{}, fmt.Errorf("market data source is required")
	}

	role := strings.TrimSpace(d.Report.Role)
	if role == "" {
		return Result{Note: "no target role"}, nil
	}

	vacancies, err := deps.Market.Vacancies(ctx, role)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		s.failed = true
		deps.Logger.Warn("market data unavailable, continuing without vacancies",
			zap.String("role", role),
			zap.Error(err),
		)
		return Result{Note: "market unavailable"}, nil
	}
	if vacancies == nil {
		vacancies = &headhunter.Vacancies{}
	}

	d.Vacancies = vacancies
	s.found = vacancies.Len()
	return Result{Produced: s.found}, nil
}

func (s *marketStep) Status() Status {
	return s.status(s.Name(), map[string]string{
		"vacancies": strconv.Itoa(s.found),
		"degraded":  strconv.FormatBool(s.failed),
	})
}

//go:embed market.yaml
var staticMarketData []byte

type staticVacancy struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Company    string   `yaml:"company"`
	Location   string   `yaml:"location"`
	URL        string   `yaml:"url"`
	Experience string   `yaml:"experience"`
	SalaryFrom int      `yaml:"salary-from"`
	SalaryTo   int      `yaml:"salary-to"`
	Currency   string   `yaml:"currency"`
	Skills     []string `yaml:"skills"`
}

// StaticMarket serves a fixed vacancy snapshot regardless of role.
type StaticMarket struct {
	vacancies []staticVacancy
}

func NewStaticMarket() (*StaticMarket, error) {
	return ParseStaticMarket(staticMarketData)
}

// ParseStaticMarket decodes a YAML vacancy snapshot.
func ParseStaticMarket(data []byte) (*StaticMarket, error) {
	var doc struct {
		Vacancies []staticVacancy `yaml:"vacancies"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode market snapshot: %w", err)
	}
	for i, v := range doc.Vacancies {
		if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.Title) == "" {
			return nil, fmt.Errorf("market snapshot entry %d needs an id and a title", i)
		}
	}
	return &StaticMarket{vacancies: doc.Vacancies}, nil
}

func (m *StaticMarket) Vacancies(ctx context.Context, _ string) (*headhunter.Vacancies, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]*headhunter.Vacancy, 0, len(m.vacancies))
	for _, v := range m.vacancies {
		vacancy := &headhunter.Vacancy{
			ID:           v.ID,
			Name:         v.Title,
			Area:         headhunter.Area{Name: v.Location},
			Experience:   headhunter.Named{ID: v.Experience},
			Employer:     headhunter.Employer{Name: v.Company},
			AlternateURL: v.URL,
		}
		if v.SalaryFrom > 0 || v.SalaryTo > 0 {
			vacancy.Salary = &headhunter.Salary{From: v.SalaryFrom, To: v.SalaryTo, Currency: v.Currency}
		}
		for _, skill := range v.Skills {
			vacancy.KeySkills = append(vacancy.KeySkills, headhunter.KeySkill{Name: skill})
		}
		items = append(items, vacancy)
	}
	return &headhunter.Vacancies{Items: items}, nil
}
