package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/headhunter"
)

// Step is a single stage of report assembly.
type Step interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, d *Draft) (Result, error)
}

// MarketData supplies open vacancies for a role.
type MarketData interface {
	Vacancies(ctx context.Context, role string) (*headhunter.Vacancies, error)
}

// Deps aggregates dependencies shared across all steps.
type Deps struct {
	Market  MarketData
	Matcher ai.Matcher
	Logger  *zap.Logger
}

// Config contains settings consumed by the steps.
type Config struct {
	MaxJobs      int
	MaxGaps      int
	MaxStrengths int
	// Proficiency is the minimum skill score that counts as holding a skill.
	Proficiency int
}

func DefaultConfig() *Config {
	return &Config{MaxJobs: 3, MaxGaps: 2, MaxStrengths: 2, Proficiency: 50}
}

// Draft is the report under construction.
type Draft struct {
	Input     Input
	Vacancies *headhunter.Vacancies
	Scored    []JobMatch
	Report    *Report
}

// Result describes the outcome of executing a step.
type Result struct {
	Produced int
	Note     string
}

// Status represents runtime information about a step.
type Status struct {
	Name    string            `json:"name" yaml:"name"`
	Enabled bool              `json:"enabled" yaml:"enabled"`
	Reason  string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// statusProvider is implemented by steps that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DefaultSteps returns the full assembly pipeline in order.
func DefaultSteps() []Step {
	return []Step{
		NewSkills(),
		NewMarket(),
		NewSalary(),
		NewJobs(),
		NewGaps(),
	}
}

// DisableByName marks a step with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Step, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied steps sequentially.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Step, in Input) (*Report, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	draft := &Draft{
		Input:     in,
		Vacancies: &headhunter.Vacancies{},
		Report:    &Report{Role: in.Profile.TargetRole},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !step.IsEnabled() {
			deps.Logger.Info("report step disabled", zap.String("name", step.Name()))
			continue
		}

		info, err := step.Apply(ctx, deps, draft)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Info("report step",
			zap.String("name", step.Name()),
			zap.Int("produced", info.Produced),
			zap.String("note", info.Note),
		)
	}

	draft.Report.Steps = Describe(steps)
	return draft.Report, nil
}

// Describe returns status entries for the provided steps.
func Describe(steps []Step) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle is embedded by steps to share the enable bookkeeping.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details}
}
