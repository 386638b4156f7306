package report

import (
	"context"
	"time"
)

var now = time.Now

// Assembler builds reports with a fixed step list. Steps keep per-run state,
// so an Assembler serves one report at a time.
type Assembler struct {
	cfg   *Config
	deps  Deps
	steps []Step
}

func NewAssembler(cfg *Config, deps Deps, steps ...Step) *Assembler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	return &Assembler{cfg: cfg, deps: deps, steps: steps}
}

func (a *Assembler) Assemble(ctx context.Context, in Input) (*Report, error) {
	report, err := Run(ctx, a.cfg, a.deps, a.steps, in)
	if err != nil {
		return nil, err
	}
	report.GeneratedAt = now().UTC()
	return report, nil
}

// Steps returns the configured pipeline for status reporting.
func (a *Assembler) Steps() []Step {
	return a.steps
}
