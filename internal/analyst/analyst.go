// Package analyst implements the final stage: it waits out the report
// preparation dwell and asks the report assembler for the candidate report.
package analyst

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/logger"
	"github.com/spigell/career-architect/internal/report"
	"github.com/spigell/career-architect/internal/scheduler"
)

type State string

const (
	StatePreparing State = "preparing"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

func (s State) String() string {
	return string(s)
}

const DefaultDelay = 5000 * time.Millisecond

// Assembler turns the handed over stage results into a report.
type Assembler interface {
	Assemble(ctx context.Context, in report.Input) (*report.Report, error)
}

type Config struct {
	Assembler Assembler
	Input     report.Input
	Clock     scheduler.Clock
	Delay     time.Duration
	Logger    *zap.Logger

	// OnReady receives the assembled report or the assembly error, exactly once.
	OnReady func(*report.Report, error)
}

type Flow struct {
	assembler Assembler
	input     report.Input
	logger    *zap.Logger
	onReady   func(*report.Report, error)
	group     *scheduler.Group

	mu      sync.Mutex
	state   State
	report  *report.Report
	err     error
	closed  bool
	changed chan struct{}
}

// New enters the preparing state and schedules the single assembler call.
func New(cfg Config) *Flow {
	log := logger.WithFields(cfg.Logger, logger.FlowFields("analyst", "report")...)

	f := &Flow{
		assembler: cfg.Assembler,
		input:     cfg.Input,
		logger:    log,
		onReady:   cfg.OnReady,
		group:     scheduler.NewGroup("report", cfg.Clock, log),
		state:     StatePreparing,
		changed:   make(chan struct{}),
	}

	scheduler.Submit(f.group, cfg.Delay, f.assemble, f.finish)
	f.logger.Info("preparing report",
		zap.String("role", cfg.Input.Profile.TargetRole),
		zap.Int("answers", len(cfg.Input.Answers)),
		zap.Duration("delay", cfg.Delay))
	return f
}

func (f *Flow) assemble(ctx context.Context) (*report.Report, error) {
	if f.assembler == nil {
		return nil, fmt.Errorf("report assembler is not configured")
	}
	return f.assembler.Assemble(ctx, f.input)
}

func (f *Flow) finish(r *report.Report, err error) {
	f.mu.Lock()
	if f.closed || f.state != StatePreparing {
		f.mu.Unlock()
		return
	}
	if err == nil && r == nil {
		err = fmt.Errorf("report assembler returned no report")
	}
	if err != nil {
		f.state = StateFailed
		f.err = fmt.Errorf("assemble report: %w", err)
	} else {
		f.state = StateReady
		f.report = r
	}
	result, resultErr := f.report, f.err
	f.signalLocked()
	f.mu.Unlock()

	if resultErr != nil {
		f.logger.Error("report assembly failed", zap.Error(resultErr))
	} else {
		f.logger.Info("report ready",
			zap.Int("readiness", result.Readiness),
			zap.String("market_fit", result.MarketFit),
			zap.Int("jobs", len(result.Jobs)))
	}
	if f.onReady != nil {
		f.onReady(result, resultErr)
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Report returns the assembled report once the flow left the preparing state.
func (f *Flow) Report() (*report.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.report, f.err
}

func (f *Flow) Input() report.Input {
	return f.input
}

// Wait blocks until the report is ready or failed, the flow is closed, or
// ctx is done.
func (f *Flow) Wait(ctx context.Context) error {
	for {
		f.mu.Lock()
		busy := !f.closed && f.state == StatePreparing
		ch := f.changed
		f.mu.Unlock()

		if !busy {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Close cancels the assembly if it has not run yet.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.signalLocked()
	f.mu.Unlock()

	f.group.Close()
	f.logger.Debug("analyst flow closed")
}

func (f *Flow) signalLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}
