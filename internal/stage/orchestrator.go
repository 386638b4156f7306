package stage

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/assessment"
	"github.com/spigell/career-architect/internal/intake"
)

// Flow is the sub-flow instance that owns the current stage.
type Flow interface {
	Wait(ctx context.Context) error
	Close()
}

// Handoff is the only data carried from one stage to the next.
type Handoff struct {
	Facts      *intake.Facts
	Transcript *assessment.Transcript
}

func (h Handoff) merge(next Handoff) Handoff {
	if next.Facts != nil {
		h.Facts = next.Facts
	}
	if next.Transcript != nil {
		h.Transcript = next.Transcript
	}
	return h
}

// Factory creates the sub-flow for a stage. The flow reports completion
// through signal.
type Factory func(s Stage, handoff Handoff, signal Signal) (Flow, error)

// Observer is notified after every stage change.
type Observer func(from, to Stage)

// Signal lets one sub-flow instance report its completion. Signals from a
// flow that no longer owns the current stage are ignored.
type Signal struct {
	o          *Orchestrator
	generation uint64
	stage      Stage
}

// Complete advances past the signalling flow's stage, carrying handoff
// forward. It reports whether the stage changed.
func (s Signal) Complete(handoff Handoff) bool {
	if s.o == nil {
		return false
	}
	return s.o.advance(s.generation, handoff)
}

// Stage is the stage the signal was issued for.
func (s Signal) Stage() Stage {
	return s.stage
}

type Orchestrator struct {
	factory Factory
	logger  *zap.Logger

	mu         sync.Mutex
	current    Stage
	active     Flow
	generation uint64
	handoff    Handoff
	observers  []Observer
	closed     bool
}

// New starts the pipeline at initial, which is normalised with Parse.
func New(initial Stage, factory Factory, logger *zap.Logger) (*Orchestrator, error) {
	if factory == nil {
		return nil, fmt.Errorf("stage factory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		factory:    factory,
		logger:     logger,
		current:    Parse(string(initial)),
		generation: 1,
	}

	flow, err := factory(o.current, Handoff{}, Signal{o: o, generation: o.generation, stage: o.current})
	if err != nil {
		return nil, fmt.Errorf("start %s stage: %w", o.current, err)
	}
	o.attach(o.generation, flow)

	o.logger.Info("pipeline started", zap.String("stage", o.current.String()))
	return o, nil
}

func (o *Orchestrator) Current() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Active returns the sub-flow of the current stage. It is nil after Close or
// when the stage's flow could not be created.
func (o *Orchestrator) Active() Flow {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Handoff returns what earlier stages have handed over so far.
func (o *Orchestrator) Handoff() Handoff {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handoff
}

func (o *Orchestrator) Subscribe(observer Observer) {
	if observer == nil {
		return
	}
	o.mu.Lock()
	o.observers = append(o.observers, observer)
	o.mu.Unlock()
}

// Advance moves to the next stage. It is a no-op at the analyst stage and
// after Close.
func (o *Orchestrator) Advance() bool {
	o.mu.Lock()
	generation := o.generation
	o.mu.Unlock()
	return o.advance(generation, Handoff{})
}

func (o *Orchestrator) advance(generation uint64, handoff Handoff) bool {
	o.mu.Lock()
	if o.closed || generation != o.generation {
		o.mu.Unlock()
		o.logger.Debug("ignoring stale completion signal", zap.Uint64("generation", generation))
		return false
	}
	from := o.current
	to, ok := from.Next()
	if !ok {
		o.mu.Unlock()
		o.logger.Debug("already at the terminal stage", zap.String("stage", from.String()))
		return false
	}

	o.generation++
	o.current = to
	o.handoff = o.handoff.merge(handoff)
	previous := o.active
	o.active = nil
	next := o.generation
	carried := o.handoff
	observers := append([]Observer(nil), o.observers...)
	o.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	o.logger.Info("stage advanced", zap.String("from", from.String()), zap.String("to", to.String()))

	flow, err := o.factory(to, carried, Signal{o: o, generation: next, stage: to})
	if err != nil {
		o.logger.Error("stage flow not started", zap.String("stage", to.String()), zap.Error(err))
	} else {
		o.attach(next, flow)
	}

	for _, observer := range observers {
		observer(from, to)
	}
	return true
}

// attach installs flow unless its stage was left or the pipeline closed
// while the flow was being created.
func (o *Orchestrator) attach(generation uint64, flow Flow) {
	if flow == nil {
		return
	}
	o.mu.Lock()
	if o.closed || generation != o.generation {
		o.mu.Unlock()
		flow.Close()
		return
	}
	o.active = flow
	o.mu.Unlock()
}

// Close tears down the active sub-flow. Later signals are ignored.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.generation++
	active := o.active
	o.active = nil
	o.mu.Unlock()

	if active != nil {
		active.Close()
	}
	o.logger.Debug("pipeline closed")
}
