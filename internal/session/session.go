// Package session wires the stage orchestrator to the sub-flow of each stage
// and carries the intake facts and interview transcript to the report.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/ai/scripted"
	"github.com/spigell/career-architect/internal/analyst"
	"github.com/spigell/career-architect/internal/assessment"
	"github.com/spigell/career-architect/internal/conversation"
	"github.com/spigell/career-architect/internal/intake"
	"github.com/spigell/career-architect/internal/report"
	"github.com/spigell/career-architect/internal/scheduler"
	"github.com/spigell/career-architect/internal/script"
	"github.com/spigell/career-architect/internal/stage"
)

type Config struct {
	Script    *script.Table
	Analyzer  ai.ResumeAnalyzer
	Dialogue  ai.DialogueGenerator
	Assembler analyst.Assembler
	Clock     scheduler.Clock
	Logger    *zap.Logger

	// Delays are the stage timings; nil means DefaultDelays. Zero values are
	// kept as given.
	Delays *Delays

	// OnTurn observes every turn of every stage.
	OnTurn func(stage.Stage, conversation.Turn)
	// OnReport receives the analyst result.
	OnReport func(*report.Report, error)
}

// Delays are the timings of every stage.
type Delays struct {
	Intake     intake.Delays
	Assessment assessment.Delays
	Report     time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Intake:     intake.DefaultDelays(),
		Assessment: assessment.DefaultDelays(),
		Report:     analyst.DefaultDelay,
	}
}

// Defaults fills unset collaborators with the scripted ones and unset delays
// with the default timings.
func (c Config) Defaults() Config {
	if c.Script == nil {
		c.Script = script.Default()
	}
	if c.Analyzer == nil {
		c.Analyzer = scripted.NewAnalyzer(c.Script)
	}
	if c.Dialogue == nil {
		c.Dialogue = scripted.NewDialogue(c.Script)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Delays == nil {
		delays := DefaultDelays()
		c.Delays = &delays
	}
	return c
}

type Session struct {
	cfg      Config
	logger   *zap.Logger
	pipeline *stage.Orchestrator
}

// New starts a session at initial.
func New(initial stage.Stage, cfg Config) (*Session, error) {
	cfg = cfg.Defaults()
	if cfg.Assembler == nil {
		return nil, fmt.Errorf("report assembler is required")
	}

	s := &Session{cfg: cfg, logger: cfg.Logger}
	pipeline, err := stage.New(initial, s.start, cfg.Logger)
	if err != nil {
		return nil, err
	}
	s.pipeline = pipeline
	return s, nil
}

func (s *Session) Stage() stage.Stage {
	return s.pipeline.Current()
}

func (s *Session) Subscribe(observer stage.Observer) {
	s.pipeline.Subscribe(observer)
}

func (s *Session) Script() *script.Table {
	return s.cfg.Script
}

// Intake returns the recruiter flow while it is the active stage.
func (s *Session) Intake() (*intake.Flow, bool) {
	flow, ok := s.pipeline.Active().(*intake.Flow)
	return flow, ok
}

// Assessment returns the interviewer flow while it is the active stage.
func (s *Session) Assessment() (*assessment.Flow, bool) {
	flow, ok := s.pipeline.Active().(*assessment.Flow)
	return flow, ok
}

// Analyst returns the analyst flow once the pipeline reached it.
func (s *Session) Analyst() (*analyst.Flow, bool) {
	flow, ok := s.pipeline.Active().(*analyst.Flow)
	return flow, ok
}

// Wait blocks until the active flow has nothing in flight.
func (s *Session) Wait(ctx context.Context) error {
	flow := s.pipeline.Active()
	if flow == nil {
		return nil
	}
	return flow.Wait(ctx)
}

func (s *Session) Close() {
	s.pipeline.Close()
}

func (s *Session) start(st stage.Stage, handoff stage.Handoff, signal stage.Signal) (stage.Flow, error) {
	onTurn := func(turn conversation.Turn) {
		if s.cfg.OnTurn != nil {
			s.cfg.OnTurn(st, turn)
		}
	}

	switch st {
	case stage.Recruiter:
		return intake.New(intake.Config{
			Script:   s.cfg.Script,
			Analyzer: s.cfg.Analyzer,
			Dialogue: s.cfg.Dialogue,
			Clock:    s.cfg.Clock,
			Delays:   s.cfg.Delays.Intake,
			Logger:   s.logger,
			OnTurn:   onTurn,
			OnComplete: func(facts intake.Facts) {
				signal.Complete(stage.Handoff{Facts: &facts})
			},
		}), nil
	case stage.Interviewer:
		return assessment.New(assessment.Config{
			Script:   s.cfg.Script,
			Dialogue: s.cfg.Dialogue,
			Clock:    s.cfg.Clock,
			Delays:   s.cfg.Delays.Assessment,
			Logger:   s.logger,
			OnTurn:   onTurn,
			OnComplete: func(transcript assessment.Transcript) {
				signal.Complete(stage.Handoff{Transcript: &transcript})
			},
		}), nil
	case stage.Analyst:
		return analyst.New(analyst.Config{
			Assembler: s.cfg.Assembler,
			Input:     ReportInput(handoff, s.cfg.Script),
			Clock:     s.cfg.Clock,
			Delay:     s.cfg.Delays.Report,
			Logger:    s.logger,
			OnReady:   s.cfg.OnReport,
		}), nil
	default:
		return nil, fmt.Errorf("unknown stage %q", st)
	}
}

// ReportInput builds the report input from what earlier stages handed over.
// A pipeline resumed past the recruiter falls back to the default role.
func ReportInput(handoff stage.Handoff, table *script.Table) report.Input {
	var in report.Input
	if facts := handoff.Facts; facts != nil {
		in.AnalysisOK = facts.AnalysisOK
		in.Profile = ai.Profile{
			TargetRole: facts.Role(),
			Skills:     append([]ai.SkillScore(nil), facts.Skills...),
			Summary:    facts.Summary,
		}
	}
	if strings.TrimSpace(in.Profile.TargetRole) == "" && table != nil {
		in.Profile.TargetRole = table.Intake.DefaultRole
	}
	if transcript := handoff.Transcript; transcript != nil {
		in.Answers = append([]assessment.Answer(nil), transcript.Answers...)
		in.CodeSubmissions = len(transcript.Code)
	}
	return in
}
