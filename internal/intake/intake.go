// Package intake implements the recruiter stage: an optional CV analysis
// followed by a short conversation that ends with an offer to start the
// technical interview.
package intake

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/conversation"
	"github.com/spigell/career-architect/internal/logger"
	"github.com/spigell/career-architect/internal/scheduler"
	"github.com/spigell/career-architect/internal/script"
)

type State string

const (
	StateAwaitingInput State = "awaiting-input"
	StateAnalyzing     State = "analyzing"
	StateConversing    State = "conversing"
)

func (s State) String() string {
	return string(s)
}

type Delays struct {
	Analyzing time.Duration
	Thinking  time.Duration
	FollowUp  time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Analyzing: 2500 * time.Millisecond,
		Thinking:  1500 * time.Millisecond,
		FollowUp:  1000 * time.Millisecond,
	}
}

// Facts is what the recruiter stage hands over to later stages.
type Facts struct {
	DocumentSubmitted bool
	DocumentName      string
	AnalysisOK        bool
	TargetRole        string
	StatedRole        string
	Skills            []ai.SkillScore
	Summary           string
	Confirmed         bool
}

// Role returns the role the candidate typed in, falling back to the one
// inferred from the CV.
func (f Facts) Role() string {
	if role := strings.TrimSpace(f.StatedRole); role != "" {
		return role
	}
	return f.TargetRole
}

type Config struct {
	Script   *script.Table
	Analyzer ai.ResumeAnalyzer
	Dialogue ai.DialogueGenerator
	Clock    scheduler.Clock
	Delays   Delays
	Logger   *zap.Logger

	// OnTurn observes every appended turn.
	OnTurn func(conversation.Turn)
	// OnComplete receives the completion signal, exactly once.
	OnComplete func(Facts)
}

type Flow struct {
	table    *script.Table
	analyzer ai.ResumeAnalyzer
	dialogue ai.DialogueGenerator
	delays   Delays
	logger   *zap.Logger
	onTurn   func(conversation.Turn)
	complete func(Facts)

	group *scheduler.Group
	log   *conversation.Log

	mu         sync.Mutex
	state      State
	pending    bool
	affordance bool
	completed  bool
	closed     bool
	facts      Facts
	outbox     []conversation.Turn
	flushing   bool
	changed    chan struct{}
}

func New(cfg Config) *Flow {
	if cfg.Script == nil {
		cfg.Script = script.Default()
	}
	log := logger.WithFields(cfg.Logger, logger.FlowFields("recruiter", string(script.FlowIntake))...)

	f := &Flow{
		table:    cfg.Script,
		analyzer: cfg.Analyzer,
		dialogue: cfg.Dialogue,
		delays:   cfg.Delays,
		logger:   log,
		onTurn:   cfg.OnTurn,
		complete: cfg.OnComplete,
		group:    scheduler.NewGroup(string(script.FlowIntake), cfg.Clock, log),
		log:      conversation.NewLog(),
		state:    StateAwaitingInput,
		changed:  make(chan struct{}),
	}
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Log() *conversation.Log {
	return f.log
}

// Pending reports whether a scripted reply is still in flight.
func (f *Flow) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// AffordanceAvailable reports whether the offer to start the interview has
// been shown and not yet used.
func (f *Flow) AffordanceAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.affordance && !f.completed
}

func (f *Flow) Completed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

func (f *Flow) Facts() Facts {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyFacts()
}

// SubmitDocument starts the CV analysis.
func (f *Flow) SubmitDocument(doc ai.Document) conversation.Outcome {
	f.mu.Lock()
	if outcome, ok := f.gate(); !ok {
		f.mu.Unlock()
		return outcome
	}
	if f.state != StateAwaitingInput {
		f.mu.Unlock()
		return conversation.OutcomeUnavailable
	}
	f.state = StateAnalyzing
	f.facts.DocumentSubmitted = true
	f.facts.DocumentName = doc.Name
	f.signalLocked()
	f.mu.Unlock()

	f.logger.Info("document submitted", zap.String("document", doc.Name), zap.Int("bytes", len(doc.Content)))

	scheduler.Submit(f.group, f.delays.Analyzing, func(ctx context.Context) (*ai.Analysis, error) {
		if f.analyzer == nil {
			return nil, conversation.NewError(conversation.KindGenerationFailure, "analyzer_not_configured", nil)
		}
		return f.analyzer.Analyze(ctx, doc)
	}, f.finishAnalysis)

	return conversation.OutcomeAccepted
}

func (f *Flow) finishAnalysis(analysis *ai.Analysis, err error) {
	greeting := f.table.Intake.AnalysisFailed
	if strings.TrimSpace(greeting) == "" {
		greeting = f.table.Intake.Skip
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}

	switch {
	case err != nil:
		f.logger.Warn("resume analysis failed, starting from scratch",
			zap.Error(conversation.NewError(conversation.KindGenerationFailure, "resume_analysis", err)))
	case analysis == nil || !analysis.OK:
		f.logger.Info("resume analysis returned no profile, starting from scratch")
	default:
		f.facts.AnalysisOK = true
		f.facts.TargetRole = analysis.TargetRole
		f.facts.Skills = append([]ai.SkillScore(nil), analysis.Skills...)
		f.facts.Summary = analysis.Summary
		greeting = analysis.Greeting
		if strings.TrimSpace(greeting) == "" {
			greeting = f.table.Greeting(analysis.TargetRole)
		}
	}

	f.state = StateConversing
	f.appendLocked(conversation.SpeakerAgent, greeting)
	f.signalLocked()
	f.mu.Unlock()

	f.logger.Info("analysis finished", zap.String("state", string(StateConversing)), zap.Bool("analysis_ok", err == nil && analysis != nil && analysis.OK))
	f.flush()
}

// Skip bypasses the analysis and opens the conversation directly.
func (f *Flow) Skip() conversation.Outcome {
	f.mu.Lock()
	if outcome, ok := f.gate(); !ok {
		f.mu.Unlock()
		return outcome
	}
	if f.state != StateAwaitingInput {
		f.mu.Unlock()
		return conversation.OutcomeUnavailable
	}
	f.state = StateConversing
	f.appendLocked(conversation.SpeakerAgent, f.table.Intake.Skip)
	f.signalLocked()
	f.mu.Unlock()

	f.logger.Info("document upload skipped")
	f.flush()
	return conversation.OutcomeAccepted
}

// Submit records a user message and schedules the scripted reply.
func (f *Flow) Submit(text string) conversation.Outcome {
	f.mu.Lock()
	if outcome, ok := f.gate(); !ok {
		f.mu.Unlock()
		return outcome
	}
	if f.state != StateConversing {
		f.mu.Unlock()
		return conversation.OutcomeUnavailable
	}
	if strings.TrimSpace(text) == "" {
		f.mu.Unlock()
		return conversation.OutcomeRejected
	}
	if f.pending {
		f.mu.Unlock()
		f.logger.Debug("input ignored while reply is pending")
		return conversation.OutcomePending
	}

	if _, appended := f.appendLocked(conversation.SpeakerUser, text); !appended {
		f.mu.Unlock()
		return conversation.OutcomeRejected
	}
	key := f.table.Classify(text)
	if key == script.KeyOther {
		f.facts.StatedRole = strings.TrimSpace(text)
	}
	f.pending = true
	history := f.log.Turns()
	f.signalLocked()
	f.mu.Unlock()

	f.flush()
	f.logger.Debug("user turn accepted", zap.String("trigger", key))

	scheduler.Submit(f.group, f.delays.Thinking, func(ctx context.Context) (*ai.Reply, error) {
		if f.dialogue == nil {
			return nil, conversation.NewError(conversation.KindGenerationFailure, "dialogue_not_configured", nil)
		}
		return f.dialogue.Generate(ctx, ai.DialogueRequest{Flow: script.FlowIntake, Key: key, Log: history})
	}, func(reply *ai.Reply, err error) {
		f.finishReply(key, reply, err)
	})

	return conversation.OutcomeAccepted
}

func (f *Flow) finishReply(key string, reply *ai.Reply, err error) {
	if err != nil || reply == nil || strings.TrimSpace(reply.Text) == "" {
		if err != nil {
			f.logger.Warn("dialogue generation failed, using scripted reply",
				zap.Error(conversation.NewError(conversation.KindGenerationFailure, "intake_reply", err)))
		}
		reply = ai.ReplyFromEntry(f.table.Lookup(script.FlowIntake, key))
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.appendLocked(conversation.SpeakerAgent, reply.Text)
	if key == script.KeyAffirm {
		f.facts.Confirmed = true
	}
	followUp := strings.TrimSpace(reply.FollowUp) != ""
	if !followUp {
		f.pending = false
		if reply.OfferCompletion {
			f.affordance = true
		}
	}
	f.signalLocked()
	f.mu.Unlock()

	f.flush()
	if !followUp {
		return
	}

	offer := reply.OfferCompletion
	text := reply.FollowUp
	f.group.After(f.delays.FollowUp, func() {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		f.appendLocked(conversation.SpeakerAgent, text)
		f.pending = false
		if offer {
			f.affordance = true
		}
		f.signalLocked()
		f.mu.Unlock()

		f.flush()
		if offer {
			f.logger.Info("interview offer available")
		}
	})
}

// AcceptAffordance acts on the offer to start the interview and emits the
// completion signal.
func (f *Flow) AcceptAffordance() conversation.Outcome {
	f.mu.Lock()
	if outcome, ok := f.gate(); !ok {
		f.mu.Unlock()
		return outcome
	}
	if !f.affordance {
		f.mu.Unlock()
		return conversation.OutcomeUnavailable
	}
	f.completed = true
	facts := f.copyFacts()
	f.signalLocked()
	f.mu.Unlock()

	f.logger.Info("intake completed", zap.String("target_role", facts.Role()), zap.Bool("confirmed", facts.Confirmed))
	if f.complete != nil {
		f.complete(facts)
	}
	return conversation.OutcomeAccepted
}

// Wait blocks until no analysis or reply is in flight and every appended
// turn has reached OnTurn, the flow is closed, or ctx is done.
func (f *Flow) Wait(ctx context.Context) error {
	for {
		f.mu.Lock()
		busy := f.flushing || len(f.outbox) > 0 ||
			(!f.closed && (f.state == StateAnalyzing || f.pending))
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

// Close tears the flow down and cancels every scheduled callback.
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
	f.logger.Debug("intake flow closed", zap.Int("turns", f.log.Len()))
}

func (f *Flow) gate() (conversation.Outcome, bool) {
	if f.closed || f.completed {
		return conversation.OutcomeClosed, false
	}
	return "", true
}

func (f *Flow) appendLocked(speaker conversation.Speaker, text string) (conversation.Turn, bool) {
	turn, err := f.log.Append(speaker, text)
	if err != nil {
		f.logger.Warn("turn not appended", zap.Error(err))
		return conversation.Turn{}, false
	}
	f.outbox = append(f.outbox, turn)
	return turn, true
}

// flush hands queued turns to OnTurn in log order. A call made while
// another flush is running leaves its turns to that one.
func (f *Flow) flush() {
	f.mu.Lock()
	if f.flushing {
		f.mu.Unlock()
		return
	}
	f.flushing = true
	for len(f.outbox) > 0 {
		turn := f.outbox[0]
		f.outbox = f.outbox[1:]
		f.mu.Unlock()
		if f.onTurn != nil {
			f.onTurn(turn)
		}
		f.mu.Lock()
	}
	f.flushing = false
	f.signalLocked()
	f.mu.Unlock()
}

func (f *Flow) signalLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}

func (f *Flow) copyFacts() Facts {
	facts := f.facts
	facts.Skills = append([]ai.SkillScore(nil), f.facts.Skills...)
	return facts
}
