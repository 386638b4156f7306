// Package assessment implements the interviewer stage: a scripted technical
// interview that alternates conceptual and coding questions and signals
// completion once the closing reply has been shown.
package assessment

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

type Delays struct {
	Thinking   time.Duration
	Completion time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Thinking:   1500 * time.Millisecond,
		Completion: 3000 * time.Millisecond,
	}
}

// Answer pairs a candidate turn with the question it responded to.
type Answer struct {
	Question string      `json:"question" yaml:"question"`
	Answer   string      `json:"answer" yaml:"answer"`
	Mode     script.Mode `json:"mode" yaml:"mode"`
}

// Transcript is what the interviewer stage hands over to the analyst.
type Transcript struct {
	Turns   []conversation.Turn `json:"turns" yaml:"turns"`
	Answers []Answer            `json:"answers" yaml:"answers"`
	Code    []CodeSubmission    `json:"code,omitempty" yaml:"code,omitempty"`
}

type Config struct {
	Script   *script.Table
	Dialogue ai.DialogueGenerator
	Clock    scheduler.Clock
	Delays   Delays
	Logger   *zap.Logger

	OnTurn     func(conversation.Turn)
	OnComplete func(Transcript)
}

type Flow struct {
	table    *script.Table
	dialogue ai.DialogueGenerator
	delays   Delays
	logger   *zap.Logger
	onTurn   func(conversation.Turn)
	complete func(Transcript)

	group     *scheduler.Group
	log       *conversation.Log
	workspace *Workspace

	mu        sync.Mutex
	cursor    int
	mode      script.Mode
	answers   []Answer
	pending   bool
	finished  bool
	completed bool
	closed    bool
	outbox    []conversation.Turn
	flushing  bool
	changed   chan struct{}
}

// New starts the interview by appending the welcome turn.
func New(cfg Config) *Flow {
	if cfg.Script == nil {
		cfg.Script = script.Default()
	}
	log := logger.WithFields(cfg.Logger, logger.FlowFields("interviewer", string(script.FlowAssessment))...)

	f := &Flow{
		table:     cfg.Script,
		dialogue:  cfg.Dialogue,
		delays:    cfg.Delays,
		logger:    log,
		onTurn:    cfg.OnTurn,
		complete:  cfg.OnComplete,
		group:     scheduler.NewGroup(string(script.FlowAssessment), cfg.Clock, log),
		log:       conversation.NewLog(),
		workspace: NewWorkspace(cfg.Script.Assessment.StarterCode),
		mode:      script.ModeGeneral,
		changed:   make(chan struct{}),
	}

	if turn, err := f.log.Append(conversation.SpeakerAgent, f.table.Assessment.Welcome); err == nil {
		f.outbox = append(f.outbox, turn)
	}
	f.flush()
	f.logger.Info("interview started")
	return f
}

func (f *Flow) Log() *conversation.Log {
	return f.log
}

// Cursor is the number of accepted candidate turns.
func (f *Flow) Cursor() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// TriggerKey is the script key the next accepted submission will fire.
func (f *Flow) TriggerKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.triggerKeyLocked()
}

func (f *Flow) Mode() script.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Workspace returns the code workspace while a coding question is active.
func (f *Flow) Workspace() (*Workspace, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode != script.ModeCoding || f.closed {
		return nil, false
	}
	return f.workspace, true
}

func (f *Flow) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Finished reports whether the closing reply has been shown.
func (f *Flow) Finished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished
}

// Completed reports whether the completion signal has been emitted.
func (f *Flow) Completed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

func (f *Flow) Transcript() Transcript {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transcriptLocked()
}

// Submit records a candidate answer and schedules the scripted reply.
func (f *Flow) Submit(text string) conversation.Outcome {
	return f.submit(text, false)
}

// SubmitCode snapshots the workspace and records the canned submission turn.
// It is only available during a coding question.
func (f *Flow) SubmitCode() conversation.Outcome {
	return f.submit(f.table.Assessment.CodeSubmission, true)
}

func (f *Flow) submit(text string, code bool) conversation.Outcome {
	f.mu.Lock()
	if f.closed || f.finished {
		f.mu.Unlock()
		return conversation.OutcomeClosed
	}
	if code && f.mode != script.ModeCoding {
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

	key := f.triggerKeyLocked()
	if n := f.log.Len(); script.AssessmentKey(n) != key {
		f.logger.Warn("turn count and cursor disagree", zap.Int("turns", n), zap.String("trigger", key))
	}

	var question string
	if last, ok := f.log.Last(); ok && last.Speaker == conversation.SpeakerAgent {
		question = last.Text
	}

	turn, err := f.log.Append(conversation.SpeakerUser, text)
	if err != nil {
		f.mu.Unlock()
		f.logger.Warn("turn not appended", zap.Error(err))
		return conversation.OutcomeRejected
	}
	if code {
		f.workspace.record(turn.ID, turn.CreatedAt)
	}
	f.answers = append(f.answers, Answer{Question: question, Answer: text, Mode: f.mode})
	f.outbox = append(f.outbox, turn)
	f.cursor++
	f.pending = true
	history := f.log.Turns()
	f.signalLocked()
	f.mu.Unlock()

	f.flush()
	f.logger.Debug("candidate turn accepted", zap.String("trigger", key), zap.Bool("code", code))

	scheduler.Submit(f.group, f.delays.Thinking, func(ctx context.Context) (*ai.Reply, error) {
		if f.dialogue == nil {
			return nil, conversation.NewError(conversation.KindGenerationFailure, "dialogue_not_configured", nil)
		}
		return f.dialogue.Generate(ctx, ai.DialogueRequest{Flow: script.FlowAssessment, Key: key, Log: history})
	}, func(reply *ai.Reply, err error) {
		f.finishReply(key, reply, err)
	})

	return conversation.OutcomeAccepted
}

func (f *Flow) finishReply(key string, reply *ai.Reply, err error) {
	if err != nil || reply == nil || strings.TrimSpace(reply.Text) == "" {
		if err != nil {
			f.logger.Warn("dialogue generation failed, using scripted reply",
				zap.Error(conversation.NewError(conversation.KindGenerationFailure, "assessment_reply", err)))
		}
		reply = ai.ReplyFromEntry(f.table.Lookup(script.FlowAssessment, key))
	}
	if reply.Unscripted {
		f.logger.Debug("filler reply",
			zap.Error(conversation.NewError(conversation.KindUnscriptedTrigger, "trigger_"+key, nil)))
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if turn, err := f.log.Append(conversation.SpeakerAgent, reply.Text); err == nil {
		f.outbox = append(f.outbox, turn)
	}
	if reply.Mode != "" {
		f.mode = reply.Mode
	}
	f.pending = false
	if reply.Complete {
		f.finished = true
	}
	mode := f.mode
	f.signalLocked()
	f.mu.Unlock()

	f.flush()
	f.logger.Debug("reply appended", zap.String("trigger", key), zap.String("mode", string(mode)))

	if reply.Complete {
		f.logger.Info("interview finished, preparing handoff")
		f.group.After(f.delays.Completion, f.finish)
	}
}

func (f *Flow) finish() {
	f.mu.Lock()
	if f.closed || f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	transcript := f.transcriptLocked()
	f.signalLocked()
	f.mu.Unlock()

	f.logger.Info("interview completed",
		zap.Int("answers", len(transcript.Answers)),
		zap.Int("code_submissions", len(transcript.Code)))
	if f.complete != nil {
		f.complete(transcript)
	}
}

// Wait blocks until no reply or completion is in flight and every appended
// turn has reached OnTurn, the flow is closed, or ctx is done.
func (f *Flow) Wait(ctx context.Context) error {
	for {
		f.mu.Lock()
		busy := f.flushing || len(f.outbox) > 0 ||
			(!f.closed && (f.pending || (f.finished && !f.completed)))
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
	f.logger.Debug("assessment flow closed", zap.Int("turns", f.log.Len()))
}

func (f *Flow) triggerKeyLocked() string {
	return script.AssessmentKey(1 + 2*f.cursor)
}

func (f *Flow) transcriptLocked() Transcript {
	return Transcript{
		Turns:   f.log.Turns(),
		Answers: append([]Answer(nil), f.answers...),
		Code:    f.workspace.Submissions(),
	}
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
