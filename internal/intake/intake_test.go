package intake

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/ai/scripted"
	"github.com/spigell/career-architect/internal/conversation"
	"github.com/spigell/career-architect/internal/scheduler"
	"github.com/spigell/career-architect/internal/script"
)

type failingDialogue struct{}

func (failingDialogue) Generate(context.Context, ai.DialogueRequest) (*ai.Reply, error) {
	return nil, errors.New("model unavailable")
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, ai.Document) (*ai.Analysis, error) {
	return nil, errors.New("upstream timeout")
}

func newFlow(t *testing.T, mutate func(*Config)) (*Flow, *scheduler.ManualClock, *[]Facts) {
	t.Helper()

	table := script.Default()
	clock := scheduler.NewManualClock()
	var completions []Facts

	cfg := Config{
		Script:     table,
		Analyzer:   scripted.NewAnalyzer(table),
		Dialogue:   scripted.NewDialogue(table),
		Clock:      clock,
		Delays:     DefaultDelays(),
		Logger:     zap.NewNop(),
		OnComplete: func(f Facts) { completions = append(completions, f) },
	}
	if mutate != nil {
		mutate(&cfg)
	}

	flow := New(cfg)
	t.Cleanup(flow.Close)
	return flow, clock, &completions
}

func TestSkipOpensConversation(t *testing.T) {
	flow, _, _ := newFlow(t, nil)

	if got := flow.Skip(); got != conversation.OutcomeAccepted {
		t.Fatalf("expected skip to be accepted, got %q", got)
	}
	if flow.State() != StateConversing {
		t.Fatalf("expected conversing state, got %q", flow.State())
	}
	if flow.Log().Len() != 1 {
		t.Fatalf("expected a single greeting turn, got %d", flow.Log().Len())
	}
	last, _ := flow.Log().Last()
	if last.Speaker != conversation.SpeakerAgent || !strings.HasPrefix(last.Text, "No problem. Let's start from scratch.") {
		t.Fatalf("unexpected greeting: %+v", last)
	}

	if got := flow.Skip(); got != conversation.OutcomeUnavailable {
		t.Fatalf("expected second skip to be unavailable, got %q", got)
	}
	if got := flow.SubmitDocument(ai.Document{Name: "cv.pdf", Content: []byte("cv")}); got != conversation.OutcomeUnavailable {
		t.Fatalf("expected upload after skip to be unavailable, got %q", got)
	}
}

func TestDocumentAnalysis(t *testing.T) {
	flow, clock, _ := newFlow(t, nil)

	if got := flow.Submit("hello"); got != conversation.OutcomeUnavailable {
		t.Fatalf("expected chat before greeting to be unavailable, got %q", got)
	}

	if got := flow.SubmitDocument(ai.Document{Name: "cv.pdf", Content: []byte("five years of react")}); got != conversation.OutcomeAccepted {
		t.Fatalf("expected upload to be accepted, got %q", got)
	}
	if flow.State() != StateAnalyzing {
		t.Fatalf("expected analyzing state, got %q", flow.State())
	}

	clock.Advance(2499 * time.Millisecond)
	if flow.Log().Len() != 0 {
		t.Fatalf("expected no greeting before the analysis delay")
	}

	clock.Advance(time.Millisecond)
	if flow.State() != StateConversing {
		t.Fatalf("expected conversing state, got %q", flow.State())
	}
	last, ok := flow.Log().Last()
	if !ok || !strings.Contains(last.Text, "targeting a Junior Frontend Developer role. Is that correct?") {
		t.Fatalf("unexpected greeting: %+v", last)
	}

	facts := flow.Facts()
	if !facts.DocumentSubmitted || !facts.AnalysisOK || facts.DocumentName != "cv.pdf" || len(facts.Skills) == 0 {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestAnalysisFailureStartsFromScratch(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	flow, clock, _ := newFlow(t, func(cfg *Config) {
		cfg.Analyzer = failingAnalyzer{}
		cfg.Logger = zap.New(core)
	})

	flow.SubmitDocument(ai.Document{Name: "cv.pdf", Content: []byte("cv")})
	clock.Advance(DefaultDelays().Analyzing)

	last, _ := flow.Log().Last()
	if !strings.HasPrefix(last.Text, "I couldn't read your CV") {
		t.Fatalf("unexpected greeting: %q", last.Text)
	}
	if flow.Facts().AnalysisOK {
		t.Fatalf("expected failed analysis to be recorded")
	}
	if observed.FilterMessage("resume analysis failed, starting from scratch").Len() != 1 {
		t.Fatalf("expected the failure to be logged")
	}
}

func TestAffirmationOffersInterview(t *testing.T) {
	flow, clock, completions := newFlow(t, nil)
	flow.Skip()

	if got := flow.Submit("yes, that's correct"); got != conversation.OutcomeAccepted {
		t.Fatalf("expected submission to be accepted, got %q", got)
	}
	if flow.Log().Len() != 2 {
		t.Fatalf("expected user turn to be appended immediately, got %d", flow.Log().Len())
	}
	if !flow.Pending() {
		t.Fatalf("expected reply to be pending")
	}

	clock.Advance(1500 * time.Millisecond)
	if flow.Log().Len() != 3 {
		t.Fatalf("expected acknowledgement after the thinking delay, got %d", flow.Log().Len())
	}
	if flow.AffordanceAvailable() {
		t.Fatalf("expected affordance to wait for the follow-up")
	}

	clock.Advance(1000 * time.Millisecond)
	if flow.Log().Len() != 4 {
		t.Fatalf("expected follow-up turn, got %d", flow.Log().Len())
	}
	last, _ := flow.Log().Last()
	if !strings.HasSuffix(last.Text, "Click below when you're ready to proceed.") {
		t.Fatalf("unexpected follow-up: %q", last.Text)
	}
	if !flow.AffordanceAvailable() || flow.Pending() {
		t.Fatalf("expected affordance to be available and nothing pending")
	}

	if got := flow.AcceptAffordance(); got != conversation.OutcomeAccepted {
		t.Fatalf("expected affordance to be accepted, got %q", got)
	}
	if len(*completions) != 1 || !(*completions)[0].Confirmed {
		t.Fatalf("expected one confirmed completion, got %+v", *completions)
	}

	if got := flow.AcceptAffordance(); got != conversation.OutcomeClosed {
		t.Fatalf("expected second acceptance to be closed, got %q", got)
	}
	if got := flow.Submit("more"); got != conversation.OutcomeClosed {
		t.Fatalf("expected input after completion to be closed, got %q", got)
	}
	if len(*completions) != 1 {
		t.Fatalf("expected completion exactly once, got %d", len(*completions))
	}
}

func TestOtherInputAsksForClarification(t *testing.T) {
	flow, clock, _ := newFlow(t, nil)
	flow.Skip()

	flow.Submit("Backend engineer")
	clock.Advance(10 * time.Second)

	if flow.Log().Len() != 3 {
		t.Fatalf("expected a single clarification, got %d turns", flow.Log().Len())
	}
	last, _ := flow.Log().Last()
	if last.Text != "Understood. Could you clarify your target role?" {
		t.Fatalf("unexpected clarification: %q", last.Text)
	}
	if flow.AffordanceAvailable() {
		t.Fatalf("expected no affordance after clarification")
	}
	if got := flow.AcceptAffordance(); got != conversation.OutcomeUnavailable {
		t.Fatalf("expected affordance to be unavailable, got %q", got)
	}
	if role := flow.Facts().Role(); role != "Backend engineer" {
		t.Fatalf("expected stated role to be kept, got %q", role)
	}
}

func TestInputWhileReplyPending(t *testing.T) {
	flow, clock, _ := newFlow(t, nil)
	flow.Skip()

	flow.Submit("yes")
	if got := flow.Submit("hello?"); got != conversation.OutcomePending {
		t.Fatalf("expected pending outcome, got %q", got)
	}
	if flow.Log().HasConsecutiveUserTurns() {
		t.Fatalf("expected no consecutive user turns")
	}

	clock.Advance(1500 * time.Millisecond)
	if got := flow.Submit("still there?"); got != conversation.OutcomePending {
		t.Fatalf("expected follow-up to keep the reply pending, got %q", got)
	}

	clock.Advance(1000 * time.Millisecond)
	if flow.Log().Len() != 4 {
		t.Fatalf("expected 4 turns, got %d", flow.Log().Len())
	}
}

func TestBlankInputRejected(t *testing.T) {
	flow, clock, _ := newFlow(t, nil)
	flow.Skip()

	for _, text := range []string{"", "   ", "\n\t"} {
		if got := flow.Submit(text); got != conversation.OutcomeRejected {
			t.Fatalf("%q: expected rejection, got %q", text, got)
		}
	}
	clock.Advance(10 * time.Second)
	if flow.Log().Len() != 1 {
		t.Fatalf("expected blank input to leave the log untouched, got %d", flow.Log().Len())
	}
}

func TestGenerationFailureFallsBackToScript(t *testing.T) {
	flow, clock, _ := newFlow(t, func(cfg *Config) { cfg.Dialogue = failingDialogue{} })
	flow.Skip()

	flow.Submit("yes")
	clock.Advance(5 * time.Second)

	if flow.Log().Len() != 4 || !flow.AffordanceAvailable() {
		t.Fatalf("expected scripted fallback to complete the exchange, got %d turns", flow.Log().Len())
	}
}

func TestCloseCancelsPendingReply(t *testing.T) {
	flow, clock, _ := newFlow(t, nil)
	flow.Skip()
	flow.Submit("yes")

	flow.Close()
	clock.Advance(10 * time.Second)

	if flow.Log().Len() != 2 {
		t.Fatalf("expected no turns after teardown, got %d", flow.Log().Len())
	}
	if got := flow.Submit("hello"); got != conversation.OutcomeClosed {
		t.Fatalf("expected closed outcome, got %q", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := flow.Wait(ctx); err != nil {
		t.Fatalf("expected wait on closed flow to return, got %v", err)
	}
}

func TestWaitReturnsWhenReplyLands(t *testing.T) {
	table := script.Default()
	flow := New(Config{
		Script:   table,
		Analyzer: scripted.NewAnalyzer(table),
		Dialogue: scripted.NewDialogue(table),
		Delays:   Delays{Analyzing: 5 * time.Millisecond, Thinking: 5 * time.Millisecond, FollowUp: 5 * time.Millisecond},
	})
	defer flow.Close()

	flow.SubmitDocument(ai.Document{Name: "cv.pdf", Content: []byte("cv")})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := flow.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if flow.State() != StateConversing {
		t.Fatalf("expected conversing state, got %q", flow.State())
	}

	flow.Submit("correct")
	if err := flow.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !flow.AffordanceAvailable() {
		t.Fatalf("expected affordance after wait")
	}
}

func TestSlowObserverSeesTurnsInLogOrder(t *testing.T) {
	table := script.Default()

	var mu sync.Mutex
	var seen []conversation.Turn
	flow := New(Config{
		Script:   table,
		Analyzer: scripted.NewAnalyzer(table),
		Dialogue: scripted.NewDialogue(table),
		Delays:   Delays{Analyzing: time.Millisecond, Thinking: time.Millisecond, FollowUp: time.Millisecond},
		OnTurn: func(turn conversation.Turn) {
			if turn.Speaker == conversation.SpeakerAgent {
				time.Sleep(20 * time.Millisecond)
			}
			mu.Lock()
			seen = append(seen, turn)
			mu.Unlock()
		},
	})
	defer flow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	flow.Skip()
	for _, text := range []string{"Backend Developer", "Data Engineer", "correct"} {
		if err := flow.Wait(ctx); err != nil {
			t.Fatalf("wait: %v", err)
		}
		if got := flow.Submit(text); got != conversation.OutcomeAccepted {
			t.Fatalf("%q: expected accepted, got %q", text, got)
		}
	}
	if err := flow.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	turns := flow.Log().Turns()
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(turns) {
		t.Fatalf("expected %d observed turns after wait, got %d", len(turns), len(seen))
	}
	for i := range turns {
		if seen[i].ID != turns[i].ID {
			t.Fatalf("observed turn %d is %s %q, log has %s %q", i, seen[i].Speaker, seen[i].Text, turns[i].Speaker, turns[i].Text)
		}
	}
}
