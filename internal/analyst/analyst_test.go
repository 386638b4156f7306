package analyst

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/career-architect/internal/report"
	"github.com/spigell/career-architect/internal/scheduler"
)

type countingAssembler struct {
	calls  int
	input  report.Input
	report *report.Report
	err    error
}

func (a *countingAssembler) Assemble(_ context.Context, in report.Input) (*report.Report, error) {
	a.calls++
	a.input = in
	return a.report, a.err
}

type result struct {
	report *report.Report
	err    error
}

func newFlow(t *testing.T, assembler Assembler, log *zap.Logger) (*Flow, *scheduler.ManualClock, *[]result) {
	t.Helper()

	clock := scheduler.NewManualClock()
	var results []result
	flow := New(Config{
		Assembler: assembler,
		Input:     report.Input{CodeSubmissions: 1},
		Clock:     clock,
		Delay:     DefaultDelay,
		Logger:    log,
		OnReady:   func(r *report.Report, err error) { results = append(results, result{report: r, err: err}) },
	})
	t.Cleanup(flow.Close)
	return flow, clock, &results
}

func TestReportAssembledOnceAfterDelay(t *testing.T) {
	assembler := &countingAssembler{report: &report.Report{Readiness: 60, MarketFit: report.FitMidJunior}}
	flow, clock, results := newFlow(t, assembler, zap.NewNop())

	if flow.State() != StatePreparing {
		t.Fatalf("expected preparing state, got %q", flow.State())
	}

	clock.Advance(DefaultDelay - time.Millisecond)
	if assembler.calls != 0 || flow.State() != StatePreparing {
		t.Fatalf("expected assembler not to run before the delay")
	}

	clock.Advance(time.Millisecond)
	if assembler.calls != 1 || assembler.input.CodeSubmissions != 1 {
		t.Fatalf("expected one assembler call with the handed over input, got %d", assembler.calls)
	}
	if flow.State() != StateReady {
		t.Fatalf("expected ready state, got %q", flow.State())
	}
	r, err := flow.Report()
	if err != nil || r.Readiness != 60 {
		t.Fatalf("unexpected report: %+v, %v", r, err)
	}

	clock.Advance(time.Minute)
	if assembler.calls != 1 || len(*results) != 1 {
		t.Fatalf("expected a single assembly and notification, got %d/%d", assembler.calls, len(*results))
	}
}

func TestAssemblyFailure(t *testing.T) {
	core, observed := observer.New(zapcore.ErrorLevel)
	assembler := &countingAssembler{err: errors.New("market down")}
	flow, clock, results := newFlow(t, assembler, zap.New(core))

	clock.Advance(DefaultDelay)

	if flow.State() != StateFailed {
		t.Fatalf("expected failed state, got %q", flow.State())
	}
	if _, err := flow.Report(); err == nil || !errors.Is(err, assembler.err) {
		t.Fatalf("expected wrapped assembler error, got %v", err)
	}
	if len(*results) != 1 || (*results)[0].err == nil {
		t.Fatalf("expected failure to be reported once: %+v", *results)
	}
	if observed.FilterMessage("report assembly failed").Len() != 1 {
		t.Fatalf("expected failure to be logged")
	}
}

func TestMissingAssemblerFails(t *testing.T) {
	flow, clock, _ := newFlow(t, nil, zap.NewNop())

	clock.Advance(DefaultDelay)
	if flow.State() != StateFailed {
		t.Fatalf("expected failed state without assembler, got %q", flow.State())
	}
}

func TestCloseCancelsAssembly(t *testing.T) {
	assembler := &countingAssembler{report: &report.Report{}}
	flow, clock, results := newFlow(t, assembler, zap.NewNop())

	flow.Close()
	clock.Advance(DefaultDelay)

	if assembler.calls != 0 || len(*results) != 0 {
		t.Fatalf("expected no assembly after close, got %d calls", assembler.calls)
	}
	if err := flow.Wait(context.Background()); err != nil {
		t.Fatalf("expected wait to return on a closed flow, got %v", err)
	}
}

func TestWaitForReport(t *testing.T) {
	assembler := &countingAssembler{report: &report.Report{Readiness: 42}}
	flow := New(Config{Assembler: assembler, Delay: 5 * time.Millisecond})
	defer flow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := flow.Wait(ctx); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	if flow.State() != StateReady {
		t.Fatalf("expected ready state, got %q", flow.State())
	}
}
