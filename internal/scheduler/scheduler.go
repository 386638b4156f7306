// Package scheduler runs the fixed-delay callbacks that drive sub-flows and
// cancels them as a group when the owning sub-flow is torn down.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type pendingTimer struct {
	timer Timer
}

// Group owns every timer scheduled on behalf of one sub-flow instance.
type Group struct {
	name   string
	clock  Clock
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	nextID     uint64
	pending    map[uint64]*pendingTimer
	suppressed int
}

func NewGroup(name string, clock Clock, logger *zap.Logger) *Group {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Group{
		name:    name,
		clock:   clock,
		logger:  logger.With(zap.String("timer_group", name)),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]*pendingTimer),
	}
}

func (g *Group) Name() string {
	return g.name
}

// Context is cancelled when the group is closed.
func (g *Group) Context() context.Context {
	return g.ctx
}

// After schedules f to run once d has elapsed. Scheduling on a closed group
// returns a task that never fires.
func (g *Group) After(d time.Duration, f func()) *Task {
	if d < 0 {
		d = 0
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.logger.Debug("ignoring schedule on closed group", zap.Duration("delay", d))
		return &Task{}
	}
	g.nextID++
	id := g.nextID
	entry := &pendingTimer{}
	g.pending[id] = entry
	g.mu.Unlock()

	timer := g.clock.AfterFunc(d, func() {
		if !g.take(id) {
			return
		}
		f()
	})

	g.mu.Lock()
	if current, ok := g.pending[id]; ok && current == entry {
		entry.timer = timer
	}
	g.mu.Unlock()

	g.logger.Debug("scheduled", zap.Uint64("task", id), zap.Duration("delay", d))

	return &Task{group: g, id: id}
}

// take claims a timer for execution. It reports false when the group has
// been closed or the task was cancelled in the meantime.
func (g *Group) take(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		g.suppressed++
		g.logger.Debug("suppressed stale timer", zap.Uint64("task", id))
		return false
	}
	if _, ok := g.pending[id]; !ok {
		return false
	}
	delete(g.pending, id)
	g.logger.Debug("fired", zap.Uint64("task", id))
	return true
}

func (g *Group) cancelTask(id uint64) bool {
	g.mu.Lock()
	entry, ok := g.pending[id]
	if ok {
		delete(g.pending, id)
	}
	g.mu.Unlock()

	if !ok {
		return false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	return true
}

// Close cancels every pending timer and the group context. It is safe to
// call more than once.
func (g *Group) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	timers := make([]Timer, 0, len(g.pending))
	for id, entry := range g.pending {
		if entry.timer != nil {
			timers = append(timers, entry.timer)
		}
		delete(g.pending, id)
	}
	g.mu.Unlock()

	for _, timer := range timers {
		timer.Stop()
	}
	g.cancel()

	g.logger.Debug("timer group closed", zap.Int("cancelled", len(timers)))
}

func (g *Group) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Pending returns the number of scheduled callbacks that have not fired yet.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Suppressed returns how many callbacks or results were dropped because
// the group was already closed.
func (g *Group) Suppressed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suppressed
}

func (g *Group) suppress(reason string) {
	g.mu.Lock()
	g.suppressed++
	g.mu.Unlock()
	g.logger.Debug("suppressed stale result", zap.String("reason", reason))
}

// Task is a handle to a scheduled callback.
type Task struct {
	group *Group
	id    uint64
}

// Cancel stops the task. It reports whether the task was still pending.
func (t *Task) Cancel() bool {
	if t == nil || t.group == nil {
		return false
	}
	return t.group.cancelTask(t.id)
}

// Submit models a collaborator call as an asynchronous task: after delay the
// call runs with the group context and done receives its result. Results that
// arrive after the group was closed are dropped.
func Submit[T any](g *Group, delay time.Duration, call func(ctx context.Context) (T, error), done func(T, error)) *Task {
	return g.After(delay, func() {
		result, err := call(g.ctx)
		if g.Closed() {
			g.suppress("group closed while call was running")
			return
		}
		done(result, err)
	})
}
