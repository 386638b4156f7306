package assessment

import (
	"sync"
	"time"
)

// CodeSubmission is a snapshot of the workspace taken when the candidate
// submitted a solution.
type CodeSubmission struct {
	TurnID      string    `json:"turn_id" yaml:"turn-id"`
	Code        string    `json:"code" yaml:"code"`
	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted-at"`
}

// Workspace holds the code being edited during a coding question. It is a
// peer artifact and never enters the Turn Log.
type Workspace struct {
	mu          sync.RWMutex
	code        string
	submissions []CodeSubmission
}

func NewWorkspace(starter string) *Workspace {
	return &Workspace{code: starter}
}

func (w *Workspace) SetCode(code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.code = code
}

func (w *Workspace) Code() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.code
}

func (w *Workspace) Submissions() []CodeSubmission {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]CodeSubmission, len(w.submissions))
	copy(out, w.submissions)
	return out
}

func (w *Workspace) record(turnID string, at time.Time) CodeSubmission {
	w.mu.Lock()
	defer w.mu.Unlock()
	sub := CodeSubmission{TurnID: turnID, Code: w.code, SubmittedAt: at}
	w.submissions = append(w.submissions, sub)
	return sub
}
