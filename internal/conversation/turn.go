package conversation

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

func (s Speaker) String() string {
	return string(s)
}

// Turn is a single message in a sub-flow's conversation. Turns are values and
// are never modified after creation.
type Turn struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	newID = func() string {
		return uuid.NewString()
	}
	now = time.Now
)

// Log is the ordered, append-only record of turns owned by one sub-flow
// instance. Insertion order is display order and the basis of turn counting.
type Log struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewLog() *Log {
	return &Log{}
}

// Append records a new turn. Empty or whitespace-only text is rejected and the
// log is left untouched.
func (l *Log) Append(speaker Speaker, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, NewError(KindInvalidInput, "empty_text", nil)
	}

	turn := Turn{
		ID:        newID(),
		Speaker:   speaker,
		Text:      text,
		CreatedAt: now().UTC(),
	}

	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()

	return turn, nil
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Turns returns a copy of the recorded turns.
func (l *Log) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *Log) Last() (Turn, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}

// BySpeaker returns the turns produced by the given speaker in log order.
func (l *Log) BySpeaker(speaker Speaker) []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Turn
	for _, turn := range l.turns {
		if turn.Speaker == speaker {
			out = append(out, turn)
		}
	}
	return out
}

// HasConsecutiveUserTurns reports whether two user turns were ever appended
// without an agent turn between them.
func (l *Log) HasConsecutiveUserTurns() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := 1; i < len(l.turns); i++ {
		if l.turns[i].Speaker == SpeakerUser && l.turns[i-1].Speaker == SpeakerUser {
			return true
		}
	}
	return false
}
