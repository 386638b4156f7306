package conversation

import "fmt"

type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindUnscriptedTrigger ErrorKind = "UNSCRIPTED_TRIGGER"
	KindStaleTimer        ErrorKind = "STALE_TIMER"
	KindGenerationFailure ErrorKind = "GENERATION_FAILURE"
	// KindEvaluationFailure is reserved for code evaluation by a dialogue
	// backend. Code submissions are accepted unconditionally for now.
	KindEvaluationFailure ErrorKind = "EVALUATION_FAILURE"
)

type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("conversation: %s (%s)", e.Kind, e.Reason)
	}
	return fmt.Sprintf("conversation: %s (%s): %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Outcome tells the input surface what happened to a user action.
type Outcome string

const (
	// OutcomeAccepted means the action changed the sub-flow.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected means the input was invalid and nothing was recorded.
	OutcomeRejected Outcome = "rejected"
	// OutcomePending means a scripted reply is still in flight; the input was
	// not recorded and no trigger was evaluated.
	OutcomePending Outcome = "pending"
	// OutcomeUnavailable means the action is not permitted in the current state.
	OutcomeUnavailable Outcome = "unavailable"
	// OutcomeClosed means the sub-flow finished or was torn down.
	OutcomeClosed Outcome = "closed"
)

func (o Outcome) Accepted() bool {
	return o == OutcomeAccepted
}
