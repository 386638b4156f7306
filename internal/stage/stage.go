// Package stage holds the top-level pipeline stage and the orchestrator that
// moves it forward when a stage's sub-flow signals completion.
package stage

type Stage string

const (
	Recruiter   Stage = "recruiter"
	Interviewer Stage = "interviewer"
	Analyst     Stage = "analyst"
)

var order = []Stage{Recruiter, Interviewer, Analyst}

// All returns every stage in pipeline order.
func All() []Stage {
	return append([]Stage(nil), order...)
}

// Parse reads a persisted stage value. Only the exact stage names are
// recognized; anything else starts over at the recruiter.
func Parse(value string) Stage {
	s := Stage(value)
	if s.Index() < 0 {
		return Recruiter
	}
	return s
}

// Index is the position of the stage in pipeline order, or -1.
func (s Stage) Index() int {
	for i, candidate := range order {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage. It reports false at the terminal stage.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(order) {
		return s, false
	}
	return order[i+1], true
}

func (s Stage) Terminal() bool {
	return s == Analyst
}

func (s Stage) String() string {
	return string(s)
}
