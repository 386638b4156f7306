package ai

import (
	"context"

	"github.com/spigell/career-architect/internal/conversation"
	"github.com/spigell/career-architect/internal/headhunter"
	"github.com/spigell/career-architect/internal/script"
)

// Document is an uploaded CV or resume.
type Document struct {
	Name    string
	Content []byte
}

type SkillScore struct {
	Name  string `json:"name" mapstructure:"name"`
	Score int    `json:"score" mapstructure:"score"`
}

// Analysis is what the intake stage learns from a document.
type Analysis struct {
	OK         bool
	Greeting   string
	TargetRole string
	Skills     []SkillScore
	Summary    string
}

type ResumeAnalyzer interface {
	Analyze(ctx context.Context, doc Document) (*Analysis, error)
}

type DialogueRequest struct {
	Flow script.Flow
	Key  string
	Log  []conversation.Turn
}

// Reply is the next agent turn plus the state change it carries.
type Reply struct {
	Text            string
	FollowUp        string
	Mode            script.Mode
	OfferCompletion bool
	Complete        bool
	// Scripted is false only when the text came from a language model.
	Scripted bool
	// Unscripted is set when the trigger key had no entry and the filler fired.
	Unscripted bool
}

type DialogueGenerator interface {
	Generate(ctx context.Context, req DialogueRequest) (*Reply, error)
}

// Profile is the candidate picture handed to job matching.
type Profile struct {
	TargetRole string       `json:"target_role"`
	Skills     []SkillScore `json:"skills"`
	Summary    string       `json:"summary,omitempty"`
}

type FitAssessment struct {
	Fit     bool
	Score   float64
	Reason  string
	Message string
	Raw     string
}

type Matcher interface {
	Evaluate(ctx context.Context, profile *Profile, vacancy *headhunter.Vacancy) (*FitAssessment, error)
}

// ReplyFromEntry converts a script entry into a scripted reply.
func ReplyFromEntry(entry script.Entry, found bool) *Reply {
	return &Reply{
		Text:            entry.Reply,
		FollowUp:        entry.FollowUp,
		Mode:            entry.Mode,
		OfferCompletion: entry.OfferCompletion,
		Complete:        entry.Complete,
		Scripted:        true,
		Unscripted:      !found,
	}
}
