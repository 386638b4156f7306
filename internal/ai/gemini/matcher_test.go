package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/headhunter"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.calls++
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testProfile() *ai.Profile {
	return &ai.Profile{
		TargetRole: "Junior Frontend Developer",
		Skills:     []ai.SkillScore{{Name: "React", Score: 85}, {Name: "Testing", Score: 30}},
	}
}

func TestMatcherEvaluate(t *testing.T) {
	stub := &stubGenerator{response: `{"fit": true, "score": 0.85, "reason": "Matches skills", "message": "Unit Testing"}`}
	matcher := NewMatcher(stub, 0.5, 0, zap.NewNop())

	vacancy := &headhunter.Vacancy{ID: "v1", Name: "Junior Frontend Developer", KeySkills: []headhunter.KeySkill{{Name: "React"}}}

	assessment, err := matcher.Evaluate(context.Background(), testProfile(), vacancy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !assessment.Fit {
		t.Fatalf("expected fit to be true")
	}

	if assessment.Score != 0.85 {
		t.Fatalf("expected score 0.85, got %v", assessment.Score)
	}

	if assessment.Message != "Unit Testing" {
		t.Fatalf("unexpected message: %s", assessment.Message)
	}

	if assessment.Raw == "" || assessment.Reason == "" {
		t.Fatalf("expected raw response and reason to be populated")
	}

	if !strings.Contains(stub.lastPrompt, `"target_role": "Junior Frontend Developer"`) {
		t.Fatalf("expected profile in prompt, got: %s", stub.lastPrompt)
	}

	if !strings.Contains(stub.lastPrompt, `"key_skills"`) {
		t.Fatalf("expected vacancy key skills in prompt")
	}

	if stub.lastSystem != matcherPrompt {
		t.Fatalf("expected matcher system prompt")
	}
}

func TestMatcherEvaluateAppliesThreshold(t *testing.T) {
	stub := &stubGenerator{response: `{"fit": true, "score": 0.3, "reason": "Too junior", "message": ""}`}
	matcher := NewMatcher(stub, 0.5, 0, zap.NewNop())

	assessment, err := matcher.Evaluate(context.Background(), testProfile(), &headhunter.Vacancy{ID: "v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assessment.Fit {
		t.Fatalf("expected fit to be false due to threshold")
	}
}

func TestMatcherEvaluateErrors(t *testing.T) {
	matcher := NewMatcher(&stubGenerator{err: errors.New("boom")}, 0, 0, nil)

	if _, err := matcher.Evaluate(context.Background(), nil, &headhunter.Vacancy{}); err == nil {
		t.Fatalf("expected missing profile to fail")
	}
	if _, err := matcher.Evaluate(context.Background(), testProfile(), nil); err == nil {
		t.Fatalf("expected missing vacancy to fail")
	}
	if _, err := matcher.Evaluate(context.Background(), testProfile(), &headhunter.Vacancy{}); err == nil {
		t.Fatalf("expected generator error to propagate")
	}
}

func TestParseFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		fit     bool
		score   float64
		wantErr bool
	}{
		{
			name:  "code block",
			raw:   "```json\n{\"fit\": true, \"score\": \"0.8\", \"reason\": \"Looks good\", \"message\": \"Hi\"}\n```",
			fit:   true,
			score: 0.8,
		},
		{
			name:  "percentage scale",
			raw:   `{"fit": "yes", "score": 72}`,
			fit:   true,
			score: 0.72,
		},
		{
			name:  "percent string",
			raw:   `{"fit": false, "score": "60%"}`,
			score: 0.6,
		},
		{
			name:    "missing score",
			raw:     `{"fit": true}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "I think this is a good fit.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assessment, err := parseFit(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", assessment)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if assessment.Fit != tt.fit {
				t.Fatalf("expected fit %v, got %v", tt.fit, assessment.Fit)
			}
			if diff := assessment.Score - tt.score; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("expected score %v, got %v", tt.score, assessment.Score)
			}
		})
	}
}
