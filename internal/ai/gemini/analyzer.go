package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/logger"
	"github.com/spigell/career-architect/internal/script"
)

//go:embed prompts/analyzer.md
var analyzerPrompt string

// maxDocumentRunes caps the document text sent to the model.
const maxDocumentRunes = 60000

// Analyzer extracts a target role and skill profile from a CV.
type Analyzer struct {
	generator contentGenerator
	table     *script.Table
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyzer(generator contentGenerator, table *script.Table, maxLogLength int, logger *zap.Logger) *Analyzer {
	if table == nil {
		table = script.Default()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{generator: generator, table: table, logger: logger, maxLogLen: maxLogLength}
}

type analysisPayload struct {
	TargetRole string          `json:"target_role"`
	Skills     []ai.SkillScore `json:"skills"`
	Summary    string          `json:"summary"`
}

func (a *Analyzer) Analyze(ctx context.Context, doc ai.Document) (*ai.Analysis, error) {
	content := strings.TrimSpace(string(bytes.ToValidUTF8(doc.Content, nil)))
	if content == "" {
		return &ai.Analysis{OK: false, Greeting: a.table.Intake.AnalysisFailed}, nil
	}
	if utf8.RuneCountInString(content) > maxDocumentRunes {
		content = string([]rune(content)[:maxDocumentRunes])
	}

	message := fmt.Sprintf("Document name: %s\n\n%s", doc.Name, content)
	a.logger.Debug("gemini analyze request",
		zap.String("document", doc.Name),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
	)

	raw, err := a.generator.GenerateContent(ctx, analyzerPrompt, message)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini analyze response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	payload, err := parseAnalysis(raw)
	if err != nil {
		return nil, err
	}

	role := strings.TrimSpace(payload.TargetRole)
	if role == "" && len(payload.Skills) == 0 {
		return &ai.Analysis{OK: false, Greeting: a.table.Intake.AnalysisFailed}, nil
	}
	if role == "" {
		role = a.table.Intake.DefaultRole
	}

	return &ai.Analysis{
		OK:         true,
		Greeting:   a.table.Greeting(role),
		TargetRole: role,
		Skills:     payload.Skills,
		Summary:    strings.TrimSpace(payload.Summary),
	}, nil
}

func parseAnalysis(raw string) (*analysisPayload, error) {
	cleaned := extractJSON(raw)
	if err := validateJSON(analysisSchema, cleaned); err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	skills := payload.Skills[:0]
	for _, skill := range payload.Skills {
		skill.Name = strings.TrimSpace(skill.Name)
		if skill.Name == "" {
			continue
		}
		skills = append(skills, skill)
	}
	sort.SliceStable(skills, func(i, j int) bool { return skills[i].Score > skills[j].Score })
	payload.Skills = skills

	return &payload, nil
}
