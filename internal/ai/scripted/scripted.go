// Package scripted provides the static collaborators used when no language
// model is configured. Every answer comes from the Script Table or a fixed
// payload.
package scripted

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/script"
)

// DefaultSkills is the fixed skill profile reported for any document.
var DefaultSkills = []ai.SkillScore{
	{Name: "React", Score: 85},
	{Name: "TypeScript", Score: 65},
	{Name: "Node.js", Score: 40},
	{Name: "CSS/Tailwind", Score: 90},
	{Name: "Testing", Score: 30},
	{Name: "System Design", Score: 50},
}

type Analyzer struct {
	table  *script.Table
	role   string
	skills []ai.SkillScore
}

func NewAnalyzer(table *script.Table) *Analyzer {
	if table == nil {
		table = script.Default()
	}
	return &Analyzer{
		table:  table,
		role:   table.Intake.DefaultRole,
		skills: DefaultSkills,
	}
}

// Analyze succeeds for any non-empty document.
func (a *Analyzer) Analyze(ctx context.Context, doc ai.Document) (*ai.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(doc.Content)) == 0 {
		return &ai.Analysis{OK: false, Greeting: a.table.Intake.AnalysisFailed}, nil
	}

	skills := make([]ai.SkillScore, len(a.skills))
	copy(skills, a.skills)

	return &ai.Analysis{
		OK:         true,
		Greeting:   a.table.Greeting(a.role),
		TargetRole: a.role,
		Skills:     skills,
		Summary:    fmt.Sprintf("Profile extracted from %s", displayName(doc.Name)),
	}, nil
}

type Dialogue struct {
	table *script.Table
}

func NewDialogue(table *script.Table) *Dialogue {
	if table == nil {
		table = script.Default()
	}
	return &Dialogue{table: table}
}

func (d *Dialogue) Generate(ctx context.Context, req ai.DialogueRequest) (*ai.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, found := d.table.Lookup(req.Flow, req.Key)
	return ai.ReplyFromEntry(entry, found), nil
}

func displayName(name string) string {
	if name == "" {
		return "the uploaded document"
	}
	return name
}
