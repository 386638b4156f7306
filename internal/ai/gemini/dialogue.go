package gemini

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/conversation"
	"github.com/spigell/career-architect/internal/script"
)

//go:embed prompts/dialogue.md
var dialoguePrompt string

// historyTurns bounds how much of the Turn Log is sent for context.
const historyTurns = 8

var personas = map[script.Flow]string{
	script.FlowIntake:     "a friendly technical recruiter",
	script.FlowAssessment: "a Tech Lead running a technical interview",
}

// Dialogue phrases scripted replies with Gemini. The script still decides
// which reply fires and every state change it carries.
type Dialogue struct {
	generator contentGenerator
	table     *script.Table
	logger    *zap.Logger
}

func NewDialogue(generator contentGenerator, table *script.Table, logger *zap.Logger) *Dialogue {
	if table == nil {
		table = script.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialogue{generator: generator, table: table, logger: logger}
}

func (d *Dialogue) Generate(ctx context.Context, req ai.DialogueRequest) (*ai.Reply, error) {
	reply := ai.ReplyFromEntry(d.table.Lookup(req.Flow, req.Key))

	persona, ok := personas[req.Flow]
	if !ok {
		return nil, fmt.Errorf("unknown flow %q", req.Flow)
	}
	system := strings.ReplaceAll(dialoguePrompt, "{{PERSONA}}", persona)

	text, err := d.generator.GenerateContent(ctx, system, dialogueMessage(req.Log, reply.Text))
	if err != nil {
		return nil, err
	}

	d.logger.Debug("scripted reply rephrased",
		zap.String("flow", string(req.Flow)),
		zap.String("trigger", req.Key),
		zap.Bool("unscripted", reply.Unscripted),
	)

	reply.Text = text
	reply.Scripted = false
	return reply, nil
}

func dialogueMessage(turns []conversation.Turn, scripted string) string {
	if len(turns) > historyTurns {
		turns = turns[len(turns)-historyTurns:]
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, turn := range turns {
		speaker := "Candidate"
		if turn.Speaker == conversation.SpeakerAgent {
			speaker = "You"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, turn.Text)
	}
	b.WriteString("\nReply to deliver:\n")
	b.WriteString(scripted)
	return b.String()
}
