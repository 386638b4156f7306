// Package script holds the static Script Table: the scripted agent replies
// and the state changes they carry, keyed by sub-flow and trigger.
package script

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Flow string

const (
	FlowIntake     Flow = "intake"
	FlowAssessment Flow = "assessment"
)

// Mode is the interview question type.
type Mode string

const (
	ModeGeneral Mode = "general"
	ModeCoding  Mode = "coding"
)

// Intake trigger keys produced by Classify.
const (
	KeyAffirm = "affirm"
	KeyOther  = "other"
)

const rolePlaceholder = "{role}"

// Entry is what fires for a trigger. Empty Mode leaves the question mode
// unchanged.
type Entry struct {
	Reply           string `yaml:"reply"`
	FollowUp        string `yaml:"follow-up,omitempty"`
	Mode            Mode   `yaml:"mode,omitempty"`
	OfferCompletion bool   `yaml:"offer-completion,omitempty"`
	Complete        bool   `yaml:"complete,omitempty"`
}

type FlowScript struct {
	Entries  map[string]Entry `yaml:"entries"`
	Fallback Entry            `yaml:"fallback"`
}

type IntakeScript struct {
	FlowScript     `yaml:",inline"`
	DefaultRole    string   `yaml:"default-role"`
	Greeting       string   `yaml:"greeting"`
	Skip           string   `yaml:"skip"`
	AnalysisFailed string   `yaml:"analysis-failed"`
	Affirmations   []string `yaml:"affirmations"`
}

type AssessmentScript struct {
	FlowScript     `yaml:",inline"`
	Welcome        string `yaml:"welcome"`
	CodeSubmission string `yaml:"code-submission"`
	StarterCode    string `yaml:"starter-code"`
}

// Table is read-only once loaded.
type Table struct {
	Intake     IntakeScript     `yaml:"intake"`
	Assessment AssessmentScript `yaml:"assessment"`
}

//go:embed script.yaml
var defaultScript []byte

// Default returns the built-in script.
func Default() *Table {
	table, err := Parse(defaultScript)
	if err != nil {
		panic(fmt.Sprintf("script: built-in script is invalid: %v", err))
	}
	return table
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("script: payload is empty")
	}
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("script: decode: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Load reads a script file. An empty path yields the built-in script.
func Load(path string) (*Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", path, err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("script: %s: %w", path, err)
	}
	return table, nil
}

func (t *Table) Validate() error {
	required := map[string]string{
		"intake.greeting":            t.Intake.Greeting,
		"intake.skip":                t.Intake.Skip,
		"intake.fallback.reply":      t.Intake.Fallback.Reply,
		"assessment.welcome":         t.Assessment.Welcome,
		"assessment.fallback.reply":  t.Assessment.Fallback.Reply,
		"assessment.code-submission": t.Assessment.CodeSubmission,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("script: %s is required", key)
		}
	}
	if len(t.Intake.Affirmations) == 0 {
		return fmt.Errorf("script: intake.affirmations must not be empty")
	}
	if _, ok := t.Intake.Entries[KeyAffirm]; !ok {
		return fmt.Errorf("script: intake entry %q is required", KeyAffirm)
	}

	completes := 0
	for key, entry := range t.Assessment.Entries {
		n, err := strconv.Atoi(key)
		if err != nil || n < 0 {
			return fmt.Errorf("script: assessment key %q must be a non-negative turn count", key)
		}
		if strings.TrimSpace(entry.Reply) == "" {
			return fmt.Errorf("script: assessment entry %q has no reply", key)
		}
		switch entry.Mode {
		case "", ModeGeneral, ModeCoding:
		default:
			return fmt.Errorf("script: assessment entry %q has unknown mode %q", key, entry.Mode)
		}
		if entry.Complete {
			completes++
		}
	}
	if completes != 1 {
		return fmt.Errorf("script: assessment needs exactly one completing entry, got %d", completes)
	}
	return nil
}

// Lookup returns the entry for a trigger key. The lookup is total: an unknown
// key yields the flow's fallback entry and false.
func (t *Table) Lookup(flow Flow, key string) (Entry, bool) {
	var fs FlowScript
	switch flow {
	case FlowIntake:
		fs = t.Intake.FlowScript
	case FlowAssessment:
		fs = t.Assessment.FlowScript
	default:
		return Entry{}, false
	}
	if entry, ok := fs.Entries[key]; ok {
		return entry, true
	}
	return fs.Fallback, false
}

// AssessmentKey converts a turn count into an assessment trigger key.
func AssessmentKey(n int) string {
	return strconv.Itoa(n)
}

// ModeAfter returns the question mode after the trigger for count n fires,
// given the mode before it.
func (t *Table) ModeAfter(n int, prev Mode) Mode {
	entry, ok := t.Lookup(FlowAssessment, AssessmentKey(n))
	if !ok || entry.Mode == "" {
		return prev
	}
	return entry.Mode
}

// Greeting renders the post-analysis greeting for an inferred role.
func (t *Table) Greeting(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		role = t.Intake.DefaultRole
	}
	return strings.ReplaceAll(t.Intake.Greeting, rolePlaceholder, role)
}

// Classify inspects the lowercased text for affirmation tokens.
func (t *Table) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, token := range t.Intake.Affirmations {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" && strings.Contains(lower, token) {
			return KeyAffirm
		}
	}
	return KeyOther
}

// Marshal encodes the table back to YAML.
func (t *Table) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("script: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("script: encode: %w", err)
	}
	return buf.Bytes(), nil
}
