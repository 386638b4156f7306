// Package report assembles the analyst report from the intake facts, the
// interview transcript and market data.
package report

import (
	"time"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/assessment"
	"github.com/spigell/career-architect/internal/headhunter"
)

// Market fit labels ordered from least to most experienced.
const (
	FitJunior    = "Junior"
	FitMidJunior = "Mid-Junior"
	FitMid       = "Mid-Level"
	FitSenior    = "Senior"
)

// Input is everything the earlier stages learned about the candidate.
type Input struct {
	Profile         ai.Profile
	AnalysisOK      bool
	Answers         []assessment.Answer
	CodeSubmissions int
}

type JobMatch struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Company       string   `json:"company" yaml:"company"`
	Location      string   `json:"location,omitempty" yaml:"location,omitempty"`
	URL           string   `json:"url,omitempty" yaml:"url,omitempty"`
	Match         int      `json:"match" yaml:"match"`
	MissingSkills []string `json:"missing_skills,omitempty" yaml:"missing-skills,omitempty"`
	Reason        string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type Insight struct {
	Title  string `json:"title" yaml:"title"`
	Detail string `json:"detail" yaml:"detail"`
}

type Report struct {
	GeneratedAt    time.Time               `json:"generated_at" yaml:"generated-at"`
	Role           string                  `json:"role" yaml:"role"`
	Readiness      int                     `json:"readiness" yaml:"readiness"`
	MarketFit      string                  `json:"market_fit" yaml:"market-fit"`
	Skills         []ai.SkillScore         `json:"skills" yaml:"skills"`
	SalaryBands    []headhunter.SalaryBand `json:"salary_bands" yaml:"salary-bands"`
	EstimatedRange *headhunter.SalaryBand  `json:"estimated_range,omitempty" yaml:"estimated-range,omitempty"`
	Jobs           []JobMatch              `json:"jobs" yaml:"jobs"`
	Gaps           []Insight               `json:"gaps" yaml:"gaps"`
	Strengths      []Insight               `json:"strengths" yaml:"strengths"`
	Steps          []Status                `json:"steps" yaml:"steps"`
}

// FitFor maps a readiness percentage to a market fit label.
func FitFor(readiness int) string {
	switch {
	case readiness < 50:
		return FitJunior
	case readiness < 70:
		return FitMidJunior
	case readiness < 85:
		return FitMid
	default:
		return FitSenior
	}
}
