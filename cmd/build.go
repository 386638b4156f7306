package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/career-architect/internal/ai"
	"github.com/spigell/career-architect/internal/ai/gemini"
	"github.com/spigell/career-architect/internal/ai/scripted"
	"github.com/spigell/career-architect/internal/assessment"
	"github.com/spigell/career-architect/internal/headhunter"
	"github.com/spigell/career-architect/internal/intake"
	"github.com/spigell/career-architect/internal/report"
	"github.com/spigell/career-architect/internal/script"
	"github.com/spigell/career-architect/internal/secrets"
	"github.com/spigell/career-architect/internal/session"
	"github.com/spigell/career-architect/internal/stage"
	"github.com/spigell/career-architect/internal/stagefile"

	"go.uber.org/zap"
)

const (
	marketStatic = "static"
	marketHH     = "hh"
)

// collaborators are the services behind the sub-flows.
type collaborators struct {
	analyzer ai.ResumeAnalyzer
	dialogue ai.DialogueGenerator
	matcher  ai.Matcher
}

func loadScript(path string) (*script.Table, error) {
	if strings.TrimSpace(path) == "" {
		return script.Default(), nil
	}
	return script.Load(path)
}

// initialStage picks the persisted stage file value over the configured one.
func initialStage(config *Config, store *stagefile.Store, logger *zap.Logger) stage.Stage {
	value := config.Stage
	if store != nil {
		persisted, err := store.Load()
		if err != nil {
			logger.Warn("ignoring unreadable stage file", zap.Error(err))
		} else if persisted != "" {
			value = persisted
		}
	}

	initial := stage.Parse(value)
	if value != "" && string(initial) != value {
		logger.Warn("unknown stage, starting over", zap.String("stage", value))
	}
	return initial
}

func newCollaborators(ctx context.Context, cfg *AIConfig, table *script.Table, logger *zap.Logger) (*collaborators, error) {
	c := &collaborators{
		analyzer: scripted.NewAnalyzer(table),
		dialogue: scripted.NewDialogue(table),
	}
	if cfg == nil || !cfg.Enabled {
		return c, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, logger)
	if err != nil {
		return nil, err
	}

	aiLogger := logger.With(
		zap.String("provider", gemini.Provider),
		zap.String("model", generator.Model()),
	)

	c.analyzer = gemini.NewAnalyzer(generator.JSON(), table, cfg.Gemini.MaxLogLength, aiLogger)
	c.dialogue = gemini.NewDialogue(generator, table, aiLogger)
	c.matcher = gemini.NewMatcher(generator.JSON(), cfg.MinimumFitScore, cfg.Gemini.MaxLogLength,
		aiLogger.With(zap.Float64("minimum_fit_score", cfg.MinimumFitScore)))

	return c, nil
}

// newHeadhunter builds the hh.ru client. The token is optional for vacancy
// search and required for resume downloads.
func newHeadhunter(cfg *MarketConfig, logger *zap.Logger) *headhunter.Client {
	token, err := secrets.Load(secrets.Source{Name: "headhunter token", File: cfg.TokenFile, Optional: true})
	if err != nil {
		logger.Warn("continuing without headhunter token", zap.Error(err))
	}

	hh := headhunter.New(logger, token)
	if cfg.UserAgent != "" {
		hh.UserAgent = cfg.UserAgent
	}
	if cfg.Limit > 0 {
		hh.Limit = cfg.Limit
	}
	if cfg.Search != nil {
		hh.Search = *cfg.Search
	}
	return hh
}

func newMarket(cfg *MarketConfig, hh *headhunter.Client) (report.MarketData, error) {
	switch cfg.Source {
	case marketHH:
		return hh, nil
	case marketStatic, "":
		return report.NewStaticMarket()
	default:
		return nil, fmt.Errorf("unsupported market source: %s", cfg.Source)
	}
}

func newAssembler(cfg *ReportConfig, deps report.Deps) *report.Assembler {
	steps := report.DefaultSteps()
	for _, name := range cfg.Disable {
		report.DisableByName(steps, name, "disabled in config")
	}

	return report.NewAssembler(&report.Config{
		MaxJobs:      cfg.MaxJobs,
		MaxGaps:      cfg.MaxGaps,
		MaxStrengths: cfg.MaxStrengths,
		Proficiency:  cfg.Proficiency,
	}, deps, steps...)
}

func sessionConfig(config *Config, table *script.Table, c *collaborators, assembler *report.Assembler, logger *zap.Logger) session.Config {
	cfg := session.Config{
		Script:    table,
		Analyzer:  c.analyzer,
		Dialogue:  c.dialogue,
		Assembler: assembler,
		Logger:    logger,
		Delays: &session.Delays{
			Intake: intake.Delays{
				Analyzing: config.Delays.Analyzing,
				Thinking:  config.Delays.Thinking,
				FollowUp:  config.Delays.FollowUp,
			},
			Assessment: assessment.Delays{
				Thinking:   config.Delays.Thinking,
				Completion: config.Delays.Completion,
			},
			Report: config.Delays.Report,
		},
	}
	return cfg
}
