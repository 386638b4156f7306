package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spigell/career-architect/internal/headhunter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "career-architect"
)

type Config struct {
	Stage      string        `mapstructure:"stage"`
	StageFile  string        `mapstructure:"stage-file"`
	ScriptFile string        `mapstructure:"script-file"`
	LogFile    string        `mapstructure:"log-file"`
	Delays     *DelaysConfig `mapstructure:"delays" validate:"required"`
	Report     *ReportConfig `mapstructure:"report" validate:"required"`
	Market     *MarketConfig `mapstructure:"market" validate:"required"`
	AI         *AIConfig     `mapstructure:"ai"`
}

type DelaysConfig struct {
	Analyzing  time.Duration `mapstructure:"analyzing" validate:"gte=0"`
	Thinking   time.Duration `mapstructure:"thinking" validate:"gte=0"`
	FollowUp   time.Duration `mapstructure:"follow-up" validate:"gte=0"`
	Completion time.Duration `mapstructure:"completion" validate:"gte=0"`
	Report     time.Duration `mapstructure:"report" validate:"gte=0"`
}

type ReportConfig struct {
	MaxJobs      int      `mapstructure:"max-jobs" validate:"gte=1,lte=20"`
	MaxGaps      int      `mapstructure:"max-gaps" validate:"gte=0,lte=10"`
	MaxStrengths int      `mapstructure:"max-strengths" validate:"gte=0,lte=10"`
	Proficiency  int      `mapstructure:"proficiency" validate:"gte=0,lte=100"`
	Disable      []string `mapstructure:"disable" validate:"dive,oneof=skills market salary jobs gaps"`
}

type MarketConfig struct {
	Source    string                   `mapstructure:"source" validate:"oneof=static hh"`
	TokenFile string                   `mapstructure:"token-file"`
	UserAgent string                   `mapstructure:"user-agent"`
	Limit     int                      `mapstructure:"limit" validate:"gte=0,lte=2000"`
	ResumeID  string                   `mapstructure:"resume-id"`
	Search    *headhunter.SearchParams `mapstructure:"search"`
}

type AIConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Provider        string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	MinimumFitScore float64       `mapstructure:"minimum-fit-score" validate:"gte=0,lte=1"`
	Gemini          *GeminiConfig `mapstructure:"gemini" validate:"required_if=Enabled true"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-architect walks a candidate through a recruiter intake, a technical interview and a market report",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"market.token-file":      "HH_TOKEN_FILE",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"stage":                  "CAREER_STAGE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-architect.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stdout")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("delays.analyzing", "2500ms")
	v.SetDefault("delays.thinking", "1500ms")
	v.SetDefault("delays.follow-up", "1000ms")
	v.SetDefault("delays.completion", "3000ms")
	v.SetDefault("delays.report", "5000ms")

	v.SetDefault("report.max-jobs", 3)
	v.SetDefault("report.max-gaps", 2)
	v.SetDefault("report.max-strengths", 2)
	v.SetDefault("report.proficiency", 50)

	v.SetDefault("market.source", "static")
	v.SetDefault("market.limit", 20)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 500)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
