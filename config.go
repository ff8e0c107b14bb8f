package quizdrill

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings shared by the web server and the CLI
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Study   StudyConfig   `mapstructure:"study"`
	Log     LogConfig     `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
	AI      AIConfig      `mapstructure:"ai"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	MaxUploadSize int64  `mapstructure:"max_upload_mb"`
}

// DefaultSessionSecret signs session cookies when no secret is configured
const DefaultSessionSecret = "quizdrill-local-session-key"

type SessionConfig struct {
	Secret string `mapstructure:"secret"`
}

// IsDefault reports whether cookies are signed with the built-in secret
func (c SessionConfig) IsDefault() bool {
	return c.Secret == "" || c.Secret == DefaultSessionSecret
}

type StudyConfig struct {
	Threshold int `mapstructure:"threshold"`
}

type LogConfig struct {
	Verbose bool   `mapstructure:"verbose"`
	File    string `mapstructure:"file"`
}

type HistoryConfig struct {
	// DB is relative to the data directory unless absolute. Empty disables
	// attempt history.
	DB string `mapstructure:"db"`
}

type AIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// Enabled reports whether explanations can be requested
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// HistoryPath resolves the history database location
func (c *Config) HistoryPath() string {
	if c.History.DB == "" || filepath.IsAbs(c.History.DB) {
		return c.History.DB
	}
	return filepath.Join(c.DataDir, c.History.DB)
}

// NewViper returns a viper instance with defaults and environment bindings
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("data_dir", ".")
	v.SetDefault("server.port", "8180")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("session.secret", DefaultSessionSecret)
	v.SetDefault("study.threshold", DefaultThreshold)
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.file", "")
	v.SetDefault("history.db", "quiz_history.db")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")

	v.SetEnvPrefix("QUIZDRILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("server.port", "QUIZDRILL_SERVER_PORT", "PORT")
	v.BindEnv("ai.api_key", "QUIZDRILL_AI_API_KEY", "OPENAI_API_KEY")

	return v
}

// LoadConfig reads quizdrill.yaml from the working directory, or the file
// given by path, on top of defaults and environment variables. A missing
// default config file is not an error.
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quizdrill")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Study.Threshold < MinThreshold || cfg.Study.Threshold > MaxThreshold {
		return nil, fmt.Errorf("study.threshold must be between %d and %d, got %d", MinThreshold, MaxThreshold, cfg.Study.Threshold)
	}
	if cfg.Server.MaxUploadSize <= 0 {
		cfg.Server.MaxUploadSize = 32
	}
	return &cfg, nil
}
