package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/astowny/monteur-ia/internal/transcription"
	"github.com/astowny/monteur-ia/pkg/log"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// Runtime:
// - MONTEUR_ENV: deployment environment, prod/production enables strict checks (default: dev)
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - MONTEUR_SETTINGS_FILE: optional JSON overlay, see RuntimeSettings
//
// Transcription:
// - MONTEUR_TRANSCRIBE_MODE: stub, local or api (default: stub)
// - MONTEUR_WHISPER_BIN: whisper CLI for local mode (default: whisper)
// - WHISPER_API_URL / WHISPER_API_KEY: remote endpoint for api mode
// - WHISPER_API_TIMEOUT: request timeout in seconds (default: 30)
// - MONTEUR_DEFAULT_LANGUAGE: language used when a request has none (default: fr)
//
// Media:
// - MONTEUR_FFMPEG_BIN: ffmpeg binary (default: ffmpeg)
//
// Access:
// - MONTEUR_API_KEY: shared API key, empty disables the check
// - MONTEUR_RATE_LIMIT_MAX: requests per client per window (default: 120)
// - MONTEUR_RATE_LIMIT_WINDOW: window in seconds (default: 60)
//
// Storage, HTTP and jobs:
// - MONTEUR_SQLITE_PATH (default: storage/monteur.db)
// - MONTEUR_HTTP_ADDR (default: :8080)
// - MONTEUR_JOB_SWEEP_CRON (default: @every 30s)
// - MONTEUR_JOB_CONCURRENCY (default: 2)
type Config struct {
	Env      string `json:"env"`
	LogLevel string `json:"log_level"`

	Transcription TranscriptionConfig `json:"transcription"`
	Media         MediaConfig         `json:"media"`
	Auth          AuthConfig          `json:"auth"`
	Storage       StorageConfig       `json:"storage"`
	HTTP          HTTPConfig          `json:"http"`
	Jobs          JobsConfig          `json:"jobs"`
}

type TranscriptionConfig struct {
	Mode            transcription.Mode `json:"mode"`
	WhisperBin      string             `json:"whisper_bin"`
	APIURL          string             `json:"api_url"`
	APIKey          string             `json:"-"`
	APITimeout      int                `json:"api_timeout"`
	DefaultLanguage language.Tag       `json:"default_language"`
}

func (c TranscriptionConfig) Options() transcription.Options {
	return transcription.Options{
		Mode:       c.Mode,
		WhisperBin: c.WhisperBin,
		APIURL:     c.APIURL,
		APIKey:     c.APIKey,
		APITimeout: time.Duration(c.APITimeout) * time.Second,
	}
}

type MediaConfig struct {
	FFmpegBin string `json:"ffmpeg_bin"`
}

type AuthConfig struct {
	APIKey          string `json:"-"`
	RateLimitMax    int    `json:"rate_limit_max"`
	RateLimitWindow int    `json:"rate_limit_window"`
}

func (c AuthConfig) Window() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Second
}

type StorageConfig struct {
	SQLitePath string `json:"sqlite_path"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

type JobsConfig struct {
	SweepCron   string `json:"sweep_cron"`
	Concurrency int    `json:"concurrency"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	lang, err := language.Parse(getEnvString("MONTEUR_DEFAULT_LANGUAGE", "fr"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONTEUR_DEFAULT_LANGUAGE: %w", err)
	}

	config := &Config{
		Env:      getEnvString("MONTEUR_ENV", "dev"),
		LogLevel: getEnvString("LOG_LEVEL", "info"),
		Transcription: TranscriptionConfig{
			Mode:            transcription.Mode(getEnvString("MONTEUR_TRANSCRIBE_MODE", string(transcription.ModeStub))),
			WhisperBin:      getEnvString("MONTEUR_WHISPER_BIN", "whisper"),
			APIURL:          getEnvString("WHISPER_API_URL", ""),
			APIKey:          getEnvString("WHISPER_API_KEY", ""),
			APITimeout:      getEnvInt("WHISPER_API_TIMEOUT", 30),
			DefaultLanguage: lang,
		},
		Media: MediaConfig{
			FFmpegBin: getEnvString("MONTEUR_FFMPEG_BIN", "ffmpeg"),
		},
		Auth: AuthConfig{
			APIKey:          getEnvString("MONTEUR_API_KEY", ""),
			RateLimitMax:    getEnvInt("MONTEUR_RATE_LIMIT_MAX", 120),
			RateLimitWindow: getEnvInt("MONTEUR_RATE_LIMIT_WINDOW", 60),
		},
		Storage: StorageConfig{
			SQLitePath: getEnvString("MONTEUR_SQLITE_PATH", "storage/monteur.db"),
		},
		HTTP: HTTPConfig{
			Addr: getEnvString("MONTEUR_HTTP_ADDR", ":8080"),
		},
		Jobs: JobsConfig{
			SweepCron:   getEnvString("MONTEUR_JOB_SWEEP_CRON", "@every 30s"),
			Concurrency: getEnvInt("MONTEUR_JOB_CONCURRENCY", 2),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Info("Config: env=%s transcribe_mode=%s sqlite=%s http=%s sweep=%q",
		config.Env, config.Transcription.Mode, config.Storage.SQLitePath, config.HTTP.Addr, config.Jobs.SweepCron)
	return config, nil
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if _, err := transcription.ParseMode(string(c.Transcription.Mode)); err != nil {
		return fmt.Errorf("MONTEUR_TRANSCRIBE_MODE must be one of: stub, local, api")
	}
	if c.IsProduction() && c.Transcription.Mode == transcription.ModeStub {
		return fmt.Errorf("stub transcription mode is forbidden in production")
	}
	if c.Transcription.Mode == transcription.ModeAPI {
		if c.Transcription.APIURL == "" {
			return fmt.Errorf("WHISPER_API_URL is required when MONTEUR_TRANSCRIBE_MODE=api")
		}
		if c.Transcription.APIKey == "" {
			return fmt.Errorf("WHISPER_API_KEY is required when MONTEUR_TRANSCRIBE_MODE=api")
		}
	}
	if c.IsProduction() && c.Auth.APIKey == "" {
		return fmt.Errorf("MONTEUR_API_KEY is required in production")
	}
	if c.Auth.RateLimitMax <= 0 {
		return fmt.Errorf("MONTEUR_RATE_LIMIT_MAX must be positive")
	}
	if c.Auth.RateLimitWindow <= 0 {
		return fmt.Errorf("MONTEUR_RATE_LIMIT_WINDOW must be positive")
	}
	if c.Transcription.APITimeout <= 0 {
		return fmt.Errorf("WHISPER_API_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.Storage.SQLitePath) == "" {
		return fmt.Errorf("MONTEUR_SQLITE_PATH is required")
	}
	if _, err := cron.ParseStandard(c.Jobs.SweepCron); err != nil {
		return fmt.Errorf("invalid MONTEUR_JOB_SWEEP_CRON: %w", err)
	}
	if c.Jobs.Concurrency <= 0 {
		return fmt.Errorf("MONTEUR_JOB_CONCURRENCY must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
