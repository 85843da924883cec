package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/astowny/monteur-ia/internal/transcription"
)

// RuntimeSettings is an optional JSON file whose non-empty fields override
// the environment. Secrets stay in the environment.
type RuntimeSettings struct {
	TranscribeMode  string `json:"transcribe_mode,omitempty"`
	DefaultLanguage string `json:"default_language,omitempty"`
	SweepCron       string `json:"sweep_cron,omitempty"`
	RateLimitMax    int    `json:"rate_limit_max,omitempty"`
	RateLimitWindow int    `json:"rate_limit_window,omitempty"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("MONTEUR_SETTINGS_FILE", "")
}

func (s RuntimeSettings) Validate() error {
	if s.TranscribeMode != "" {
		if _, err := transcription.ParseMode(s.TranscribeMode); err != nil {
			return fmt.Errorf("invalid transcribe_mode: %w", err)
		}
	}
	if strings.TrimSpace(s.DefaultLanguage) != "" {
		if _, err := language.Parse(s.DefaultLanguage); err != nil {
			return fmt.Errorf("invalid default_language: %w", err)
		}
	}
	if strings.TrimSpace(s.SweepCron) != "" {
		if _, err := cron.ParseStandard(s.SweepCron); err != nil {
			return fmt.Errorf("invalid sweep_cron: %w", err)
		}
	}
	if s.RateLimitMax < 0 || s.RateLimitWindow < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	return nil
}

func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if settings.TranscribeMode != "" {
			c.Transcription.Mode = transcription.Mode(settings.TranscribeMode)
		}
		if tag, err := language.Parse(settings.DefaultLanguage); err == nil {
			c.Transcription.DefaultLanguage = tag
		}
		if strings.TrimSpace(settings.SweepCron) != "" {
			c.Jobs.SweepCron = settings.SweepCron
		}
		if settings.RateLimitMax > 0 {
			c.Auth.RateLimitMax = settings.RateLimitMax
		}
		if settings.RateLimitWindow > 0 {
			c.Auth.RateLimitWindow = settings.RateLimitWindow
		}
	}
}

func LoadRuntimeSettingsFile(path string) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeSettings{}, err
	}
	var settings RuntimeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return RuntimeSettings{}, err
	}
	return settings, nil
}

// Load reads the environment and, when MONTEUR_SETTINGS_FILE is set, applies
// the settings file on top of it.
func Load(opts ...Option) (*Config, error) {
	if path := RuntimeSettingsFilePath(); path != "" {
		settings, err := LoadRuntimeSettingsFile(path)
		if err != nil {
			return nil, fmt.Errorf("load settings file %s: %w", path, err)
		}
		opts = append([]Option{WithRuntimeSettings(settings)}, opts...)
	}
	return NewFromEnv(opts...)
}
