package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the tunables of the resilience coordinator and the console.
type Config struct {
	BaseURL    string
	HealthPath string
	Debug      bool
	LogFile    string

	DuplicateWindow     time.Duration
	RequestTimeout      time.Duration
	SlowThreshold       time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
	HealthCheckInterval time.Duration
	GuardRetention      time.Duration
	QueueMaxAge         time.Duration

	Janitor JanitorConfig
}

// JanitorConfig holds the stuck-state age tiers, least to most aggressive.
type JanitorConfig struct {
	Periodic       time.Duration
	Fetch          time.Duration
	Visible        time.Duration
	AppSwitch      time.Duration
	Hidden         time.Duration
	AppSwitchDelay time.Duration
}

const (
	defaultConfigPath = "~/.config/steady/config.toml"
	defaultLogFile    = "~/.local/share/steady/steady.log"
	defaultBaseURL    = "127.0.0.1:8040"
	defaultHealthPath = "/health/"
)

// raw mirrors the TOML layout. Durations are whole milliseconds.
type raw struct {
	BaseURL               string `toml:"base_url"`
	HealthPath            string `toml:"health_path"`
	Debug                 bool   `toml:"debug"`
	LogFile               string `toml:"log_file"`
	DuplicateWindowMS     int64  `toml:"duplicate_window_ms" validate:"gte=0"`
	RequestTimeoutMS      int64  `toml:"request_timeout_ms" validate:"gt=0"`
	SlowThresholdMS       int64  `toml:"slow_threshold_ms" validate:"gt=0"`
	MaxRetries            int    `toml:"max_retries" validate:"gte=1,lte=100"`
	RetryDelayMS          int64  `toml:"retry_delay_ms" validate:"gte=0"`
	HealthCheckIntervalMS int64  `toml:"health_check_interval_ms" validate:"gt=0"`
	GuardRetentionMS      int64  `toml:"guard_retention_ms" validate:"gtefield=DuplicateWindowMS"`
	QueueMaxAgeMS         int64  `toml:"queue_max_age_ms" validate:"gt=0"`

	Janitor rawJanitor `toml:"janitor"`
}

type rawJanitor struct {
	PeriodicMS       int64 `toml:"periodic_ms" validate:"gt=0"`
	FetchMS          int64 `toml:"fetch_ms" validate:"gt=0"`
	VisibleMS        int64 `toml:"visible_ms" validate:"gt=0"`
	AppSwitchMS      int64 `toml:"app_switch_ms" validate:"gt=0"`
	HiddenMS         int64 `toml:"hidden_ms" validate:"gt=0"`
	AppSwitchDelayMS int64 `toml:"app_switch_delay_ms" validate:"gte=0"`
}

func defaultRaw() raw {
	return raw{
		BaseURL:               defaultBaseURL,
		HealthPath:            defaultHealthPath,
		LogFile:               defaultLogFile,
		DuplicateWindowMS:     2000,
		RequestTimeoutMS:      10000,
		SlowThresholdMS:       3000,
		MaxRetries:            3,
		RetryDelayMS:          1000,
		HealthCheckIntervalMS: 30000,
		GuardRetentionMS:      5 * 60 * 1000,
		QueueMaxAgeMS:         10 * 60 * 1000,
		Janitor: rawJanitor{
			PeriodicMS:       15000,
			FetchMS:          10000,
			VisibleMS:        5000,
			AppSwitchMS:      3000,
			HiddenMS:         5000,
			AppSwitchDelayMS: 1000,
		},
	}
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := defaultRaw().toConfig()
	cfg.LogFile = mustExpand(cfg.LogFile)
	return cfg
}

// Load locates and parses the steady config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	r := defaultRaw()
	if err := toml.Unmarshal(bytes, &r); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	r.BaseURL = strings.TrimSpace(r.BaseURL)
	if r.BaseURL == "" {
		r.BaseURL = defaultBaseURL
	}
	r.HealthPath = strings.TrimSpace(r.HealthPath)
	if r.HealthPath == "" {
		r.HealthPath = defaultHealthPath
	}
	r.LogFile = strings.TrimSpace(r.LogFile)
	if r.LogFile == "" {
		r.LogFile = defaultLogFile
	}

	if err := validator.New().Struct(r); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	cfg := r.toConfig()
	cfg.LogFile = mustExpand(cfg.LogFile)
	return cfg, nil
}

func (r raw) toConfig() Config {
	return Config{
		BaseURL:             r.BaseURL,
		HealthPath:          r.HealthPath,
		Debug:               r.Debug,
		LogFile:             r.LogFile,
		DuplicateWindow:     ms(r.DuplicateWindowMS),
		RequestTimeout:      ms(r.RequestTimeoutMS),
		SlowThreshold:       ms(r.SlowThresholdMS),
		MaxRetries:          r.MaxRetries,
		RetryDelay:          ms(r.RetryDelayMS),
		HealthCheckInterval: ms(r.HealthCheckIntervalMS),
		GuardRetention:      ms(r.GuardRetentionMS),
		QueueMaxAge:         ms(r.QueueMaxAgeMS),
		Janitor: JanitorConfig{
			Periodic:       ms(r.Janitor.PeriodicMS),
			Fetch:          ms(r.Janitor.FetchMS),
			Visible:        ms(r.Janitor.VisibleMS),
			AppSwitch:      ms(r.Janitor.AppSwitchMS),
			Hidden:         ms(r.Janitor.HiddenMS),
			AppSwitchDelay: ms(r.Janitor.AppSwitchDelayMS),
		},
	}
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
