package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultModel            = "gpt-4o-mini"
	DefaultMaxTokens        = 2048
	DefaultMinWordCount     = 150
	DefaultMaxWordCount     = 300
	DefaultStyle            = "humorous self-deprecating"
	DefaultGenerateTime     = "08:00"
	DefaultSendTime         = "09:00"
	DefaultForwardThreshold = 200
)

type Config struct {
	Provider ProviderConfig `json:"provider"`
	Diary    DiaryConfig    `json:"diary"`
	Channels ChannelsConfig `json:"channels"`
}

type ProviderConfig struct {
	APIKey    string `json:"apiKey"`
	BaseURL   string `json:"baseUrl,omitempty"`
	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty"`
}

type DiaryConfig struct {
	Style            string   `json:"style"`
	MinWordCount     int      `json:"minWordCount"`
	MaxWordCount     int      `json:"maxWordCount"`
	AutoGenerateTime string   `json:"autoGenerateTime"`
	AutoSendTime     string   `json:"autoSendTime"`
	Destinations     []string `json:"destinations"`
	ForwardThreshold int      `json:"forwardThreshold"`
	DataDir          string   `json:"dataDir,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
		Diary: DiaryConfig{
			Style:            DefaultStyle,
			MinWordCount:     DefaultMinWordCount,
			MaxWordCount:     DefaultMaxWordCount,
			AutoGenerateTime: DefaultGenerateTime,
			AutoSendTime:     DefaultSendTime,
			ForwardThreshold: DefaultForwardThreshold,
		},
		Channels: ChannelsConfig{},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".dogdiary")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(ConfigPath())
}

func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if key := os.Getenv("DOGDIARY_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if url := os.Getenv("DOGDIARY_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if model := os.Getenv("DOGDIARY_MODEL"); model != "" {
		cfg.Provider.Model = model
	}
	if token := os.Getenv("DOGDIARY_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if dir := os.Getenv("DOGDIARY_DATA_DIR"); dir != "" {
		cfg.Diary.DataDir = dir
	}
	if v := os.Getenv("DOGDIARY_MIN_WORD_COUNT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Diary.MinWordCount = parsed
		}
	}
	if v := os.Getenv("DOGDIARY_MAX_WORD_COUNT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Diary.MaxWordCount = parsed
		}
	}
	if v := os.Getenv("DOGDIARY_STYLE"); v != "" {
		cfg.Diary.Style = v
	}

	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Provider.MaxTokens <= 0 {
		cfg.Provider.MaxTokens = DefaultMaxTokens
	}
	if cfg.Diary.Style == "" {
		cfg.Diary.Style = DefaultStyle
	}
	if cfg.Diary.MinWordCount <= 0 {
		cfg.Diary.MinWordCount = DefaultMinWordCount
	}
	if cfg.Diary.MaxWordCount <= 0 {
		cfg.Diary.MaxWordCount = DefaultMaxWordCount
	}
	if cfg.Diary.AutoGenerateTime == "" {
		cfg.Diary.AutoGenerateTime = DefaultGenerateTime
	}
	if cfg.Diary.AutoSendTime == "" {
		cfg.Diary.AutoSendTime = DefaultSendTime
	}
	if cfg.Diary.ForwardThreshold <= 0 {
		cfg.Diary.ForwardThreshold = DefaultForwardThreshold
	}
	if cfg.Diary.DataDir == "" {
		cfg.Diary.DataDir = filepath.Join(ConfigDir(), "data")
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
