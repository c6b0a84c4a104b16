package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every override so host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DOGDIARY_API_KEY", "OPENAI_API_KEY", "DOGDIARY_BASE_URL",
		"DOGDIARY_MODEL", "DOGDIARY_TELEGRAM_TOKEN", "DOGDIARY_DATA_DIR",
		"DOGDIARY_MIN_WORD_COUNT", "DOGDIARY_MAX_WORD_COUNT", "DOGDIARY_STYLE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}

	if cfg.Provider.Model != DefaultModel {
		t.Errorf("model = %q", cfg.Provider.Model)
	}
	if cfg.Provider.MaxTokens != DefaultMaxTokens {
		t.Errorf("maxTokens = %d", cfg.Provider.MaxTokens)
	}
	if cfg.Diary.Style != DefaultStyle {
		t.Errorf("style = %q", cfg.Diary.Style)
	}
	if cfg.Diary.MinWordCount != DefaultMinWordCount || cfg.Diary.MaxWordCount != DefaultMaxWordCount {
		t.Errorf("word counts = %d..%d", cfg.Diary.MinWordCount, cfg.Diary.MaxWordCount)
	}
	if cfg.Diary.AutoGenerateTime != "08:00" || cfg.Diary.AutoSendTime != "09:00" {
		t.Errorf("times = %s / %s", cfg.Diary.AutoGenerateTime, cfg.Diary.AutoSendTime)
	}
	if cfg.Diary.ForwardThreshold != DefaultForwardThreshold {
		t.Errorf("forwardThreshold = %d", cfg.Diary.ForwardThreshold)
	}
	if cfg.Diary.DataDir == "" {
		t.Error("data dir not defaulted")
	}
	if cfg.Channels.Telegram.Enabled {
		t.Error("telegram enabled by default")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
  "provider": {"apiKey": "sk-file", "model": "gpt-4o", "baseUrl": "https://proxy.example/v1"},
  "diary": {
    "style": "melancholic",
    "minWordCount": 80,
    "maxWordCount": 120,
    "autoGenerateTime": "06:30",
    "autoSendTime": "07:00",
    "destinations": ["telegram:42"],
    "forwardThreshold": 300,
    "dataDir": "/tmp/dogdiary-test"
  },
  "channels": {"telegram": {"enabled": true, "token": "tg-token", "allowFrom": ["42"]}}
}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Provider.APIKey != "sk-file" || cfg.Provider.Model != "gpt-4o" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Provider.BaseURL != "https://proxy.example/v1" {
		t.Errorf("baseUrl = %q", cfg.Provider.BaseURL)
	}
	if cfg.Diary.Style != "melancholic" || cfg.Diary.MinWordCount != 80 || cfg.Diary.MaxWordCount != 120 {
		t.Errorf("diary = %+v", cfg.Diary)
	}
	if cfg.Diary.AutoGenerateTime != "06:30" || cfg.Diary.AutoSendTime != "07:00" {
		t.Errorf("times = %s / %s", cfg.Diary.AutoGenerateTime, cfg.Diary.AutoSendTime)
	}
	if len(cfg.Diary.Destinations) != 1 || cfg.Diary.Destinations[0] != "telegram:42" {
		t.Errorf("destinations = %v", cfg.Diary.Destinations)
	}
	if !cfg.Channels.Telegram.Enabled || cfg.Channels.Telegram.Token != "tg-token" {
		t.Errorf("telegram = %+v", cfg.Channels.Telegram)
	}
}

func TestLoadConfigRejectsCorruptFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFrom(path); err == nil {
		t.Error("corrupt config accepted")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOGDIARY_API_KEY", "sk-env")
	t.Setenv("DOGDIARY_MODEL", "gpt-4.1")
	t.Setenv("DOGDIARY_TELEGRAM_TOKEN", "tg-env")
	t.Setenv("DOGDIARY_DATA_DIR", "/tmp/env-data")
	t.Setenv("DOGDIARY_MIN_WORD_COUNT", "50")
	t.Setenv("DOGDIARY_MAX_WORD_COUNT", "90")
	t.Setenv("DOGDIARY_STYLE", "brooding")

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Provider.APIKey != "sk-env" || cfg.Provider.Model != "gpt-4.1" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Channels.Telegram.Token != "tg-env" {
		t.Errorf("token = %q", cfg.Channels.Telegram.Token)
	}
	if cfg.Diary.DataDir != "/tmp/env-data" {
		t.Errorf("dataDir = %q", cfg.Diary.DataDir)
	}
	if cfg.Diary.MinWordCount != 50 || cfg.Diary.MaxWordCount != 90 {
		t.Errorf("word counts = %d..%d", cfg.Diary.MinWordCount, cfg.Diary.MaxWordCount)
	}
	if cfg.Diary.Style != "brooding" {
		t.Errorf("style = %q", cfg.Diary.Style)
	}
}

func TestOpenAIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Provider.APIKey != "sk-openai" {
		t.Errorf("apiKey = %q, want OPENAI_API_KEY fallback", cfg.Provider.APIKey)
	}

	// The dedicated variable wins over the fallback.
	t.Setenv("DOGDIARY_API_KEY", "sk-dogdiary")
	cfg, err = LoadConfigFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Provider.APIKey != "sk-dogdiary" {
		t.Errorf("apiKey = %q, want dedicated variable to win", cfg.Provider.APIKey)
	}
}

func TestLoadConfigClampsInvalidValues(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
  "provider": {"maxTokens": -5},
  "diary": {"minWordCount": 0, "maxWordCount": -10, "forwardThreshold": 0, "style": ""}
}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Provider.MaxTokens != DefaultMaxTokens {
		t.Errorf("maxTokens = %d", cfg.Provider.MaxTokens)
	}
	if cfg.Diary.MinWordCount != DefaultMinWordCount || cfg.Diary.MaxWordCount != DefaultMaxWordCount {
		t.Errorf("word counts = %d..%d", cfg.Diary.MinWordCount, cfg.Diary.MaxWordCount)
	}
	if cfg.Diary.ForwardThreshold != DefaultForwardThreshold {
		t.Errorf("forwardThreshold = %d", cfg.Diary.ForwardThreshold)
	}
	if cfg.Diary.Style != DefaultStyle {
		t.Errorf("style = %q", cfg.Diary.Style)
	}
}
