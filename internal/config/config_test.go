package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/tabtran/internal/apperrors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("expected error for an explicit missing config file")
	}

	// No explicit file: defaults apply. Run from an empty dir so a stray
	// tabtran.yaml in the repo can't leak in.
	t.Chdir(t.TempDir())
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "azure" {
		t.Errorf("provider default: %q", cfg.Provider)
	}
	if cfg.BatchSize != 50 || cfg.MaxBatchChars != 9000 {
		t.Errorf("batch defaults: %d/%d", cfg.BatchSize, cfg.MaxBatchChars)
	}
	if cfg.RequestInterval != time.Second {
		t.Errorf("interval default: %s", cfg.RequestInterval)
	}
	if cfg.MaxRetries != 12 {
		t.Errorf("retries default: %d", cfg.MaxRetries)
	}
	if cfg.InputDir != "./loc" {
		t.Errorf("input dir default: %q", cfg.InputDir)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tabtran.yaml")
	content := `
provider: google
target_lang: uk
batch_size: 25
request_interval: 250ms
azure:
  region: westeurope
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "google" || cfg.TargetLang != "uk" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.BatchSize != 25 {
		t.Errorf("batch_size: %d", cfg.BatchSize)
	}
	if cfg.RequestInterval != 250*time.Millisecond {
		t.Errorf("request_interval: %s", cfg.RequestInterval)
	}
	if cfg.Azure.Region != "westeurope" {
		t.Errorf("azure.region: %q", cfg.Azure.Region)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AZURE_TRANSLATOR_KEY", "secret")
	t.Setenv("AZURE_TRANSLATOR_REGION", "eastus")
	t.Setenv("TRANSLATE_BATCH_SIZE", "5")
	t.Setenv("TRANSLATE_SLEEP", "2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Azure.Key != "secret" || cfg.Azure.Region != "eastus" {
		t.Errorf("azure env not applied: %+v", cfg.Azure)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("TRANSLATE_BATCH_SIZE not applied: %d", cfg.BatchSize)
	}
	// Bare numbers are seconds.
	if cfg.RequestInterval != 2*time.Second {
		t.Errorf("TRANSLATE_SLEEP not applied: %s", cfg.RequestInterval)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Provider:   "azure",
			SourceLang: "en",
			TargetLang: "uk",
			BatchSize:  50,
			MaxRetries: 12,
		}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "deepl" }},
		{"missing target", func(c *Config) { c.TargetLang = "" }},
		{"bad target", func(c *Config) { c.TargetLang = "!!" }},
		{"bad source", func(c *Config) { c.SourceLang = "???" }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			kind, ok := apperrors.KindOf(err)
			if !ok || kind != apperrors.KindConfig {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestValidate_AutoSourceAccepted(t *testing.T) {
	cfg := &Config{Provider: "azure", SourceLang: "auto", TargetLang: "uk", BatchSize: 1, MaxRetries: 1}
	if err := cfg.Validate(); err != nil {
		t.Errorf("auto source rejected: %v", err)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Second},
		{"500ms", 500 * time.Millisecond},
		{"2", 2 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"garbage", time.Second},
	}
	for _, tt := range tests {
		if got := parseInterval(tt.in, time.Second); got != tt.want {
			t.Errorf("parseInterval(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
