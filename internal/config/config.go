// Package config resolves run settings from three layers: built-in defaults,
// an optional tabtran.yaml file, and environment variables. Command-line
// flags override all three in cmd.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/valpere/tabtran/internal/apperrors"
)

// Azure holds Azure Translator credentials.
type Azure struct {
	Endpoint string
	Key      string
	Region   string
}

// Google holds Google Cloud Translation credentials.
type Google struct {
	// Credentials is a service-account JSON path; empty means application
	// default credentials.
	Credentials string
}

// Config is the fully resolved configuration for a run.
type Config struct {
	Provider   string
	SourceLang string
	TargetLang string

	BatchSize       int
	MaxBatchChars   int
	RequestInterval time.Duration
	MaxRetries      int
	BackoffBase     time.Duration
	BackoffMax      time.Duration

	// PlaceholderPattern overrides the built-in protected-token regexp.
	PlaceholderPattern string
	// StrictPassthrough rejects translations returned verbatim in a
	// foreign language.
	StrictPassthrough bool
	Overwrite         bool

	// InputDir is where the dir command looks for .tsv files.
	InputDir string
	// DBPath is the run-history database location. Empty disables history.
	DBPath string

	Azure  Azure
	Google Google
}

// Load reads configuration. cfgFile, when non-empty, names an explicit config
// file; otherwise tabtran.yaml is searched in the working directory and
// ~/.config/tabtran. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("provider", "azure")
	v.SetDefault("source_lang", "auto")
	v.SetDefault("target_lang", "")
	v.SetDefault("batch_size", 50)
	v.SetDefault("max_batch_chars", 9000)
	v.SetDefault("request_interval", "1s")
	v.SetDefault("max_retries", 12)
	v.SetDefault("backoff_base", "1s")
	v.SetDefault("backoff_max", "15s")
	v.SetDefault("placeholder_pattern", "")
	v.SetDefault("strict_passthrough", false)
	v.SetDefault("overwrite", false)
	v.SetDefault("input_dir", "./loc")
	v.SetDefault("db", "./data/tabtran.db")
	v.SetDefault("azure.endpoint", "")
	v.SetDefault("azure.key", "")
	v.SetDefault("azure.region", "")
	v.SetDefault("google.credentials", "")

	// Environment names kept compatible with the shell scripts that drive
	// the tool in CI.
	v.BindEnv("azure.key", "AZURE_TRANSLATOR_KEY")
	v.BindEnv("azure.region", "AZURE_TRANSLATOR_REGION")
	v.BindEnv("azure.endpoint", "AZURE_TRANSLATOR_ENDPOINT")
	v.BindEnv("google.credentials", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("batch_size", "TRANSLATE_BATCH_SIZE")
	v.BindEnv("request_interval", "TRANSLATE_SLEEP")
	v.BindEnv("max_retries", "TRANSLATE_MAX_RETRIES")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("tabtran")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tabtran")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, apperrors.New(apperrors.KindConfig,
				fmt.Sprintf("failed to read config: %v", err), err)
		}
	}

	cfg := &Config{
		Provider:           v.GetString("provider"),
		SourceLang:         v.GetString("source_lang"),
		TargetLang:         v.GetString("target_lang"),
		BatchSize:          v.GetInt("batch_size"),
		MaxBatchChars:      v.GetInt("max_batch_chars"),
		RequestInterval:    parseInterval(v.GetString("request_interval"), time.Second),
		MaxRetries:         v.GetInt("max_retries"),
		BackoffBase:        parseInterval(v.GetString("backoff_base"), time.Second),
		BackoffMax:         parseInterval(v.GetString("backoff_max"), 15*time.Second),
		PlaceholderPattern: v.GetString("placeholder_pattern"),
		StrictPassthrough:  v.GetBool("strict_passthrough"),
		Overwrite:          v.GetBool("overwrite"),
		InputDir:           v.GetString("input_dir"),
		DBPath:             v.GetString("db"),
		Azure: Azure{
			Endpoint: v.GetString("azure.endpoint"),
			Key:      v.GetString("azure.key"),
			Region:   v.GetString("azure.region"),
		},
		Google: Google{
			Credentials: v.GetString("google.credentials"),
		},
	}
	return cfg, nil
}

// Validate checks settings that would otherwise only fail mid-run.
func (c *Config) Validate() error {
	switch c.Provider {
	case "azure", "google":
	default:
		return apperrors.Config(fmt.Sprintf("unknown provider %q (want azure or google)", c.Provider))
	}
	if c.TargetLang == "" {
		return apperrors.Config("target language is required")
	}
	if _, err := language.Parse(c.TargetLang); err != nil {
		return apperrors.Config(fmt.Sprintf("invalid target language %q", c.TargetLang))
	}
	if c.SourceLang != "" && c.SourceLang != "auto" {
		if _, err := language.Parse(c.SourceLang); err != nil {
			return apperrors.Config(fmt.Sprintf("invalid source language %q", c.SourceLang))
		}
	}
	if c.BatchSize <= 0 {
		return apperrors.Config("batch size must be positive")
	}
	if c.MaxRetries <= 0 {
		return apperrors.Config("max retries must be positive")
	}
	return nil
}

// parseInterval accepts either a Go duration ("1.5s") or a bare number of
// seconds ("2"), the format the older shell tooling exported.
func parseInterval(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
