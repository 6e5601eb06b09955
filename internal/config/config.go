// Package config loads tooltip-ocr settings from the environment.
//
// Values come from TOOLTIP_OCR_* environment variables. A .env file in the
// working directory, or the file named by TOOLTIP_OCR_ENV, is loaded first;
// variables already set in the environment win over the file. Command-line
// flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvFileVar        = "TOOLTIP_OCR_ENV"
	LogLevelVar       = "TOOLTIP_OCR_LOG_LEVEL"
	LanguageVar       = "TOOLTIP_OCR_LANGUAGE"
	TessdataVar       = "TOOLTIP_OCR_TESSDATA"
	ScaleVar          = "TOOLTIP_OCR_SCALE"
	SplitPolicyVar    = "TOOLTIP_OCR_SPLIT_POLICY"
	MergeLinesVar     = "TOOLTIP_OCR_MERGE_LINES"
	MergeThresholdVar = "TOOLTIP_OCR_MERGE_THRESHOLD"
	MinConfidenceVar  = "TOOLTIP_OCR_MIN_CONFIDENCE"
	KeepBareDigitsVar = "TOOLTIP_OCR_KEEP_BARE_DIGITS"
	RulesFileVar      = "TOOLTIP_OCR_RULES_FILE"
)

// Config holds every tunable of the pipeline.
type Config struct {
	LogLevel string

	// Tesseract
	Language       string
	TessdataPrefix string

	// OCR adapter
	Scale          int
	MergeLines     bool
	MergeThreshold int

	// Classifier
	SplitPolicy    string
	MinConfidence  float64
	KeepBareDigits bool
	RulesFile      string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		Language:       "eng",
		Scale:          2,
		MergeThreshold: 15,
		SplitPolicy:    "auto",
		MinConfidence:  0.3,
	}
}

// LoadOptions controls where Load looks for a .env file.
type LoadOptions struct {
	// EnvFile is loaded instead of the default locations when set.
	EnvFile string
}

// Load reads the configuration using the default .env locations.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions reads the configuration. A missing .env file is not an
// error; a malformed value is.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	if envPath := resolveEnvPath(opts); envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	cfg := Default()
	cfg.LogLevel = getEnvWithDefault(LogLevelVar, cfg.LogLevel)
	cfg.Language = getEnvWithDefault(LanguageVar, cfg.Language)
	cfg.TessdataPrefix = os.Getenv(TessdataVar)
	cfg.SplitPolicy = strings.ToLower(getEnvWithDefault(SplitPolicyVar, cfg.SplitPolicy))
	cfg.RulesFile = os.Getenv(RulesFileVar)

	var err error
	if cfg.Scale, err = getEnvInt(ScaleVar, cfg.Scale); err != nil {
		return nil, err
	}
	if cfg.MergeThreshold, err = getEnvInt(MergeThresholdVar, cfg.MergeThreshold); err != nil {
		return nil, err
	}
	if cfg.MergeLines, err = getEnvBool(MergeLinesVar, cfg.MergeLines); err != nil {
		return nil, err
	}
	if cfg.KeepBareDigits, err = getEnvBool(KeepBareDigitsVar, cfg.KeepBareDigits); err != nil {
		return nil, err
	}
	if cfg.MinConfidence, err = getEnvFloat(MinConfidenceVar, cfg.MinConfidence); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Split policy names are checked by the
// classifier.
func (c *Config) Validate() error {
	if c.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", c.Scale)
	}
	if c.MergeThreshold < 1 {
		return fmt.Errorf("merge threshold must be positive, got %d", c.MergeThreshold)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0,1], got %g", c.MinConfidence)
	}
	return nil
}

func resolveEnvPath(opts LoadOptions) string {
	if opts.EnvFile != "" {
		return opts.EnvFile
	}
	if alt := os.Getenv(EnvFileVar); alt != "" {
		return alt
	}
	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}
	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
