package config

import (
	"errors"
	"fmt"
	"time"
	"unicode"
)

var (
	// ErrNoDefault is returned when no default value exists for a config key.
	ErrNoDefault = errors.New("no default exists")
	// ErrInvalidKey is returned when a config key contains invalid characters.
	ErrInvalidKey = errors.New("invalid config key")
)

// Entry is a single configuration key with its default value.
type Entry struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// DefaultEntries returns the default configuration entries.
// These are registered as viper defaults so every key is visible to
// environment overrides.
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// Corpus
		// ===================
		{
			Key:         "input_dir",
			Value:       "raw_jsons",
			Description: "Directory holding raw Juportal documents",
		},
		{
			Key:         "output_dir",
			Value:       "output",
			Description: "Directory receiving canonical records and reports",
		},
		{
			Key:         "mapping_file",
			Value:       "",
			Description: "Label alias table (.yaml or .csv); empty uses the built-in table",
		},
		{
			Key:         "excluded_language",
			Value:       "DE",
			Description: "Language removed by the strip pass; empty disables it",
		},
		{
			Key:         "workers",
			Value:       0,
			Description: "Transform workers (0 uses one per CPU)",
		},
		{
			Key:         "log_level",
			Value:       "info",
			Description: "Log level: debug, info, warn or error",
		},

		// ===================
		// Oracle
		// ===================
		{
			Key:         "oracle.enabled",
			Value:       true,
			Description: "Whether batch escalation and date fallback may call the LLM",
		},
		{
			Key:         "oracle.api_key",
			Value:       "${OPENAI_API_KEY}",
			Description: "OpenAI API key (uses environment variable)",
		},
		{
			Key:         "oracle.base_url",
			Value:       "",
			Description: "Override for OpenAI-compatible endpoints",
		},
		{
			Key:         "oracle.model",
			Value:       "gpt-4o-mini",
			Description: "Chat completion model",
		},
		{
			Key:         "oracle.batch_size",
			Value:       10,
			Description: "Documents per batch validation request",
		},
		{
			Key:         "oracle.max_concurrent",
			Value:       5,
			Description: "Concurrent in-flight batch requests",
		},
		{
			Key:         "oracle.timeout",
			Value:       "60s",
			Description: "Per-call timeout",
		},
		{
			Key:         "oracle.max_retries",
			Value:       2,
			Description: "Retry attempts after a failed call",
		},
		{
			Key:         "oracle.rate_limit",
			Value:       500,
			Description: "Rate limit in requests per minute",
		},
		{
			Key:         "oracle.date_fallback",
			Value:       true,
			Description: "Ask the LLM for a decision date when patterns fail",
		},

		// ===================
		// S3
		// ===================
		{
			Key:         "s3.bucket",
			Value:       "",
			Description: "Bucket for sync and upload; empty disables both",
		},
		{
			Key:         "s3.region",
			Value:       "eu-west-1",
			Description: "Bucket region",
		},
		{
			Key:         "s3.prefix",
			Value:       "",
			Description: "Key prefix inside the bucket",
		},
		{
			Key:         "s3.access_key",
			Value:       "",
			Description: "Static access key; empty uses the default credential chain",
		},
		{
			Key:         "s3.secret_key",
			Value:       "",
			Description: "Static secret key",
		},
		{
			Key:         "s3.endpoint",
			Value:       "",
			Description: "Custom endpoint for S3-compatible services",
		},
		{
			Key:         "upload.batch_size",
			Value:       10000,
			Description: "Records per uploaded zip archive",
		},
	}
}

// DefaultConfig returns the configuration built from DefaultEntries.
func DefaultConfig() *Config {
	return &Config{
		InputDir:         "raw_jsons",
		OutputDir:        "output",
		ExcludedLanguage: "DE",
		LogLevel:         "info",
		Oracle: OracleCfg{
			Enabled:       true,
			APIKey:        "${OPENAI_API_KEY}",
			Model:         "gpt-4o-mini",
			BatchSize:     10,
			MaxConcurrent: 5,
			Timeout:       60 * time.Second,
			MaxRetries:    2,
			RateLimit:     500,
			DateFallback:  true,
		},
		S3: S3Cfg{
			Region: "eu-west-1",
		},
		Upload: UploadCfg{
			BatchSize: 10000,
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// LookupDefault is GetDefault with key validation and an error for unknown keys.
func LookupDefault(key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	def := GetDefault(key)
	if def == nil {
		return nil, fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return def, nil
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
