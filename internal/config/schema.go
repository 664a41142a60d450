package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config is the root configuration structure.
type Config struct {
	InputDir         string `mapstructure:"input_dir" yaml:"input_dir"`
	OutputDir        string `mapstructure:"output_dir" yaml:"output_dir"`
	MappingFile      string `mapstructure:"mapping_file" yaml:"mapping_file"`
	ExcludedLanguage string `mapstructure:"excluded_language" yaml:"excluded_language"`
	Workers          int    `mapstructure:"workers" yaml:"workers"`
	LogLevel         string `mapstructure:"log_level" yaml:"log_level"`

	Oracle OracleCfg `mapstructure:"oracle" yaml:"oracle"`
	S3     S3Cfg     `mapstructure:"s3" yaml:"s3"`
	Upload UploadCfg `mapstructure:"upload" yaml:"upload"`
}

// OracleCfg configures the LLM used for batch escalation and date fallback.
type OracleCfg struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	Model         string        `mapstructure:"model" yaml:"model"`
	BatchSize     int           `mapstructure:"batch_size" yaml:"batch_size"`
	MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries" yaml:"max_retries"`
	RateLimit     int           `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	DateFallback  bool          `mapstructure:"date_fallback" yaml:"date_fallback"`
}

// S3Cfg locates the remote corpus bucket.
type S3Cfg struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"` // S3-compatible services
}

// UploadCfg controls archive packaging for upload.
type UploadCfg struct {
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.InputDir, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.ExcludedLanguage, validation.In("FR", "NL", "DE")),
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Oracle),
		validation.Field(&c.S3),
		validation.Field(&c.Upload),
	)
}

// Validate checks the oracle settings. Credentials are checked when the
// client is built so a keyless config still runs phase 1.
func (o OracleCfg) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&o.MaxConcurrent, validation.Required, validation.Min(1)),
		validation.Field(&o.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&o.MaxRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&o.RateLimit, validation.Min(0)),
	)
}

// Validate checks the bucket settings. An empty bucket disables sync and upload.
func (s S3Cfg) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Region, validation.When(s.Bucket != "", validation.Required)),
		validation.Field(&s.SecretKey, validation.When(s.AccessKey != "", validation.Required)),
	)
}

// Validate checks the upload settings.
func (u UploadCfg) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.BatchSize, validation.Required, validation.Min(1)),
	)
}
