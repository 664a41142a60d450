package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Oracle.APIKey != "${OPENAI_API_KEY}" {
		t.Errorf("expected OpenAI API key placeholder, got %q", cfg.Oracle.APIKey)
	}
	if cfg.ExcludedLanguage != "DE" {
		t.Errorf("expected DE excluded, got %q", cfg.ExcludedLanguage)
	}
}

func TestDefaultEntries_MatchDefaultConfig(t *testing.T) {
	mgr, err := NewManager("", t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	got := mgr.Get()
	want := DefaultConfig()
	if *got != *want {
		t.Errorf("entries and DefaultConfig disagree:\n got  %+v\n want %+v", *got, *want)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_ToOracleConfig(t *testing.T) {
	t.Setenv("TEST_ORACLE_KEY", "sk-123")

	cfg := DefaultConfig()
	cfg.Oracle.APIKey = "${TEST_ORACLE_KEY}"
	cfg.Oracle.BaseURL = "http://localhost:8080/v1"

	oc := cfg.ToOracleConfig(nil)
	if oc.APIKey != "sk-123" {
		t.Errorf("expected resolved key, got %q", oc.APIKey)
	}
	if oc.BaseURL != "http://localhost:8080/v1" || oc.Model != "gpt-4o-mini" {
		t.Errorf("unexpected oracle config: %+v", oc)
	}
	if oc.Timeout != 60*time.Second || oc.MaxRetries != 2 || oc.RateLimit != 500 {
		t.Errorf("unexpected limits: %+v", oc)
	}
}

func TestConfig_ToS3Config(t *testing.T) {
	t.Setenv("TEST_S3_SECRET", "shh")

	cfg := DefaultConfig()
	cfg.S3 = S3Cfg{Bucket: "decisions", Region: "eu-west-3", AccessKey: "AKIA", SecretKey: "${TEST_S3_SECRET}"}

	sc := cfg.ToS3Config()
	if sc.Bucket != "decisions" || sc.Region != "eu-west-3" {
		t.Errorf("unexpected s3 config: %+v", sc)
	}
	if sc.SecretKey != "shh" {
		t.Errorf("expected resolved secret, got %q", sc.SecretKey)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no excluded language", func(c *Config) { c.ExcludedLanguage = "" }, ""},
		{"unknown excluded language", func(c *Config) { c.ExcludedLanguage = "EN" }, "ExcludedLanguage"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }, "OutputDir"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "Workers"},
		{"zero batch size", func(c *Config) { c.Oracle.BatchSize = 0 }, "BatchSize"},
		{"zero concurrency", func(c *Config) { c.Oracle.MaxConcurrent = 0 }, "MaxConcurrent"},
		{"too many retries", func(c *Config) { c.Oracle.MaxRetries = 50 }, "MaxRetries"},
		{"bucket without region", func(c *Config) { c.S3 = S3Cfg{Bucket: "b"} }, "Region"},
		{"access key without secret", func(c *Config) { c.S3.AccessKey = "AKIA" }, "SecretKey"},
		{"zero upload batch", func(c *Config) { c.Upload.BatchSize = 0 }, "Upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"oracle.batch_size", false},
		{"s3.access_key", false},
		{"log-level", false},
		{"", true},
		{".oracle", true},
		{"oracle.", true},
		{"oracle batch", true},
		{"oracle/model", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestLookupDefault(t *testing.T) {
	entry, err := LookupDefault("oracle.batch_size")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Value != 10 {
		t.Errorf("expected 10, got %v", entry.Value)
	}

	if _, err := LookupDefault("oracle.unknown"); !errors.Is(err, ErrNoDefault) {
		t.Errorf("expected ErrNoDefault, got %v", err)
	}
	if _, err := LookupDefault("bad key"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
input_dir: /data/raw
excluded_language: nl
oracle:
  batch_size: 25
  timeout: 30s
s3:
  bucket: decisions
`)

		mgr, err := NewManager(configFile, "", nil)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.InputDir != "/data/raw" {
			t.Errorf("expected /data/raw, got %s", cfg.InputDir)
		}
		if cfg.ExcludedLanguage != "NL" {
			t.Errorf("expected excluded language normalized to NL, got %s", cfg.ExcludedLanguage)
		}
		if cfg.Oracle.BatchSize != 25 {
			t.Errorf("expected batch size 25, got %d", cfg.Oracle.BatchSize)
		}
		if cfg.Oracle.Timeout != 30*time.Second {
			t.Errorf("expected 30s timeout, got %s", cfg.Oracle.Timeout)
		}
		// Unset keys keep their defaults
		if cfg.Oracle.MaxConcurrent != 5 || cfg.S3.Region != "eu-west-1" {
			t.Errorf("defaults not applied: %+v", cfg)
		}
		if mgr.ConfigFile() != configFile {
			t.Errorf("expected config file %s, got %s", configFile, mgr.ConfigFile())
		}
	})

	t.Run("finds config in home dir", func(t *testing.T) {
		homeDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(homeDir, "config.yaml"), []byte("output_dir: /srv/records\n"), 0644); err != nil {
			t.Fatal(err)
		}

		mgr, err := NewManager("", homeDir, nil)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().OutputDir; got != "/srv/records" {
			t.Errorf("expected /srv/records, got %s", got)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		configFile := writeConfig(t, "oracle:\n  model: gpt-4o\n")
		t.Setenv("JURIS_ORACLE_MODEL", "gpt-4.1-mini")
		t.Setenv("JURIS_WORKERS", "3")

		mgr, err := NewManager(configFile, "", nil)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.Oracle.Model != "gpt-4.1-mini" {
			t.Errorf("expected env model, got %s", cfg.Oracle.Model)
		}
		if cfg.Workers != 3 {
			t.Errorf("expected 3 workers, got %d", cfg.Workers)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		configFile := writeConfig(t, "log_level: chatty\n")
		if _, err := NewManager(configFile, "", nil); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("rejects unreadable config", func(t *testing.T) {
		configFile := writeConfig(t, "input_dir: [unterminated\n")
		if _, err := NewManager(configFile, "", nil); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "workers: 2\n"), "", nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "workers: 2\n"), "", nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().Workers
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "oracle:\n  batch_size: 10\n")

	mgr, err := NewManager(configFile, "", nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Int64

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(int64(cfg.Oracle.BatchSize))
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("oracle:\n  batch_size: 20\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 && lastValue.Load() == 20 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Oracle.BatchSize; got != 20 {
		t.Errorf("config not updated: expected 20, got %d", got)
	}
	if v := lastValue.Load(); v != 20 {
		t.Errorf("callback received wrong value: expected 20, got %d", v)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Juris configuration") {
		t.Error("expected comment header")
	}
	if !strings.Contains(string(data), "${OPENAI_API_KEY}") {
		t.Error("expected unresolved API key placeholder")
	}

	// The written file round-trips through the manager.
	mgr, err := NewManager(path, "", nil)
	if err != nil {
		t.Fatalf("failed to load written config: %v", err)
	}
	if *mgr.Get() != *DefaultConfig() {
		t.Errorf("written defaults differ: %+v", *mgr.Get())
	}
}
