package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvToken, EnvLogLevel, EnvDownloadDir, EnvAFKDatabase, EnvLanguage, EnvConfigPath} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "telegram:\n  token: \"123:abc\"\n")

	s, err := Load(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"token", s.Telegram.Token, "123:abc"},
		{"poll timeout", s.Telegram.PollTimeout, DefaultPollTimeout},
		{"output dir", s.Download.OutputDir, DefaultOutputDir},
		{"max size", s.Download.MaxSizeMB, DefaultMaxSizeMB},
		{"max parallel", s.Download.MaxParallel, DefaultMaxParallel},
		{"retries", s.FetchRetries(), DefaultFetchRetries},
		{"session ttl", s.Download.SessionTTL, DefaultSessionTTL},
		{"sweep interval", s.Download.SweepInterval, DefaultSweepInterval},
		{"lookup timeout", s.Download.LookupTimeout, DefaultLookupTimeout},
		{"fetch timeout", s.Download.FetchTimeout, DefaultFetchTimeout},
		{"afk database", s.AFK.Database, DefaultAFKDatabase},
		{"log level", s.Log.Level, DefaultLogLevel},
		{"language", s.Language, DefaultLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  poll_timeout: 30s
download:
  output_dir: /var/lib/shizuku
  max_size_mb: 2000
  cookies_file: cookies.txt
  max_parallel: 4
  retries: 0
  session_ttl: 5m
  lookup_timeout: 20s
afk:
  database: /var/lib/shizuku/afk.db
log:
  level: debug
language: ru
`)

	s, err := Load(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Telegram.PollTimeout != 30*time.Second {
		t.Errorf("expected poll timeout 30s, got %v", s.Telegram.PollTimeout)
	}
	if s.Download.OutputDir != "/var/lib/shizuku" {
		t.Errorf("expected output dir /var/lib/shizuku, got %s", s.Download.OutputDir)
	}
	if s.Download.MaxSizeMB != 2000 {
		t.Errorf("expected max size 2000, got %d", s.Download.MaxSizeMB)
	}
	if s.Download.CookiesFile != "cookies.txt" {
		t.Errorf("expected cookies file, got %q", s.Download.CookiesFile)
	}
	if s.Download.MaxParallel != 4 {
		t.Errorf("expected max parallel 4, got %d", s.Download.MaxParallel)
	}
	if s.FetchRetries() != 0 {
		t.Errorf("expected explicit zero retries, got %d", s.FetchRetries())
	}
	if s.Download.SessionTTL != 5*time.Minute {
		t.Errorf("expected session ttl 5m, got %v", s.Download.SessionTTL)
	}
	if s.Download.LookupTimeout != 20*time.Second {
		t.Errorf("expected lookup timeout 20s, got %v", s.Download.LookupTimeout)
	}
	if s.AFK.Database != "/var/lib/shizuku/afk.db" {
		t.Errorf("unexpected afk database %s", s.AFK.Database)
	}
	if s.Log.Level != "debug" || s.Language != "ru" {
		t.Errorf("unexpected log level %s or language %s", s.Log.Level, s.Language)
	}
}

func TestLoad_MaxParallelClamped(t *testing.T) {
	tests := []struct {
		name     string
		value    int
		expected int
	}{
		{"unset uses default", 0, DefaultMaxParallel},
		{"negative uses default", -4, DefaultMaxParallel},
		{"within range", 7, 7},
		{"above maximum", 50, MaxParallel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := writeConfig(t, fmt.Sprintf("telegram:\n  token: t\ndownload:\n  max_parallel: %d\n", tt.value))

			s, err := Load(path, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Download.MaxParallel != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, s.Download.MaxParallel)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "telegram:\n  token: from-file\nlog:\n  level: warn\n")

	t.Setenv(EnvToken, "from-env")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDownloadDir, "/tmp/dl")
	t.Setenv(EnvAFKDatabase, ":memory:")
	t.Setenv(EnvLanguage, "ru")

	s, err := Load(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Telegram.Token != "from-env" {
		t.Errorf("expected env token, got %s", s.Telegram.Token)
	}
	if s.Log.Level != "debug" {
		t.Errorf("expected env log level, got %s", s.Log.Level)
	}
	if s.Download.OutputDir != "/tmp/dl" {
		t.Errorf("expected env output dir, got %s", s.Download.OutputDir)
	}
	if s.AFK.Database != ":memory:" {
		t.Errorf("expected env database, got %s", s.AFK.Database)
	}
	if s.Language != "ru" {
		t.Errorf("expected env language, got %s", s.Language)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvToken)
	envFile := filepath.Join(t.TempDir(), "config.env")
	if err := os.WriteFile(envFile, []byte("BOT_TOKEN=from-env-file\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Telegram.Token != "from-env-file" {
		t.Errorf("expected token from env file, got %q", s.Telegram.Token)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	t.Run("missing token", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log:\n  level: info\n"), "")
		if !errors.Is(err, ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "telegram: [token"), "")
		if err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("missing env file is ignored", func(t *testing.T) {
		_, err := Load(writeConfig(t, "telegram:\n  token: t\n"), filepath.Join(t.TempDir(), "none.env"))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if got := ConfigPath(); got != DefaultConfigPath {
		t.Errorf("expected %s, got %s", DefaultConfigPath, got)
	}

	t.Setenv(EnvConfigPath, "/etc/shizuku.yaml")
	if got := ConfigPath(); got != "/etc/shizuku.yaml" {
		t.Errorf("expected /etc/shizuku.yaml, got %s", got)
	}
}

func TestGetLanguageOptions(t *testing.T) {
	s := &Settings{}
	options := s.GetLanguageOptions()

	for _, lang := range []string{"en", "ru"} {
		if _, ok := options[lang]; !ok {
			t.Errorf("expected language %s to be offered", lang)
		}
	}
}

func TestLoad_UnknownLanguage(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "telegram:\n  token: \"123:abc\"\nlanguage: de\n")

	_, err := Load(path, "")
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("expected ErrUnknownLanguage, got %v", err)
	}
}
