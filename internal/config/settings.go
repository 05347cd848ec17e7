package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables
const (
	EnvConfigPath  = "SHIZUKU_CONFIG"
	EnvToken       = "BOT_TOKEN"
	EnvLogLevel    = "LOG_LEVEL"
	EnvDownloadDir = "DOWNLOAD_DIR"
	EnvAFKDatabase = "AFK_DATABASE"
	EnvLanguage    = "BOT_LANGUAGE"
)

// Default values
const (
	DefaultConfigPath    = "config.yaml"
	DefaultEnvFile       = "config.env"
	DefaultPollTimeout   = 10 * time.Second
	DefaultOutputDir     = "downloads"
	DefaultMaxSizeMB     = 50
	DefaultMaxParallel   = 2
	DefaultFetchRetries  = 1
	DefaultSessionTTL    = 15 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultLookupTimeout = 60 * time.Second
	DefaultFetchTimeout  = 30 * time.Minute
	DefaultAFKDatabase   = "afk.db"
	DefaultLogLevel      = "info"
	DefaultLanguage      = "en"
)

// Limits
const (
	MinParallel = 1
	MaxParallel = 10
)

// Required external tools
var RequiredTools = []string{"yt-dlp", "ffmpeg"}

var (
	// ErrMissingToken indicates that no bot token was configured
	ErrMissingToken = errors.New("telegram token not configured")

	// ErrUnknownLanguage indicates a language without a text catalog
	ErrUnknownLanguage = errors.New("unsupported language")
)

// Settings is the bot configuration
type Settings struct {
	Telegram struct {
		Token       string        `yaml:"token"`
		PollTimeout time.Duration `yaml:"poll_timeout"`
	} `yaml:"telegram"`

	Download struct {
		OutputDir     string        `yaml:"output_dir"`
		MaxSizeMB     int           `yaml:"max_size_mb"`
		CookiesFile   string        `yaml:"cookies_file"`
		MaxParallel   int           `yaml:"max_parallel"`
		Retries       *int          `yaml:"retries"`
		SessionTTL    time.Duration `yaml:"session_ttl"`
		SweepInterval time.Duration `yaml:"sweep_interval"`
		LookupTimeout time.Duration `yaml:"lookup_timeout"`
		FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	} `yaml:"download"`

	AFK struct {
		Database string `yaml:"database"`
	} `yaml:"afk"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Language string `yaml:"language"`
}

// ConfigPath returns the settings file path from the environment or the default
func ConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	return DefaultConfigPath
}

// Load reads envFile (if present) into the environment, then the YAML file at
// path (if present), applies environment overrides and defaults, and
// validates the result.
func Load(path, envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading %s: %w", envFile, err)
		}
	}

	s := &Settings{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("error parsing config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// environment-only configuration
	default:
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	s.applyEnv()
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&s.Telegram.Token, EnvToken)
	override(&s.Log.Level, EnvLogLevel)
	override(&s.Download.OutputDir, EnvDownloadDir)
	override(&s.AFK.Database, EnvAFKDatabase)
	override(&s.Language, EnvLanguage)
}

func (s *Settings) applyDefaults() {
	if s.Telegram.PollTimeout <= 0 {
		s.Telegram.PollTimeout = DefaultPollTimeout
	}
	if s.Download.OutputDir == "" {
		s.Download.OutputDir = DefaultOutputDir
	}
	if s.Download.MaxSizeMB <= 0 {
		s.Download.MaxSizeMB = DefaultMaxSizeMB
	}
	if s.Download.MaxParallel <= 0 {
		s.Download.MaxParallel = DefaultMaxParallel
	}
	s.Download.MaxParallel = clamp(s.Download.MaxParallel, MinParallel, MaxParallel)
	if s.Download.Retries == nil || *s.Download.Retries < 0 {
		retries := DefaultFetchRetries
		s.Download.Retries = &retries
	}
	if s.Download.SessionTTL <= 0 {
		s.Download.SessionTTL = DefaultSessionTTL
	}
	if s.Download.SweepInterval <= 0 {
		s.Download.SweepInterval = DefaultSweepInterval
	}
	if s.Download.LookupTimeout <= 0 {
		s.Download.LookupTimeout = DefaultLookupTimeout
	}
	if s.Download.FetchTimeout <= 0 {
		s.Download.FetchTimeout = DefaultFetchTimeout
	}
	if s.AFK.Database == "" {
		s.AFK.Database = DefaultAFKDatabase
	}
	if s.Log.Level == "" {
		s.Log.Level = DefaultLogLevel
	}
	if s.Language == "" || s.Language == "system" {
		s.Language = DefaultLanguage
	}
}

// Validate checks the settings that have no usable default
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Telegram.Token) == "" {
		return ErrMissingToken
	}
	if _, ok := s.GetLanguageOptions()[s.Language]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, s.Language)
	}
	return nil
}

// FetchRetries returns the configured number of fetch retries
func (s *Settings) FetchRetries() int {
	if s.Download.Retries == nil {
		return DefaultFetchRetries
	}
	return *s.Download.Retries
}

// GetLanguageOptions returns the languages with a text catalog
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
	}
}

// CheckDependencies verifies that the external tools are on PATH
func CheckDependencies() error {
	var missing []string
	for _, tool := range RequiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s not found, please install it first", strings.Join(missing, ", "))
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
