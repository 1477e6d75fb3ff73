package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"chunkgate/internal/errors"
	"chunkgate/internal/paths"
)

// CurrentVersion is the config schema version this build understands.
const CurrentVersion = 1

// Config represents the complete chunkgate configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version" yaml:"version" toml:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot" yaml:"repoRoot" toml:"repoRoot"`

	Chunking   ChunkingConfig   `json:"chunking" mapstructure:"chunking" yaml:"chunking" toml:"chunking"`
	Validation ValidationConfig `json:"validation" mapstructure:"validation" yaml:"validation" toml:"validation"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging" yaml:"logging" toml:"logging"`
	Cache      CacheConfig      `json:"cache" mapstructure:"cache" yaml:"cache" toml:"cache"`
}

// ChunkingConfig controls how files are decomposed for the rewrite step.
type ChunkingConfig struct {
	// Strategy is "structural" (type/member boundaries when a parser is
	// available) or "lines" (always window by lines).
	Strategy       string `json:"strategy" mapstructure:"strategy" yaml:"strategy" toml:"strategy"`
	WholeMaxBytes  int    `json:"wholeMaxBytes" mapstructure:"wholeMaxBytes" yaml:"wholeMaxBytes" toml:"wholeMaxBytes"`
	TypeMaxBytes   int    `json:"typeMaxBytes" mapstructure:"typeMaxBytes" yaml:"typeMaxBytes" toml:"typeMaxBytes"`
	MaxChunkTokens int    `json:"maxChunkTokens" mapstructure:"maxChunkTokens" yaml:"maxChunkTokens" toml:"maxChunkTokens"`
	CharsPerToken  int    `json:"charsPerToken" mapstructure:"charsPerToken" yaml:"charsPerToken" toml:"charsPerToken"`
	ContextLines   int    `json:"contextLines" mapstructure:"contextLines" yaml:"contextLines" toml:"contextLines"`
	MaxSnapLines   int    `json:"maxSnapLines" mapstructure:"maxSnapLines" yaml:"maxSnapLines" toml:"maxSnapLines"`
}

// ValidationConfig configures the three validation stages.
type ValidationConfig struct {
	Syntax SyntaxConfig `json:"syntax" mapstructure:"syntax" yaml:"syntax" toml:"syntax"`
	Build  StageConfig  `json:"build" mapstructure:"build" yaml:"build" toml:"build"`
	Test   TestConfig   `json:"test" mapstructure:"test" yaml:"test" toml:"test"`
}

// SyntaxConfig configures the in-memory syntax stage.
type SyntaxConfig struct {
	// RequireParser turns a missing parser into ToolUnavailable instead of
	// an unchecked pass.
	RequireParser bool `json:"requireParser" mapstructure:"requireParser" yaml:"requireParser" toml:"requireParser"`
}

// StageConfig configures a subprocess-backed stage.
type StageConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	Command    string `json:"command" mapstructure:"command" yaml:"command" toml:"command"`
	TimeoutSec int    `json:"timeoutSec" mapstructure:"timeoutSec" yaml:"timeoutSec" toml:"timeoutSec"`
}

// TestConfig configures the test stage.
type TestConfig struct {
	StageConfig `mapstructure:",squash" yaml:",inline"`
	// SelectArg is appended to Command when related tests are found;
	// {tests} is replaced with a comma-separated list of test class names.
	SelectArg string   `json:"selectArg" mapstructure:"selectArg" yaml:"selectArg" toml:"selectArg"`
	TestRoots []string `json:"testRoots" mapstructure:"testRoots" yaml:"testRoots" toml:"testRoots"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level" yaml:"level" toml:"level"`
	File       string `json:"file" mapstructure:"file" yaml:"file" toml:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize" yaml:"maxSize" toml:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups" yaml:"maxBackups" toml:"maxBackups"`
}

// CacheConfig sizes the structural parse cache.
type CacheConfig struct {
	ParseEntries int `json:"parseEntries" mapstructure:"parseEntries" yaml:"parseEntries" toml:"parseEntries"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		RepoRoot: ".",
		Chunking: ChunkingConfig{
			Strategy:       "structural",
			WholeMaxBytes:  50000,
			TypeMaxBytes:   200000,
			MaxChunkTokens: 50000,
			CharsPerToken:  4,
			ContextLines:   20,
			MaxSnapLines:   200,
		},
		Validation: ValidationConfig{
			Build: StageConfig{
				Enabled:    true,
				Command:    "mvn compile -q",
				TimeoutSec: 300,
			},
			Test: TestConfig{
				StageConfig: StageConfig{
					Enabled:    true,
					Command:    "mvn test -q",
					TimeoutSec: 600,
				},
				SelectArg: "-Dtest={tests}",
				TestRoots: []string{"src/test/java", "app/src/test/java"},
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxBackups: 3,
		},
		Cache: CacheConfig{
			ParseEntries: 64,
		},
	}
}

// LoadConfig loads configuration from <repoRoot>/.chunkgate/config.{json,yaml,toml}.
// CHUNKGATE_* environment variables override file values, e.g.
// CHUNKGATE_VALIDATION_BUILD_ENABLED=false.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.Set("repoRoot", repoRoot)

	v.SetConfigName("config")
	v.AddConfigPath(paths.StateDir(repoRoot))
	v.SetEnvPrefix("CHUNKGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New(errors.ConfigInvalid, "reading config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "decoding config", err)
	}
	cfg.RepoRoot = repoRoot

	return &cfg, nil
}

// setDefaults registers every default so AutomaticEnv can see the keys.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("chunking.strategy", d.Chunking.Strategy)
	v.SetDefault("chunking.wholeMaxBytes", d.Chunking.WholeMaxBytes)
	v.SetDefault("chunking.typeMaxBytes", d.Chunking.TypeMaxBytes)
	v.SetDefault("chunking.maxChunkTokens", d.Chunking.MaxChunkTokens)
	v.SetDefault("chunking.charsPerToken", d.Chunking.CharsPerToken)
	v.SetDefault("chunking.contextLines", d.Chunking.ContextLines)
	v.SetDefault("chunking.maxSnapLines", d.Chunking.MaxSnapLines)

	v.SetDefault("validation.syntax.requireParser", d.Validation.Syntax.RequireParser)
	v.SetDefault("validation.build.enabled", d.Validation.Build.Enabled)
	v.SetDefault("validation.build.command", d.Validation.Build.Command)
	v.SetDefault("validation.build.timeoutSec", d.Validation.Build.TimeoutSec)
	v.SetDefault("validation.test.enabled", d.Validation.Test.Enabled)
	v.SetDefault("validation.test.command", d.Validation.Test.Command)
	v.SetDefault("validation.test.timeoutSec", d.Validation.Test.TimeoutSec)
	v.SetDefault("validation.test.selectArg", d.Validation.Test.SelectArg)
	v.SetDefault("validation.test.testRoots", d.Validation.Test.TestRoots)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)

	v.SetDefault("cache.parseEntries", d.Cache.ParseEntries)
}

// Save writes the configuration to .chunkgate/config.json
func (c *Config) Save(repoRoot string) error {
	dir, err := paths.EnsureStateDir(repoRoot)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return invalid("version", "unsupported config version")
	}

	ch := c.Chunking
	switch ch.Strategy {
	case "structural", "lines":
	default:
		return invalid("chunking.strategy", "must be \"structural\" or \"lines\"")
	}
	if ch.WholeMaxBytes <= 0 {
		return invalid("chunking.wholeMaxBytes", "must be positive")
	}
	if ch.TypeMaxBytes < ch.WholeMaxBytes {
		return invalid("chunking.typeMaxBytes", "must be >= wholeMaxBytes")
	}
	if ch.MaxChunkTokens <= 0 || ch.CharsPerToken <= 0 {
		return invalid("chunking.maxChunkTokens", "token budget must be positive")
	}
	if ch.ContextLines < 0 || ch.MaxSnapLines < 0 {
		return invalid("chunking.contextLines", "line counts must not be negative")
	}

	if err := c.Validation.Build.validate("validation.build"); err != nil {
		return err
	}
	if err := c.Validation.Test.validate("validation.test"); err != nil {
		return err
	}

	if c.Cache.ParseEntries < 0 {
		return invalid("cache.parseEntries", "must not be negative")
	}
	return nil
}

func (s StageConfig) validate(field string) error {
	if !s.Enabled {
		return nil
	}
	if len(strings.Fields(s.Command)) == 0 {
		return invalid(field+".command", "required when the stage is enabled")
	}
	if s.TimeoutSec <= 0 {
		return invalid(field+".timeoutSec", "must be positive")
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

func invalid(field, message string) error {
	return errors.New(errors.ConfigInvalid, "invalid configuration", &ConfigError{Field: field, Message: message})
}
