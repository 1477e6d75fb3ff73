package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chunkgate/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Chunking.WholeMaxBytes != 50000 {
		t.Errorf("WholeMaxBytes = %d, want 50000", cfg.Chunking.WholeMaxBytes)
	}
	if cfg.Chunking.TypeMaxBytes != 200000 {
		t.Errorf("TypeMaxBytes = %d, want 200000", cfg.Chunking.TypeMaxBytes)
	}
	if cfg.Chunking.ContextLines != 20 {
		t.Errorf("ContextLines = %d, want 20", cfg.Chunking.ContextLines)
	}
	if !cfg.Validation.Build.Enabled || !cfg.Validation.Test.Enabled {
		t.Error("build and test stages should be enabled by default")
	}
	if cfg.Validation.Build.TimeoutSec != 300 || cfg.Validation.Test.TimeoutSec != 600 {
		t.Errorf("unexpected default timeouts: build=%d test=%d",
			cfg.Validation.Build.TimeoutSec, cfg.Validation.Test.TimeoutSec)
	}
	if !strings.Contains(cfg.Validation.Test.SelectArg, "{tests}") {
		t.Errorf("SelectArg should contain {tests}: %q", cfg.Validation.Test.SelectArg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"bad strategy", func(c *Config) { c.Chunking.Strategy = "ast" }, "chunking.strategy"},
		{"zero whole threshold", func(c *Config) { c.Chunking.WholeMaxBytes = 0 }, "chunking.wholeMaxBytes"},
		{"type below whole", func(c *Config) { c.Chunking.TypeMaxBytes = 10 }, "chunking.typeMaxBytes"},
		{"zero token budget", func(c *Config) { c.Chunking.MaxChunkTokens = 0 }, "chunking.maxChunkTokens"},
		{"empty build command", func(c *Config) { c.Validation.Build.Command = "  " }, "validation.build.command"},
		{"zero test timeout", func(c *Config) { c.Validation.Test.TimeoutSec = 0 }, "validation.test.timeoutSec"},
		{"negative cache", func(c *Config) { c.Cache.ParseEntries = -1 }, "cache.parseEntries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if errors.CodeOf(err) != errors.ConfigInvalid {
				t.Errorf("code = %q, want %q", errors.CodeOf(err), errors.ConfigInvalid)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q should name field %q", err, tt.wantField)
			}
		})
	}
}

func TestConfig_Validate_DisabledStageSkipsChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Validation.Build = StageConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled stage should not need a command: %v", err)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RepoRoot != root {
		t.Errorf("RepoRoot = %q, want %q", cfg.RepoRoot, root)
	}
	if cfg.Chunking.WholeMaxBytes != 50000 {
		t.Errorf("expected defaults, got WholeMaxBytes=%d", cfg.Chunking.WholeMaxBytes)
	}
	if cfg.Validation.Test.Command != "mvn test -q" {
		t.Errorf("Test.Command = %q", cfg.Validation.Test.Command)
	}
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	root := t.TempDir()
	writeStateFile(t, root, "config.yaml", `version: 1
chunking:
  wholeMaxBytes: 1000
  typeMaxBytes: 4000
validation:
  build:
    command: ./gradlew compileJava
  test:
    enabled: false
`)

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Chunking.WholeMaxBytes != 1000 || cfg.Chunking.TypeMaxBytes != 4000 {
		t.Errorf("thresholds not loaded: %+v", cfg.Chunking)
	}
	if cfg.Chunking.ContextLines != 20 {
		t.Errorf("unset keys should keep defaults, ContextLines=%d", cfg.Chunking.ContextLines)
	}
	if cfg.Validation.Build.Command != "./gradlew compileJava" {
		t.Errorf("Build.Command = %q", cfg.Validation.Build.Command)
	}
	if cfg.Validation.Test.Enabled {
		t.Error("test stage should be disabled")
	}
	if cfg.Validation.Test.TimeoutSec != 600 {
		t.Errorf("squashed stage defaults lost, TimeoutSec=%d", cfg.Validation.Test.TimeoutSec)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv("CHUNKGATE_VALIDATION_BUILD_ENABLED", "false")

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Validation.Build.Enabled {
		t.Error("env var should disable the build stage")
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	root := t.TempDir()
	writeStateFile(t, root, "config.json", `{"version": `)

	if _, err := LoadConfig(root); errors.CodeOf(err) != errors.ConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Chunking.ContextLines = 7

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Chunking.ContextLines != 7 {
		t.Errorf("ContextLines = %d, want 7", loaded.Chunking.ContextLines)
	}
}

func TestRender(t *testing.T) {
	cfg := DefaultConfig()

	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			out, err := cfg.Render(format)
			if err != nil {
				t.Fatalf("Render(%s) failed: %v", format, err)
			}
			if !strings.Contains(string(out), "wholeMaxBytes") {
				t.Errorf("Render(%s) missing wholeMaxBytes:\n%s", format, out)
			}
		})
	}

	if _, err := cfg.Render("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestCheckFile(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name        string
		file        string
		content     string
		wantUnknown bool
	}{
		{"clean toml", "a.toml", "version = 1\n[chunking]\nwholeMaxBytes = 10\n", false},
		{"typo toml", "b.toml", "version = 1\n[chunking]\nwholeMaxByte = 10\n", true},
		{"clean json", "c.json", `{"version": 1, "chunking": {"contextLines": 3}}`, false},
		{"typo json", "d.json", `{"version": 1, "chunkin": {}}`, true},
		{"typo yaml", "e.yaml", "version: 1\nlogging:\n  lvl: debug\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(root, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			unknown, err := CheckFile(path)
			if err != nil {
				t.Fatalf("CheckFile failed: %v", err)
			}
			if got := len(unknown) > 0; got != tt.wantUnknown {
				t.Errorf("unknown keys = %v, wantUnknown %v", unknown, tt.wantUnknown)
			}
		})
	}
}

func writeStateFile(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, ".chunkgate")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
