package cliapp

import (
	"os"
	"path/filepath"
	"testing"

	"pyamend/internal/config"
)

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := parseOptions(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.configPath != defaultConfigPath {
		t.Fatalf("unexpected config path: %q", opts.configPath)
	}
	if opts.fix || opts.unsafe || opts.watch || opts.ui {
		t.Fatalf("expected all modes off by default: %+v", opts)
	}
}

func TestParseOptions_PositionalArgsArePaths(t *testing.T) {
	opts, err := parseOptions([]string{"-fix", "src/", "lib/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.fix {
		t.Fatal("expected fix to be enabled")
	}
	if len(opts.args) != 2 || opts.args[0] != "src/" {
		t.Fatalf("unexpected args: %v", opts.args)
	}
}

func TestApplyCLIOverrides(t *testing.T) {
	opts := &cliOptions{fix: true, unsafe: true, includeTests: true, args: []string{"./override"}}
	cfg := config.Default()

	applyCLIOverrides(opts, cfg)

	if !cfg.Fix.Enabled || !cfg.Fix.Unsafe {
		t.Fatalf("expected fix settings to be enabled: %+v", cfg.Fix)
	}
	if !cfg.Scan.IncludeTests {
		t.Fatal("expected include_tests to be enabled")
	}
	if len(cfg.Scan.Paths) != 1 || cfg.Scan.Paths[0] != "./override" {
		t.Fatalf("unexpected scan paths: %v", cfg.Scan.Paths)
	}
}

func TestLoadConfig_MissingDefaultFallsBack(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Rules.Enabled) == 0 {
		t.Fatal("expected default rules to be enabled")
	}
}

func TestLoadConfig_ExplicitMissingPathFails(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}
