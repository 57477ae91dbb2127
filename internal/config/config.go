package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Scan          Scan          `toml:"scan"`
	Rules         Rules         `toml:"rules"`
	Fix           Fix           `toml:"fix"`
	Watch         Watch         `toml:"watch"`
	DB            Database      `toml:"db"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
}

type Scan struct {
	Paths        []string `toml:"paths"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	IncludeTests bool     `toml:"include_tests"`
}

type Rules struct {
	Enabled      []string           `toml:"enabled"`
	Deprecations []DeprecationEntry `toml:"deprecations"`
}

// DeprecationEntry extends the builtin table with a project-specific
// old → new rename. Both sides are dotted paths sharing the same module
// prefix; the fix only ever rewrites the final segment.
type DeprecationEntry struct {
	Old     string `toml:"old"`
	New     string `toml:"new"`
	Suggest string `toml:"suggest"`
}

type Fix struct {
	Enabled bool `toml:"enabled"`
	Unsafe  bool `toml:"unsafe"`
	DryRun  bool `toml:"dry_run"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	RescanRate  float64       `toml:"rescan_rate"`
	RescanBurst int           `toml:"rescan_burst"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	Address      string `toml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Output struct {
	SARIF string `toml:"sarif"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateScan(&cfg); err != nil {
		return nil, err
	}
	if err := validateRules(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}

	if len(cfg.Scan.Paths) == 0 {
		cfg.Scan.Paths = []string{"."}
	}
	if len(cfg.Scan.ExcludeDirs) == 0 {
		cfg.Scan.ExcludeDirs = []string{".git", ".venv", "venv", "__pycache__", "node_modules"}
	}

	if len(cfg.Rules.Enabled) == 0 {
		cfg.Rules.Enabled = []string{"deprecated-error-alias"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RescanRate <= 0 {
		cfg.Watch.RescanRate = 4
	}
	if cfg.Watch.RescanBurst <= 0 {
		cfg.Watch.RescanBurst = 8
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9174"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	for i, p := range cfg.Scan.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("scan.paths[%d] must not be empty", i)
		}
	}
	for i, p := range cfg.Scan.ExcludeDirs {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("scan.exclude_dirs[%d] must not be empty", i)
		}
	}
	for i, p := range cfg.Scan.ExcludeFiles {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("scan.exclude_files[%d] must not be empty", i)
		}
	}
	return nil
}

func validateRules(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Rules.Deprecations))
	for i, entry := range cfg.Rules.Deprecations {
		ref := fmt.Sprintf("rules.deprecations[%d]", i)

		old := strings.TrimSpace(entry.Old)
		next := strings.TrimSpace(entry.New)
		if old == "" {
			return fmt.Errorf("%s.old must not be empty", ref)
		}
		if next == "" {
			return fmt.Errorf("%s.new must not be empty", ref)
		}
		if old == next {
			return fmt.Errorf("%s: old and new are identical (%q)", ref, old)
		}
		if err := validateDottedPath(old); err != nil {
			return fmt.Errorf("%s.old: %w", ref, err)
		}
		if err := validateDottedPath(next); err != nil {
			return fmt.Errorf("%s.new: %w", ref, err)
		}

		// The rewrite replaces only the trailing identifier, so both
		// paths must share a module prefix.
		if modulePrefix(old) != modulePrefix(next) {
			return fmt.Errorf("%s: %q and %q are not in the same module; cross-module renames are not supported", ref, old, next)
		}

		if seen[old] {
			return fmt.Errorf("%s: duplicate entry for %q", ref, old)
		}
		seen[old] = true
	}
	return nil
}

func validateDottedPath(path string) error {
	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return fmt.Errorf("path %q must have at least two dotted segments", path)
	}
	for _, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("path %q contains an empty segment", path)
		}
	}
	return nil
}

func modulePrefix(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx == -1 {
		return ""
	}
	return path[:idx]
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Observability.Address) == "" {
		return fmt.Errorf("observability.address must not be empty")
	}
	return nil
}
