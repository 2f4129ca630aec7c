// Package config loads skillscan settings.
//
// Settings are layered: built-in defaults, then <root>/.skillscan.yaml, then
// SKILLSCAN_* environment variables. Command-line flags are applied last by
// the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/skillscan/internal/sink"
)

// FileName is the per-repository config file, relative to the scanned root
const FileName = ".skillscan.yaml"

// Config holds settings for one scan
type Config struct {
	// OutputDir is where skills are written, relative to the root unless absolute
	// Default: .claude/skills
	OutputDir string

	// Analyzers limits the run to the named analyzers; empty runs all of them
	Analyzers []string

	// Ignore lists directory base names the filesystem reader never descends into
	Ignore []string

	// MaxMarkerFiles caps how many files a marker search may read
	// Default: 50, Range: 1-10000
	MaxMarkerFiles int

	// MaxReadBytes bounds any single file read
	// Default: 256 KiB, Range: 1 KiB-64 MiB
	MaxReadBytes int

	// CacheBytes sizes the file content cache; 0 disables caching
	// Default: 16 MiB
	CacheBytes int64

	// AnalyzerTimeout bounds each analyzer; 0 disables the deadline
	// Default: 30s
	AnalyzerTimeout time.Duration

	// MaxConcurrency caps analyzers running at once; 0 means no cap
	MaxConcurrency int

	// Sinks names where skills are persisted ("files", "sqlite")
	// Default: files
	Sinks []string

	// DryRun skips persistence entirely
	DryRun bool
}

// DefaultIgnore is the ignore list used when none is configured
var DefaultIgnore = []string{
	"node_modules", "vendor", ".git", "dist", "build", "target",
	".venv", "__pycache__", ".next", "coverage",
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		OutputDir:       ".claude/skills",
		Ignore:          slices.Clone(DefaultIgnore),
		MaxMarkerFiles:  50,
		MaxReadBytes:    256 << 10,
		CacheBytes:      16 << 20,
		AnalyzerTimeout: 30 * time.Second,
		Sinks:           []string{sink.NameFiles},
	}
}

// fileConfig mirrors the YAML layout. Pointers distinguish "unset" from zero.
type fileConfig struct {
	OutputDir       *string  `yaml:"output_dir"`
	Analyzers       []string `yaml:"analyzers"`
	Ignore          []string `yaml:"ignore"`
	MaxMarkerFiles  *int     `yaml:"max_marker_files"`
	MaxReadBytes    *int     `yaml:"max_read_bytes"`
	CacheBytes      *int64   `yaml:"cache_bytes"`
	AnalyzerTimeout *string  `yaml:"analyzer_timeout"`
	MaxConcurrency  *int     `yaml:"max_concurrency"`
	Sinks           []string `yaml:"sinks"`
	DryRun          *bool    `yaml:"dry_run"`
}

// Load builds the configuration for a scan of root: defaults, then the
// repository file if present, then the environment. The result is validated.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyFile(data); err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		// No repository config; defaults stand
	default:
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse applies a YAML document on top of the defaults without reading the
// environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.applyFile(data); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyFile(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if fc.OutputDir != nil {
		c.OutputDir = *fc.OutputDir
	}
	if len(fc.Analyzers) > 0 {
		c.Analyzers = fc.Analyzers
	}
	if fc.Ignore != nil {
		c.Ignore = fc.Ignore
	}
	if fc.MaxMarkerFiles != nil {
		c.MaxMarkerFiles = *fc.MaxMarkerFiles
	}
	if fc.MaxReadBytes != nil {
		c.MaxReadBytes = *fc.MaxReadBytes
	}
	if fc.CacheBytes != nil {
		c.CacheBytes = *fc.CacheBytes
	}
	if fc.AnalyzerTimeout != nil {
		d, err := parseDuration(*fc.AnalyzerTimeout)
		if err != nil {
			return fmt.Errorf("analyzer_timeout: %w", err)
		}
		c.AnalyzerTimeout = d
	}
	if fc.MaxConcurrency != nil {
		c.MaxConcurrency = *fc.MaxConcurrency
	}
	if fc.Sinks != nil {
		c.Sinks = fc.Sinks
	}
	if fc.DryRun != nil {
		c.DryRun = *fc.DryRun
	}
	return nil
}

// applyEnv overlays SKILLSCAN_* environment variables
//
// Environment variables:
//   - SKILLSCAN_OUTPUT_DIR: Output directory (default: .claude/skills)
//   - SKILLSCAN_ANALYZERS: Comma-separated analyzer names (default: all)
//   - SKILLSCAN_ANALYZER_TIMEOUT: Per-analyzer deadline, e.g. 45s (default: 30s)
//   - SKILLSCAN_MAX_CONCURRENCY: Analyzers running at once, 0 for no cap (default: 0)
//   - SKILLSCAN_MAX_MARKER_FILES: Files read per marker search (default: 50)
//   - SKILLSCAN_SINKS: Comma-separated sinks (default: files)
//   - SKILLSCAN_DRY_RUN: Skip persistence (default: false)
func (c *Config) applyEnv() error {
	if err := parseEnvString("SKILLSCAN_OUTPUT_DIR", &c.OutputDir); err != nil {
		return err
	}
	if err := parseEnvList("SKILLSCAN_ANALYZERS", &c.Analyzers); err != nil {
		return err
	}
	if err := parseEnvDuration("SKILLSCAN_ANALYZER_TIMEOUT", &c.AnalyzerTimeout); err != nil {
		return err
	}
	if err := parseEnvInt("SKILLSCAN_MAX_CONCURRENCY", &c.MaxConcurrency); err != nil {
		return err
	}
	if err := parseEnvInt("SKILLSCAN_MAX_MARKER_FILES", &c.MaxMarkerFiles); err != nil {
		return err
	}
	if err := parseEnvList("SKILLSCAN_SINKS", &c.Sinks); err != nil {
		return err
	}
	if err := parseEnvBool("SKILLSCAN_DRY_RUN", &c.DryRun); err != nil {
		return err
	}
	return nil
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	if c.MaxMarkerFiles < 1 || c.MaxMarkerFiles > 10000 {
		return fmt.Errorf("max_marker_files must be between 1 and 10000 (got %d)", c.MaxMarkerFiles)
	}

	if c.MaxReadBytes < 1<<10 || c.MaxReadBytes > 64<<20 {
		return fmt.Errorf("max_read_bytes must be between 1024 and %d (got %d)", 64<<20, c.MaxReadBytes)
	}

	if c.CacheBytes < 0 {
		return fmt.Errorf("cache_bytes cannot be negative (got %d)", c.CacheBytes)
	}

	if c.AnalyzerTimeout < 0 {
		return fmt.Errorf("analyzer_timeout cannot be negative (got %v)", c.AnalyzerTimeout)
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative (got %d)", c.MaxConcurrency)
	}

	if len(c.Sinks) == 0 {
		return fmt.Errorf("at least one sink is required")
	}
	for _, name := range c.Sinks {
		if !sink.IsValidName(name) {
			return fmt.Errorf("unknown sink %q (valid: %s, %s)", name, sink.NameFiles, sink.NameSQLite)
		}
	}

	for _, name := range c.Ignore {
		if name == "" || strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
			return fmt.Errorf("ignore entries must be plain directory names (got %q)", name)
		}
	}
	return nil
}

// ResolveOutputDir returns the output directory for root
func (c Config) ResolveOutputDir(root string) string {
	if filepath.IsAbs(c.OutputDir) {
		return filepath.Clean(c.OutputDir)
	}
	return filepath.Join(root, c.OutputDir)
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{OutputDir: %s, Analyzers: %v, MaxMarkerFiles: %d, MaxReadBytes: %d, "+
			"CacheBytes: %d, AnalyzerTimeout: %v, MaxConcurrency: %d, Sinks: %v, DryRun: %t}",
		c.OutputDir, c.Analyzers, c.MaxMarkerFiles, c.MaxReadBytes,
		c.CacheBytes, c.AnalyzerTimeout, c.MaxConcurrency, c.Sinks, c.DryRun,
	)
}

// ExampleConfigFile returns a commented sample configuration
func ExampleConfigFile() string {
	return `# skillscan configuration
# Values here override built-in defaults; SKILLSCAN_* environment
# variables and command-line flags override this file.

# Where skills are written, relative to the repository root
output_dir: .claude/skills

# Analyzers to run (empty = all):
# security, performance, react, backend, frontend, database, api, testing, devops
analyzers: []

# Directory names never scanned
ignore:
  - node_modules
  - vendor
  - .git
  - dist
  - build
  - target
  - .venv
  - __pycache__
  - .next
  - coverage

# Files read per marker search (1-10000)
max_marker_files: 50

# Largest single file read, in bytes
max_read_bytes: 262144

# File content cache size in bytes (0 disables)
cache_bytes: 16777216

# Deadline per analyzer (e.g. 30s, 2m; 0 disables)
analyzer_timeout: 30s

# Analyzers running at once (0 = no cap)
max_concurrency: 0

# Where to persist skills: files, sqlite
sinks:
  - files

# Report only, write nothing
dry_run: false
`
}

// parseDuration accepts Go durations plus a "d" suffix for days
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}

// parseEnvDuration parses a duration from an environment variable
func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	d, err := parseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = d
	return nil
}

// parseEnvList parses a comma-separated list from an environment variable
func parseEnvList(key string, dest *[]string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dest = items
	return nil
}
