// Package config holds the split configuration: which two classes to read,
// where their folders live, where the manifests and copied samples go, and
// the ordered partition proportions.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"dataset-splitter/internal/workspace"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// proportionTolerance matches a two-decimal rounding check on the sum.
const proportionTolerance = 0.01

// Partition is one named output partition and its target share of a class.
type Partition struct {
	Name       string  `yaml:"name"`
	Proportion float64 `yaml:"proportion"`
}

// LoggingConfig configures the zap logger built by the CLI.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Config is the full configuration contract of a split run.
type Config struct {
	// Exactly two class labels.
	ClassNames []string `yaml:"class_names"`

	// Canonical class folders are <SourceRoot>/<ClassDirPrefix><class>.
	SourceRoot     string `yaml:"source_root"`
	ClassDirPrefix string `yaml:"class_dir_prefix"`

	AugmentedSubfolderName string `yaml:"augmented_subfolder_name"`
	IncludeAugmented       bool   `yaml:"include_augmented"`

	// Lowercase extensions including the dot. Empty selects every file.
	Extensions []string `yaml:"extensions"`

	OutputManifestRoot string `yaml:"output_manifest_root"`
	OutputSampleRoot   string `yaml:"output_sample_root"`

	// Ordered; the flooring remainder goes to the last entry.
	Partitions []Partition `yaml:"partitions"`

	Shuffle     bool  `yaml:"shuffle"`
	Seed        int64 `yaml:"seed"`
	CopyWorkers int   `yaml:"copy_workers"`

	// Optional zip of both output roots written after a successful run.
	Archive string `yaml:"archive,omitempty"`

	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the stock layout: all_benign/ and all_malign/ under
// the working directory, manifests in code/, samples in split_samples/.
func DefaultConfig() *Config {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return &Config{
		ClassNames:             []string{"benign", "malign"},
		SourceRoot:             ".",
		ClassDirPrefix:         "all_",
		AugmentedSubfolderName: "augmented",
		IncludeAugmented:       true,
		Extensions:             []string{".png"},
		OutputManifestRoot:     "code",
		OutputSampleRoot:       "split_samples",
		Partitions: []Partition{
			{Name: "train", Proportion: 0.70},
			{Name: "validation", Proportion: 0.15},
			{Name: "test", Proportion: 0.15},
		},
		Shuffle:     false,
		Seed:        0,
		CopyWorkers: workers,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config on top of the defaults. A missing file is not an
// error; the defaults are returned with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("SPLITTER_SOURCE_ROOT"); v != "" {
		c.SourceRoot = v
	}
	if v := os.Getenv("SPLITTER_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: SPLITTER_SEED=%q is not an integer", ErrInvalidConfig, v)
		}
		c.Seed = seed
		c.Shuffle = true
	}
	if v := os.Getenv("SPLITTER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the invariants the split relies on.
func (c *Config) Validate() error {
	if len(c.ClassNames) != 2 {
		return invalidf("class_names must list exactly two classes, got %d", len(c.ClassNames))
	}
	for _, name := range c.ClassNames {
		if err := checkSegment("class name", name); err != nil {
			return err
		}
	}
	if c.ClassNames[0] == c.ClassNames[1] {
		return invalidf("class_names must be distinct, got %q twice", c.ClassNames[0])
	}
	if c.SourceRoot == "" {
		return invalidf("source_root is empty")
	}
	if c.IncludeAugmented {
		if err := checkSegment("augmented_subfolder_name", c.AugmentedSubfolderName); err != nil {
			return err
		}
	}
	if c.OutputManifestRoot == "" || c.OutputSampleRoot == "" {
		return invalidf("output_manifest_root and output_sample_root are required")
	}
	if filepath.Clean(c.OutputManifestRoot) == filepath.Clean(c.OutputSampleRoot) {
		return invalidf("output roots must differ, both are %q", c.OutputManifestRoot)
	}
	if nestedRoots(c.OutputManifestRoot, c.OutputSampleRoot) {
		return invalidf("output roots %q and %q must not contain each other", c.OutputManifestRoot, c.OutputSampleRoot)
	}
	if len(c.Partitions) == 0 {
		return invalidf("at least one partition is required")
	}
	seen := make(map[string]struct{}, len(c.Partitions))
	sum := 0.0
	for _, p := range c.Partitions {
		if err := checkSegment("partition name", p.Name); err != nil {
			return err
		}
		if _, dup := seen[p.Name]; dup {
			return invalidf("duplicate partition %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Proportion < 0 || p.Proportion > 1 || math.IsNaN(p.Proportion) {
			return invalidf("partition %q proportion %v outside [0,1]", p.Name, p.Proportion)
		}
		sum += p.Proportion
	}
	if math.Abs(sum-1.0) > proportionTolerance {
		return invalidf("partition proportions sum to %.4f, want 1.0", sum)
	}
	if c.CopyWorkers < 0 {
		return invalidf("copy_workers must be >= 0, got %d", c.CopyWorkers)
	}
	return nil
}

// nestedRoots reports whether either output root lies inside the other.
// Resetting one would then wipe the other.
func nestedRoots(a, b string) bool {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return workspace.Within(absA, absB) || workspace.Within(absB, absA)
}

// ClassDir returns the canonical folder of a class.
func (c *Config) ClassDir(class string) string {
	return filepath.Join(c.SourceRoot, c.ClassDirPrefix+class)
}

// AugmentedDir returns the augmented folder of a class, or "" when augmented
// samples are disabled.
func (c *Config) AugmentedDir(class string) string {
	if !c.IncludeAugmented || c.AugmentedSubfolderName == "" {
		return ""
	}
	return filepath.Join(c.ClassDir(class), c.AugmentedSubfolderName)
}

// PartitionNames returns the partition names in configured order.
func (c *Config) PartitionNames() []string {
	out := make([]string, 0, len(c.Partitions))
	for _, p := range c.Partitions {
		out = append(out, p.Name)
	}
	return out
}

// ExtensionSet returns the normalized extension filter.
func (c *Config) ExtensionSet() map[string]struct{} {
	if len(c.Extensions) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(c.Extensions))
	for _, e := range c.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = struct{}{}
	}
	return m
}

// checkSegment rejects names that cannot be used as a single path element.
func checkSegment(what, s string) error {
	if strings.TrimSpace(s) == "" {
		return invalidf("%s is empty", what)
	}
	if s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return invalidf("%s %q must be a single path element", what, s)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
