package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ClassNames[0] != "benign" || cfg.ClassNames[1] != "malign" {
		t.Errorf("unexpected classes %v", cfg.ClassNames)
	}
	if cfg.OutputManifestRoot != "code" || cfg.OutputSampleRoot != "split_samples" {
		t.Errorf("unexpected output roots %q %q", cfg.OutputManifestRoot, cfg.OutputSampleRoot)
	}
	if got := cfg.PartitionNames(); len(got) != 3 || got[2] != "test" {
		t.Errorf("unexpected partitions %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("SPLITTER_SOURCE_ROOT", "")
	t.Setenv("SPLITTER_SEED", "")
	t.Setenv("SPLITTER_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "nested", "splitter.yaml")

	cfg := DefaultConfig()
	cfg.ClassNames = []string{"cat", "dog"}
	cfg.Partitions = []Partition{{Name: "train", Proportion: 0.8}, {Name: "test", Proportion: 0.2}}
	cfg.Shuffle = true
	cfg.Seed = 42

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, loaded.ClassNames)
	assert.Equal(t, cfg.Partitions, loaded.Partitions)
	assert.True(t, loaded.Shuffle)
	assert.Equal(t, int64(42), loaded.Seed)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("SPLITTER_SOURCE_ROOT", "")
	t.Setenv("SPLITTER_SEED", "")
	t.Setenv("SPLITTER_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().ClassNames, cfg.ClassNames)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("partitions: [oops"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SPLITTER_SOURCE_ROOT", "/data/skin")
	t.Setenv("SPLITTER_SEED", "7")
	t.Setenv("SPLITTER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/skin", cfg.SourceRoot)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.True(t, cfg.Shuffle)
	assert.Equal(t, "debug", cfg.Logging.Level)

	t.Setenv("SPLITTER_SEED", "seven")
	_, err = Load("")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"one class", func(c *Config) { c.ClassNames = []string{"benign"} }},
		{"three classes", func(c *Config) { c.ClassNames = []string{"a", "b", "c"} }},
		{"same class twice", func(c *Config) { c.ClassNames = []string{"a", "a"} }},
		{"class with slash", func(c *Config) { c.ClassNames = []string{"a/b", "c"} }},
		{"no partitions", func(c *Config) { c.Partitions = nil }},
		{"sum below one", func(c *Config) { c.Partitions[0].Proportion = 0.5 }},
		{"negative proportion", func(c *Config) {
			c.Partitions = []Partition{{Name: "train", Proportion: 1.2}, {Name: "test", Proportion: -0.2}}
		}},
		{"duplicate partition", func(c *Config) { c.Partitions[2].Name = "train" }},
		{"same output roots", func(c *Config) { c.OutputSampleRoot = "code/" }},
		{"manifest root inside sample root", func(c *Config) {
			c.OutputSampleRoot = "out"
			c.OutputManifestRoot = "out/code"
		}},
		{"sample root inside manifest root", func(c *Config) { c.OutputSampleRoot = "code/samples" }},
		{"empty source root", func(c *Config) { c.SourceRoot = "" }},
		{"bad augmented name", func(c *Config) { c.AugmentedSubfolderName = ".." }},
		{"negative workers", func(c *Config) { c.CopyWorkers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateAcceptsRoundingTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Partitions = []Partition{
		{Name: "train", Proportion: 0.7},
		{Name: "test", Proportion: 0.2},
		{Name: "validation", Proportion: 0.1},
	}
	require.NoError(t, cfg.Validate())
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourceRoot = "data"
	assert.Equal(t, filepath.Join("data", "all_malign"), cfg.ClassDir("malign"))
	assert.Equal(t, filepath.Join("data", "all_malign", "augmented"), cfg.AugmentedDir("malign"))

	cfg.IncludeAugmented = false
	assert.Equal(t, "", cfg.AugmentedDir("malign"))
}

func TestExtensionSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extensions = []string{"PNG", " .jpg ", ""}
	got := cfg.ExtensionSet()
	assert.Len(t, got, 2)
	assert.Contains(t, got, ".png")
	assert.Contains(t, got, ".jpg")

	cfg.Extensions = nil
	assert.Nil(t, cfg.ExtensionSet())
}
