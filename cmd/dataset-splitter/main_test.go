package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dataset-splitter/internal/config"
)

// fixture writes a config with absolute paths and two small class folders.
func fixture(t *testing.T) (cfgPath string, cfg *config.Config) {
	t.Helper()
	base := t.TempDir()
	cfg = config.DefaultConfig()
	cfg.SourceRoot = base
	cfg.OutputManifestRoot = filepath.Join(base, "code")
	cfg.OutputSampleRoot = filepath.Join(base, "split_samples")
	cfg.Logging.Level = "error"
	for _, c := range cfg.ClassNames {
		dir := cfg.ClassDir(c)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, n := range []string{"1.png", "2.png", "3.png", "4.png"} {
			if err := os.WriteFile(filepath.Join(dir, n), []byte(c+n), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	cfgPath = filepath.Join(base, "splitter.yaml")
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatal(err)
	}
	return cfgPath, cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommandSplits(t *testing.T) {
	cfgPath, cfg := fixture(t)

	out, err := execute(t, "run", "-c", cfgPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "benign: 4 samples") || !strings.Contains(out, "Split ") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	b, err := os.ReadFile(filepath.Join(cfg.OutputManifestRoot, "malign_train.csv"))
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	if string(b) != "1.png\n2.png\n" {
		t.Fatalf("malign_train.csv got %q", b)
	}
}

func TestRootDefaultsToRun(t *testing.T) {
	cfgPath, cfg := fixture(t)
	if _, err := execute(t, "-c", cfgPath, "--seed", "3"); err != nil {
		t.Fatalf("root run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputManifestRoot, "split.json")); err != nil {
		t.Fatalf("split.json missing: %v", err)
	}
}

func TestSecondRunReportsNoDrift(t *testing.T) {
	cfgPath, _ := fixture(t)
	if _, err := execute(t, "run", "-c", cfgPath); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "run", "-c", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Manifests unchanged since previous run") {
		t.Fatalf("expected no drift:\n%s", out)
	}
}

func TestVerifyCommand(t *testing.T) {
	cfgPath, cfg := fixture(t)

	if _, err := execute(t, "verify", "-c", cfgPath); err == nil {
		t.Fatalf("verify before any run should fail")
	}
	if _, err := execute(t, "run", "-c", cfgPath); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "verify", "-c", cfgPath)
	if err != nil || !strings.HasPrefix(out, "OK split ") {
		t.Fatalf("verify after run: %v\n%s", err, out)
	}

	victim := filepath.Join(cfg.OutputSampleRoot, "train", "benign", "1.png")
	if err := os.WriteFile(victim, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "verify", "-c", cfgPath)
	if !errors.Is(err, errVerifyFailed) {
		t.Fatalf("want errVerifyFailed, got %v", err)
	}
	if !strings.Contains(out, "modified\t"+victim) {
		t.Fatalf("problem not printed:\n%s", out)
	}
}

func TestRunMissingSourceExitCode(t *testing.T) {
	cfgPath, cfg := fixture(t)
	if err := os.RemoveAll(cfg.ClassDir("benign")); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "run", "-c", cfgPath)
	if err == nil {
		t.Fatal("expected missing source error")
	}
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code %d", code)
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	_, err := execute(t, "run", "--no-such-flag")
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code %d for %v", code, err)
	}
	for _, args := range [][]string{{"bogus"}, {"verify", "extra"}, {"config", "init", "a", "b"}} {
		_, err := execute(t, args...)
		if code := exitCode(err); code != 2 {
			t.Fatalf("%v: exit code %d for %v", args, code, err)
		}
	}
	if exitCode(nil) != 0 {
		t.Fatal("nil error must exit 0")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitter.yaml")
	out, err := execute(t, "config", "init", path)
	if err != nil || !strings.Contains(out, "Wrote ") {
		t.Fatalf("config init: %v %s", err, out)
	}
	if _, err := execute(t, "config", "init", path); err == nil {
		t.Fatal("second init without --force should fail")
	}
	if _, err := execute(t, "config", "init", path, "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	out, err = execute(t, "config", "show", "-c", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"class_names:", "- benign", "output_manifest_root: code", "name: validation"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestBuildLoggerRejectsBadLevel(t *testing.T) {
	if _, err := buildLogger(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
	l, err := buildLogger(config.LoggingConfig{Level: "debug", Format: "json"})
	if err != nil || l == nil {
		t.Fatalf("json logger: %v", err)
	}
}
