package workspace

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layout(base string) Layout {
	return Layout{
		ManifestRoot: filepath.Join(base, "code"),
		SampleRoot:   filepath.Join(base, "split_samples"),
		Partitions:   []string{"train", "validation", "test"},
		Classes:      []string{"benign", "malign"},
		Protected:    []string{filepath.Join(base, "all_benign"), filepath.Join(base, "all_malign")},
	}
}

func TestResetCreatesTree(t *testing.T) {
	base := t.TempDir()
	l := layout(base)
	require.NoError(t, Reset(l))

	for _, p := range l.Partitions {
		for _, c := range l.Classes {
			info, err := os.Stat(filepath.Join(base, "split_samples", p, c))
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	}
	entries, err := os.ReadDir(l.ManifestRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResetWipesPreviousOutput(t *testing.T) {
	base := t.TempDir()
	l := layout(base)
	require.NoError(t, Reset(l))

	stale := filepath.Join(l.SampleDir("train", "benign"), "old.png")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(l.ManifestRoot, "benign_train.csv"), []byte("old.png\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(l.SampleRoot, "extra"), 0o755))

	require.NoError(t, Reset(l))

	_, err := os.Stat(stale)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(filepath.Join(l.SampleRoot, "extra"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	entries, err := os.ReadDir(l.ManifestRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResetReplacesFileAtRoot(t *testing.T) {
	base := t.TempDir()
	l := layout(base)
	require.NoError(t, os.WriteFile(l.ManifestRoot, []byte("not a dir"), 0o644))
	require.NoError(t, Reset(l))
	info, err := os.Stat(l.ManifestRoot)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResetRefusesUnsafeRoots(t *testing.T) {
	base := t.TempDir()
	cases := map[string]func(*Layout){
		"empty":           func(l *Layout) { l.ManifestRoot = "" },
		"filesystem root": func(l *Layout) { l.SampleRoot = string(filepath.Separator) },
		"contains source": func(l *Layout) { l.SampleRoot = base },
		"is source":       func(l *Layout) { l.ManifestRoot = filepath.Join(base, "all_malign") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			l := layout(base)
			mutate(&l)
			err := Reset(l)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrWorkspaceReset)
			assert.ErrorIs(t, err, ErrUnsafeRoot)
			var re *ResetError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "check", re.Op)
		})
	}
}

func TestResetFailsWhenParentIsFile(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	l := layout(base)
	l.SampleRoot = filepath.Join(blocker, "split_samples")

	err := Reset(l)
	var re *ResetError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, []string{"remove", "create"}, re.Op)
	assert.Equal(t, l.SampleRoot, re.Path)
	assert.ErrorIs(t, err, ErrWorkspaceReset)
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")
	require.NoError(t, WriteAtomic(dest, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	}))
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b))

	boom := errors.New("boom")
	err = WriteAtomic(dest, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	b, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b), "failed write must leave dest untouched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("/data/out", "/data/out"))
	assert.True(t, Within("/data/out", "/data/out/code"))
	assert.False(t, Within("/data/out", "/data/output"))
	assert.False(t, Within("/data/out/code", "/data/out"))
}
