// Package workspace owns the two output roots of a split run. Reset wipes and
// recreates them; WriteAtomic is the temp-file-then-rename writer every
// output file goes through, so readers never see a partially written file.
//
// Reset is destructive: anything under the manifest root or the sample root
// is removed without backup.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Layout describes the output roots and the subtrees created under them.
type Layout struct {
	ManifestRoot string
	SampleRoot   string
	Partitions   []string
	Classes      []string
	// Protected paths (the canonical class folders) must never be removed;
	// a root equal to or containing one of them is refused.
	Protected []string
}

// SampleDir returns <SampleRoot>/<partition>/<class>.
func (l Layout) SampleDir(partition, class string) string {
	return filepath.Join(l.SampleRoot, partition, class)
}

// Reset removes both roots if present (file or directory), recreates them
// empty and creates every <partition>/<class> folder under the sample root.
// It must complete before any sample or manifest is written.
func Reset(l Layout) error {
	for _, root := range []string{l.ManifestRoot, l.SampleRoot} {
		if err := checkRoot(root, l.Protected); err != nil {
			return err
		}
	}
	for _, root := range []string{l.ManifestRoot, l.SampleRoot} {
		if err := Clear(root); err != nil {
			return &ResetError{Path: root, Op: "remove", Err: err}
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return &ResetError{Path: root, Op: "create", Err: err}
		}
	}
	for _, p := range l.Partitions {
		for _, c := range l.Classes {
			dir := l.SampleDir(p, c)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return &ResetError{Path: dir, Op: "create", Err: err}
			}
		}
	}
	return nil
}

// Clear removes path recursively. Safe to call when it does not exist.
func Clear(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.RemoveAll(path)
}

func checkRoot(root string, protected []string) error {
	if strings.TrimSpace(root) == "" {
		return &ResetError{Path: root, Op: "check", Err: fmt.Errorf("%w: empty path", ErrUnsafeRoot)}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return &ResetError{Path: root, Op: "check", Err: err}
	}
	if abs == filepath.VolumeName(abs)+string(filepath.Separator) {
		return &ResetError{Path: root, Op: "check", Err: fmt.Errorf("%w: filesystem root", ErrUnsafeRoot)}
	}
	for _, p := range protected {
		if p == "" {
			continue
		}
		pAbs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if Within(abs, pAbs) {
			return &ResetError{Path: root, Op: "check", Err: fmt.Errorf("%w: would delete source folder %s", ErrUnsafeRoot, p)}
		}
	}
	return nil
}

// Within reports whether path equals dir or lies below it.
func Within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, "../"))
}

// WriteAtomic writes dest through a temporary sibling file that is synced and
// renamed into place. On any failure the temporary file is removed and dest
// is left untouched.
func WriteAtomic(dest string, write func(w io.Writer) error) error {
	dir := filepath.Dir(dest)
	tmp, f, err := createTempFile(dir, filepath.Base(dest))
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// createTempFile creates a temporary file in the target directory with a
// name derived from base (".tmp-<base>-<rand>"), returning its path and an
// *os.File ready for writing. Caller is responsible for closing it.
func createTempFile(dir, base string) (string, *os.File, error) {
	prefix := ".tmp-" + base + "-"
	f, err := os.CreateTemp(dir, prefix)
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}
