// Package walkwalk lists the sample files of one class folder. Listings are
// flat (subfolders are never descended into) and sorted by name so that a
// split built from them is reproducible.
package walkwalk

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"dataset-splitter/internal/sortutil"
)

// Source tells which folder a sample was enumerated from.
type Source int

const (
	Canonical Source = iota
	Augmented
)

func (s Source) String() string {
	switch s {
	case Canonical:
		return "canonical"
	case Augmented:
		return "augmented"
	default:
		return "unknown"
	}
}

// Sample is one enumerated file.
type Sample struct {
	Name   string // file name, the sample identifier
	Path   string // path of the file on disk
	Source Source
}

// Folder describes one folder to enumerate.
type Folder struct {
	Class  string
	Dir    string
	Source Source
	// Exts filters by lowercase extension including the dot. Nil accepts all.
	Exts map[string]struct{}
}

// Samples yields the samples of f in name order. A missing canonical folder
// yields a single *MissingSourceError; a missing augmented folder yields
// nothing.
func Samples(f Folder) iter.Seq2[Sample, error] {
	return func(yield func(Sample, error) bool) {
		names, err := listNames(f)
		if err != nil {
			yield(Sample{}, err)
			return
		}
		for _, name := range names {
			s := Sample{Name: name, Path: filepath.Join(f.Dir, name), Source: f.Source}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Enumerate collects Samples(f) into a slice.
func Enumerate(f Folder) ([]Sample, error) {
	var out []Sample
	for s, err := range Samples(f) {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// CheckFolder reports a *MissingSourceError when a canonical folder is absent
// or not a directory. Augmented folders always pass.
func CheckFolder(f Folder) error {
	if f.Source != Canonical {
		return nil
	}
	info, err := os.Stat(f.Dir)
	if err != nil {
		return &MissingSourceError{Class: f.Class, Path: f.Dir, Err: err}
	}
	if !info.IsDir() {
		return &MissingSourceError{Class: f.Class, Path: f.Dir, Err: errNotDir}
	}
	return nil
}

var errNotDir = errors.New("not a directory")

func listNames(f Folder) ([]string, error) {
	if f.Dir == "" {
		if f.Source == Canonical {
			return nil, &MissingSourceError{Class: f.Class, Path: f.Dir, Err: fs.ErrNotExist}
		}
		return nil, nil
	}
	if err := CheckFolder(f); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		if f.Source == Augmented && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if f.Source == Augmented {
			// a file named like the augmented folder is treated as no folder
			if info, serr := os.Stat(f.Dir); serr == nil && !info.IsDir() {
				return nil, nil
			}
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !keep(f.Dir, e, f.Exts) {
			continue
		}
		names = append(names, e.Name())
	}
	return sortutil.StablePathSort(names), nil
}

// keep reports whether a directory entry is a selectable sample file.
func keep(dir string, e fs.DirEntry, exts map[string]struct{}) bool {
	name := e.Name()
	if strings.HasPrefix(name, ".") {
		return false
	}
	if e.IsDir() {
		return false
	}
	if isSymlink(e) {
		// follow the link once; dangling or directory targets are skipped
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	} else if !e.Type().IsRegular() {
		return false
	}
	if len(exts) == 0 {
		return true
	}
	_, ok := exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// isSymlink reports whether the DirEntry is a symlink (file or directory).
func isSymlink(d fs.DirEntry) bool {
	return d.Type()&fs.ModeSymlink != 0
}

// SHA256File computes a hex-encoded sha256 for the file at path.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
