// Package record persists a description of a finished split run next to the
// manifests, and verifies a sample root against it later.
//
// Conventions:
//   - The record lives at <manifest_root>/split.json.
//   - It is written atomically (temp file + rename), so a reader sees either
//     the previous complete record or the new one.
//   - FormatVersion is bumped when the schema changes.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dataset-splitter/internal/walkwalk"
	"dataset-splitter/internal/workspace"
)

const (
	// FileName is the record file name inside the manifest root.
	FileName      = "split.json"
	formatVersion = "1"
)

// File is one materialized sample.
type File struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Origin string `json:"origin"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Partition lists the files of one (class, partition).
type Partition struct {
	Name     string `json:"name"`
	Manifest string `json:"manifest"`
	Files    []File `json:"files"`
}

// Class groups the partitions of one class.
type Class struct {
	Name       string      `json:"name"`
	Shadowed   int         `json:"shadowed"`
	Partitions []Partition `json:"partitions"`
}

// Record describes one run.
type Record struct {
	RunID         string  `json:"runId"`
	Created       string  `json:"created"`
	FormatVersion string  `json:"formatVersion"`
	SplitID       string  `json:"splitId"`
	Shuffle       bool    `json:"shuffle"`
	Seed          int64   `json:"seed"`
	SampleRoot    string  `json:"sampleRoot"`
	Classes       []Class `json:"classes"`
}

// Path returns the record path for a manifest root.
func Path(manifestRoot string) string {
	return filepath.Join(manifestRoot, FileName)
}

// Load reads the record from <manifestRoot>/split.json. A missing record
// returns (nil, nil).
func Load(manifestRoot string) (*Record, error) {
	b, err := os.ReadFile(Path(manifestRoot))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return &r, nil
}

// Save writes r atomically to <manifestRoot>/split.json.
func Save(manifestRoot string, r *Record) error {
	if r.FormatVersion == "" {
		r.FormatVersion = formatVersion
	}
	return workspace.WriteAtomic(Path(manifestRoot), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	})
}

// Problem is one mismatch found by Verify.
type Problem struct {
	Path   string
	Reason string // missing, modified, unexpected
}

// Verify re-hashes every recorded file under sampleRoot and reports missing
// or modified files, plus files present on disk that the record does not
// list. An empty result means the sample root matches the record.
func Verify(r *Record, sampleRoot string) ([]Problem, error) {
	var problems []Problem
	for _, c := range r.Classes {
		for _, p := range c.Partitions {
			dir := filepath.Join(sampleRoot, p.Name, c.Name)
			listed := make(map[string]struct{}, len(p.Files))
			for _, f := range p.Files {
				listed[f.Name] = struct{}{}
				path := filepath.Join(dir, f.Name)
				sum, err := walkwalk.SHA256File(path)
				switch {
				case errors.Is(err, os.ErrNotExist):
					problems = append(problems, Problem{Path: path, Reason: "missing"})
				case err != nil:
					return nil, err
				case sum != f.SHA256:
					problems = append(problems, Problem{Path: path, Reason: "modified"})
				}
			}
			onDisk, err := walkwalk.Enumerate(walkwalk.Folder{Class: c.Name, Dir: dir, Source: walkwalk.Augmented})
			if err != nil {
				return nil, err
			}
			for _, s := range onDisk {
				if _, ok := listed[s.Name]; !ok {
					problems = append(problems, Problem{Path: s.Path, Reason: "unexpected"})
				}
			}
		}
	}
	return problems, nil
}
