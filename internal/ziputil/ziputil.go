// Package ziputil packs the split output roots into a reproducible zip:
// fixed timestamps, fixed modes, entries in lexical order.
package ziputil

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"dataset-splitter/internal/workspace"
)

// FixedZipTime ensures byte-for-byte reproducible archives (1980-01-01 UTC).
var FixedZipTime = time.Unix(315532800, 0).UTC()

// Tree is one directory added to the archive under Prefix.
type Tree struct {
	Dir    string
	Prefix string
}

// entryName places rel under prefix using forward slashes. ".." segments
// cannot climb above the archive root.
func entryName(prefix, rel string) string {
	return strings.TrimPrefix(path.Join("/", prefix, filepath.ToSlash(rel)), "/")
}

// WriteTree writes every regular file below the given trees into zipPath and
// returns the number of entries. Temporary files left by atomic writes and
// the archive itself are skipped.
func WriteTree(zipPath string, trees []Tree) (int, error) {
	if err := os.MkdirAll(filepath.Dir(zipPath), 0o755); err != nil {
		return 0, err
	}
	self, _ := filepath.Abs(zipPath)
	n := 0
	err := workspace.WriteAtomic(zipPath, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, t := range trees {
			err := filepath.WalkDir(t.Dir, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() || !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".tmp-") {
					return nil
				}
				if abs, _ := filepath.Abs(p); abs == self {
					return nil
				}
				rel, err := filepath.Rel(t.Dir, p)
				if err != nil {
					return err
				}
				if err := addFile(zw, entryName(t.Prefix, rel), p); err != nil {
					return err
				}
				n++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// addFile streams one sample or manifest into the archive with a fixed
// timestamp and mode.
func addFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	h := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: FixedZipTime}
	h.SetMode(0o644)
	w, err := zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	return nil
}
