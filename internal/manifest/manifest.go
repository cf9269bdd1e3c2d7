// Package manifest writes and reads the per-(class, partition) sample lists.
// A manifest is a single-column CSV file named <class>_<partition>.csv with
// one sample identifier per record, in assignment plan order.
package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dataset-splitter/internal/plan"
	"dataset-splitter/internal/textutil"
	"dataset-splitter/internal/workspace"
)

// Ext is the manifest file extension.
const Ext = ".csv"

// FileName returns "<class>_<partition>.csv".
func FileName(class, partition string) string {
	return class + "_" + partition + Ext
}

// Path returns the manifest path under root.
func Path(root, class, partition string) string {
	return filepath.Join(root, FileName(class, partition))
}

// Written is one manifest produced by Write.
type Written struct {
	Class     string
	Partition string
	Path      string
	Names     []string
}

// Write emits one manifest per bucket of a, replacing any existing file.
func Write(root string, a plan.Assignment) ([]Written, error) {
	out := make([]Written, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		names := b.Names()
		p := Path(root, a.Class, b.Partition)
		if err := workspace.WriteAtomic(p, func(w io.Writer) error {
			return Encode(w, names)
		}); err != nil {
			return nil, fmt.Errorf("write manifest %s: %w", p, err)
		}
		out = append(out, Written{Class: a.Class, Partition: b.Partition, Path: p, Names: names})
	}
	return out, nil
}

// Encode writes names as single-field CSV records with LF line endings.
func Encode(w io.Writer, names []string) error {
	cw := csv.NewWriter(w)
	for _, n := range names {
		if err := cw.Write([]string{n}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode parses a manifest body. CRLF line endings and a BOM are accepted.
func Decode(data []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(textutil.Clean(data)))
	r.FieldsPerRecord = 1
	var names []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, rec[0])
	}
	return names, nil
}

// Read loads the manifest at path.
func Read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	names, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return names, nil
}

// Snapshot returns the raw bytes of every manifest file directly under root,
// keyed by file name. A root that is missing or not a directory yields an
// empty map.
func Snapshot(root string) (map[string][]byte, error) {
	info, err := os.Lstat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string][]byte{}, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return map[string][]byte{}, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		b, err := os.ReadFile(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		out[e.Name()] = b
	}
	return out, nil
}

// SplitID computes a canonical hash over manifest rows. It concatenates
// lines "<class>/<partition>:<name>\n" sorted bytewise and returns the
// lowercase hex SHA-256. Equal splits give equal ids whatever the run order.
func SplitID(ws []Written) string {
	var lines []string
	for _, w := range ws {
		for _, n := range w.Names {
			lines = append(lines, w.Class+"/"+w.Partition+":"+n)
		}
	}
	sort.Strings(lines)
	var buf bytes.Buffer
	for _, ln := range lines {
		buf.WriteString(ln)
		buf.WriteByte('\n')
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
