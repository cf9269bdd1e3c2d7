// Package diff renders the change between two versions of a manifest as a
// unified patch, using github.com/pmezard/go-difflib/difflib.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"dataset-splitter/internal/textutil"
)

// Options controls patch generation.
type Options struct {
	// MaxBytes caps old+new input size; above it a placeholder is returned
	// and oversize is true. 0 means no limit.
	MaxBytes int
	// Context lines around each hunk. If 0, default to 3.
	Context int
}

// Unified returns a unified patch from before to after for the manifest
// called name. Equal inputs return "". A missing side is passed as nil and
// rendered against /dev/null.
func Unified(name string, before, after []byte, opt Options) (patch string, oversize bool) {
	if bytes.Equal(before, after) {
		return "", false
	}
	from, to := "a/"+name, "b/"+name
	if before == nil {
		from = "/dev/null"
	}
	if after == nil {
		to = "/dev/null"
	}
	if opt.MaxBytes > 0 && len(before)+len(after) > opt.MaxBytes {
		return omitted(from, to), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 3
	}
	u := difflib.UnifiedDiff{
		A:        textutil.Lines(before),
		B:        textutil.Lines(after),
		FromFile: from,
		ToFile:   to,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(from, to), false
	}
	// "" when only line endings or a BOM differ
	return s, false
}

// Stat counts added and removed lines in a unified patch.
func Stat(patch string) (added, removed int) {
	for _, ln := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(ln, "+++"), strings.HasPrefix(ln, "---"):
		case strings.HasPrefix(ln, "+"):
			added++
		case strings.HasPrefix(ln, "-"):
			removed++
		}
	}
	return added, removed
}


func omitted(from, to string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@ diff omitted @@\n", from, to)
}
