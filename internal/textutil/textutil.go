// Package textutil cleans manifest text that may have been edited outside this
// tool, for example saved from a spreadsheet with a BOM and CRLF endings.
package textutil

import (
	"bytes"
	"strings"
)

var bom = []byte("\xef\xbb\xbf")

// Clean drops a leading BOM, turns CRLF and lone CR into LF, and replaces
// invalid UTF-8 with U+FFFD.
func Clean(b []byte) []byte {
	b = bytes.TrimPrefix(b, bom)
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return bytes.ToValidUTF8(b, []byte("\uFFFD"))
}

// Lines returns the cleaned rows of a manifest, each ending in "\n". A final
// row without a newline gets one.
func Lines(b []byte) []string {
	b = Clean(b)
	if len(b) == 0 {
		return []string{}
	}
	if b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	lines := strings.SplitAfter(string(b), "\n")
	return lines[:len(lines)-1]
}
