package materialize

import (
	"errors"
	"fmt"
)

// ErrCopySourceUnreadable is the kind of every *CopySourceUnreadableError.
var ErrCopySourceUnreadable = errors.New("copy source unreadable")

// CopySourceUnreadableError reports a planned sample whose bytes could not be
// read at copy time, typically because it vanished after enumeration.
type CopySourceUnreadableError struct {
	Source string
	Dest   string
	Err    error
}

func (e *CopySourceUnreadableError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s -> %s: %v", ErrCopySourceUnreadable, e.Source, e.Dest, e.Err)
}

func (e *CopySourceUnreadableError) Is(target error) bool { return target == ErrCopySourceUnreadable }

func (e *CopySourceUnreadableError) Unwrap() error { return e.Err }
