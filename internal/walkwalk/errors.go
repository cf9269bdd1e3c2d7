package walkwalk

import (
	"errors"
	"fmt"
)

// ErrMissingSource is the kind of every *MissingSourceError.
var ErrMissingSource = errors.New("missing source folder")

// MissingSourceError reports a canonical class folder that does not exist.
type MissingSourceError struct {
	Class string
	Path  string
	Err   error
}

func (e *MissingSourceError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: class %q: %s", ErrMissingSource, e.Class, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrMissingSource so callers need not know the concrete type.
func (e *MissingSourceError) Is(target error) bool { return target == ErrMissingSource }

func (e *MissingSourceError) Unwrap() error { return e.Err }
