package workspace

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkspaceReset is the kind of every *ResetError.
	ErrWorkspaceReset = errors.New("workspace reset failed")
	// ErrUnsafeRoot marks an output root that Reset refuses to delete.
	ErrUnsafeRoot = errors.New("unsafe output root")
)

// ResetError reports an output root that could not be removed or recreated.
type ResetError struct {
	Path string
	Op   string // check, remove, create
	Err  error
}

func (e *ResetError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrWorkspaceReset, e.Op, e.Path, e.Err)
}

func (e *ResetError) Is(target error) bool { return target == ErrWorkspaceReset }

func (e *ResetError) Unwrap() error { return e.Err }
