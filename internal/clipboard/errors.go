package clipboard

import (
	"fmt"
	"time"
)

// TimeoutError reports that focus was not regained within the wait budget.
type TimeoutError struct {
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("clipboard: focus not regained within %s", e.Waited)
}

// WriteError reports that the underlying clipboard write rejected after
// focus was confirmed (e.g. permission denied).
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("clipboard: write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
