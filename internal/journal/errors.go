package journal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the trade id is unknown to the journal.
	ErrNotFound = errors.New("trade not found")
	// ErrTerminal means the entry is EXITED or CANCELLED and refuses mutation.
	ErrTerminal = errors.New("trade already closed")
	// ErrAlreadyFilled means a fill was recorded with a different price.
	ErrAlreadyFilled = errors.New("fill price already recorded")
)

// PersistError wraps a durable-write failure that survived the retry.
// It is surfaced as a hard failure: the mutation was NOT acknowledged.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("journal persist failed: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
