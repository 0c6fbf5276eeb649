package mode

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a mode change is not one of the allowed edges.
var ErrInvalidTransition = errors.New("mode: invalid transition")

// TransitionError records the rejected edge.
type TransitionError struct {
	From Mode
	To   Mode
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("mode: cannot go from %s to %s", e.From, e.To)
}

// Unwrap returns ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
