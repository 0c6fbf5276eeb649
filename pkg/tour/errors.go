package tour

import (
	"errors"
	"fmt"
)

// Sentinel errors. None of them is fatal to a session: callers log them and the
// sequencer surfaces a notice to the visitor.
var (
	// ErrDataUnavailable is returned when the stop list failed to load or is empty.
	ErrDataUnavailable = errors.New("tour: stop data unavailable")

	// ErrInvalidWaypoint is returned when a stop has an unparsable position,
	// rotation or an unknown look-at target.
	ErrInvalidWaypoint = errors.New("tour: invalid waypoint")

	// ErrNoPosition is returned by Stop.Location for stops without a position.
	ErrNoPosition = errors.New("tour: stop has no position")

	// ErrOutOfRange is returned by next/prev at either end and by jumps to a
	// missing index.
	ErrOutOfRange = errors.New("tour: stop index out of range")

	// ErrNotRunning is returned by navigation that needs a running tour.
	ErrNotRunning = errors.New("tour: not running")

	// ErrTourActive is returned by free-exploration jumps while a tour runs.
	ErrTourActive = errors.New("tour: tour is running")

	// ErrNotAtStop is returned when the visitor asks for a description mid-transition.
	ErrNotAtStop = errors.New("tour: not at a stop")
)

// WaypointError describes which field of which stop could not be used.
type WaypointError struct {
	Index int
	Field string
	Err   error
}

// Error implements the error interface.
func (e *WaypointError) Error() string {
	return fmt.Sprintf("tour: stop %d: invalid %s: %v", e.Index, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *WaypointError) Unwrap() error {
	return e.Err
}

// Is makes every WaypointError match ErrInvalidWaypoint.
func (e *WaypointError) Is(target error) bool {
	return target == ErrInvalidWaypoint
}

// SourceError wraps a load failure with the name of the source.
type SourceError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("tour [%s]: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is makes every SourceError match ErrDataUnavailable.
func (e *SourceError) Is(target error) bool {
	return target == ErrDataUnavailable
}

func wrapSource(source string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Source: source, Err: err}
}
