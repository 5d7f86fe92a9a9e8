package core

import "errors"

var (
	// ErrInvalidConfiguration reports a time scale or scene setting that would
	// make a rate derivation divide by zero or produce NaN.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDegenerateGeometry reports an orbit that cannot be solved, such as a
	// negative or zero radius, or a position that became non-finite.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrBodyNotFound is returned for an unknown BodyID or name.
	ErrBodyNotFound = errors.New("body not found")
	// ErrNotRoot is returned when a root-only operation targets a child.
	ErrNotRoot = errors.New("body is not a root")
)
