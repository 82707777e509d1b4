package types

import "errors"

var (
	// ErrNoSavedState is returned when a persisted blob does not exist
	ErrNoSavedState = errors.New("no saved state")
	// ErrCorruptState is returned when a persisted blob cannot be decoded
	ErrCorruptState = errors.New("corrupt saved state")
)
