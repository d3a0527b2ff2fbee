package domain

import "errors"

var (
	ErrSerializationFailure  = errors.New("serialization failure")
	ErrNotFound              = errors.New("not found")
	ErrRoomNotAvailable      = errors.New("room not available")
	ErrInvalidState          = errors.New("invalid state transition")
	ErrInvalidInput          = errors.New("invalid input")
	ErrVersionConflict       = errors.New("version conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
