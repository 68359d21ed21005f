package engine

import "errors"

// Error kinds the engine surfaces to callers.
var (
	// ErrNoFileOpened is returned by Save when no path was given and none is
	// remembered from a prior Load/Save.
	ErrNoFileOpened = errors.New("sdam: no file opened")

	// ErrMarkNotFound is returned by GetMark/EditMark for an unknown id.
	// DeleteMark does not return this; it reports a bool instead.
	ErrMarkNotFound = errors.New("sdam: mark not found")

	// ErrDeserialization wraps a malformed session file.
	ErrDeserialization = errors.New("sdam: malformed session file")

	// ErrIO wraps a failure to read or write a session file on disk.
	ErrIO = errors.New("sdam: io error")

	// ErrDevice wraps a failure to acquire an audio device or build a stream.
	// Construction-time device failures are fatal; see NewEngine.
	ErrDevice = errors.New("sdam: audio device error")

	// ErrInvalidCategory is returned when constructing a Mark whose category
	// is 0: every mark's category must be >= 1.
	ErrInvalidCategory = errors.New("sdam: mark category must be >= 1")
)
