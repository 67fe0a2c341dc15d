package mirrors

import "errors"

var (
	ErrInvalidDescriptor = errors.New("invalid repository descriptor")
	ErrCorruptMirror     = errors.New("mirror path is not a valid working copy")
	ErrCloneFailure      = errors.New("failed to clone mirror")
	ErrUpdateFailure     = errors.New("failed to update mirror")
	ErrRecloneFailure    = errors.New("failed to reclone mirror")

	ErrNotFound = errors.New("mirror not found")
)
