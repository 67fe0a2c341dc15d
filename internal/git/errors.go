package git

import "errors"

var (
	ErrRepositoryNotFound      = errors.New("repository not found")
	ErrCloneFailed             = errors.New("failed to clone repository")
	ErrPullFailed              = errors.New("failed to pull repository")
	ErrNotFastForward          = errors.New("local history diverged from remote")
	ErrDirtyWorktree           = errors.New("worktree has local changes")
	ErrInvalidRepository       = errors.New("invalid repository")
	ErrRepositoryAlreadyExists = errors.New("repository already exists")
	ErrCleanupFailed           = errors.New("failed to cleanup repository")
	ErrTimeout                 = errors.New("operation timeout")
	ErrOperationCancelled      = errors.New("operation cancelled")
)
