package reconciler

import "errors"

var (
	ErrPassAborted = errors.New("pass aborted")
)

const (
	exitCodeFailures       = 1
	exitCodeAuthentication = 2
)
