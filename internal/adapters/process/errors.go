package process

import "errors"

// Sentinel kinds for process errors.
var (
	ErrTimeout   = errors.New("process timed out")
	ErrNoCommand = errors.New("no command configured")
)
