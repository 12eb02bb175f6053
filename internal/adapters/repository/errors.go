package repository

import "errors"

// Sentinel kinds for pool source errors.
var (
	ErrAlreadyWatching = errors.New("pool watcher already running")
	ErrEmptyPath       = errors.New("composition pool path is empty")
)
