package config

import "errors"

// Sentinel error kinds for configuration. Validate wraps ErrInvalidConfig
// with the offending key; Load wraps ErrLoadConfig around koanf failures.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("failed to load configuration")
)
