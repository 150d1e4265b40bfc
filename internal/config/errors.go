package config

import (
	"errors"
)

// Load failures split into two kinds callers treat differently: a source
// that could not be read or parsed, and a parsed value that fails validation.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
