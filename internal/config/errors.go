package config

import "errors"

// ErrInvalidConfiguration marks configuration that must stop a run before
// any work is distributed.
var ErrInvalidConfiguration = errors.New("invalid configuration")
