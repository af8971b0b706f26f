package config

import (
	"fmt"
	"time"
)

// Integrity check modes.
const (
	IntegrityExec   = "exec"   // external command, e.g. gzip -t
	IntegrityStream = "stream" // in-process gzip/tar read-through
)

// ArchiveConfig configures archive naming and integrity checks.
type ArchiveConfig struct {
	Suffix           string   `yaml:"suffix"`
	Integrity        string   `yaml:"integrity"`
	IntegrityCommand []string `yaml:"integrity_command"`
	CheckTimeout     string   `yaml:"check_timeout"` // per archive; empty or "0" waits forever
}

func (a ArchiveConfig) validate() error {
	if a.Suffix == "" {
		return fmt.Errorf("%w: archive.suffix must be set", ErrInvalidConfiguration)
	}
	if a.CheckTimeout != "" {
		if d, err := time.ParseDuration(a.CheckTimeout); err != nil || d < 0 {
			return fmt.Errorf("%w: invalid archive.check_timeout %q", ErrInvalidConfiguration, a.CheckTimeout)
		}
	}
	switch a.Integrity {
	case IntegrityExec:
		if len(a.IntegrityCommand) == 0 {
			return fmt.Errorf("%w: archive.integrity_command is empty", ErrInvalidConfiguration)
		}
	case IntegrityStream:
	default:
		return fmt.Errorf("%w: unknown integrity mode %q (valid: %s, %s)",
			ErrInvalidConfiguration, a.Integrity, IntegrityExec, IntegrityStream)
	}
	return nil
}
