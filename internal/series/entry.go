// Package series parses and discovers numbered entries such as DD0042 or
// RD0007.tar.gz: an alphabetic series tag, a fixed-width zero-padded number,
// and an optional file suffix.
package series

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrMalformedEntry is returned when a name does not match the series layout.
var ErrMalformedEntry = errors.New("malformed entry name")

// Layout describes how entry names are built.
type Layout struct {
	PrefixLen   int    // letters in the series tag
	SuffixWidth int    // digits in the number
	FileSuffix  string // trailing suffix such as ".tar.gz"; may be empty
}

// DefaultLayout is the DD0000 layout.
var DefaultLayout = Layout{PrefixLen: 2, SuffixWidth: 4}

// WithFileSuffix returns a copy of the layout using suffix.
func (l Layout) WithFileSuffix(suffix string) Layout {
	l.FileSuffix = suffix
	return l
}

// Entry is a parsed numbered entry.
type Entry struct {
	Prefix string // everything before the number, including any directory
	Number int
	Name   string // the original name
}

// Parse splits name into prefix and number. Anything preceding the series
// tag (a directory, say) stays part of the prefix.
func (l Layout) Parse(name string) (Entry, error) {
	stem := name
	if l.FileSuffix != "" {
		if !strings.HasSuffix(name, l.FileSuffix) {
			return Entry{}, fmt.Errorf("%w: %q lacks suffix %q", ErrMalformedEntry, name, l.FileSuffix)
		}
		stem = strings.TrimSuffix(name, l.FileSuffix)
	}
	if len(stem) < l.PrefixLen+l.SuffixWidth {
		return Entry{}, fmt.Errorf("%w: %q is shorter than %d characters", ErrMalformedEntry, name, l.PrefixLen+l.SuffixWidth)
	}

	split := len(stem) - l.SuffixWidth
	digits := stem[split:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Entry{}, fmt.Errorf("%w: %q has non-numeric suffix %q", ErrMalformedEntry, name, digits)
		}
	}
	for _, r := range stem[split-l.PrefixLen : split] {
		if !unicode.IsLetter(r) {
			return Entry{}, fmt.Errorf("%w: %q has no %d-letter series tag", ErrMalformedEntry, name, l.PrefixLen)
		}
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %q: %v", ErrMalformedEntry, name, err)
	}
	return Entry{Prefix: stem[:split], Number: n, Name: name}, nil
}

// Render builds the name for number n in the series of prefix.
func (l Layout) Render(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d%s", prefix, l.SuffixWidth, n, l.FileSuffix)
}
