package verify

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"snapkeep/internal/series"
)

// EntryOptions configures CheckEntry.
type EntryOptions struct {
	// MemberTag names numbered member files: <entry>.<tag>NNNN.
	MemberTag string
	// MemberWidth is the digit count of member numbers.
	MemberWidth int
	// CompanionSuffixes must each exist non-empty as <entry><suffix>.
	CompanionSuffixes []string
}

// CheckEntry verifies the directory root/entry. Member files must be
// numbered contiguously from zero and be non-empty; every companion file must
// exist and be non-empty. Paths in messages are relative to root.
func CheckEntry(root, entry string, opts EntryOptions) (Report, error) {
	var r Report
	dir := filepath.Join(root, entry)
	base := filepath.Base(entry)
	width := opts.MemberWidth
	if width <= 0 {
		width = 4
	}

	pattern := filepath.Join(dir, base+"."+opts.MemberTag+strings.Repeat("?", width))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return r, fmt.Errorf("list members of %s: %w", entry, err)
	}

	if len(matches) == 0 {
		r.notice(fmt.Sprintf("*** NO %s FILES IN %s ***", strings.ToUpper(opts.MemberTag), entry))
	} else {
		members := make([]string, len(matches))
		for i, m := range matches {
			members[i] = filepath.Join(entry, filepath.Base(m))
		}
		sort.Strings(members)
		if err := checkMembers(&r, root, entry, members, opts.MemberTag, width); err != nil {
			return r, err
		}
	}

	for _, suffix := range opts.CompanionSuffixes {
		name := base + suffix
		info, err := os.Stat(filepath.Join(dir, name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			r.fail(fmt.Sprintf("*** %s MISSING ***", name))
		case err != nil:
			r.fail(fmt.Sprintf("*** %s UNREADABLE: %v ***", name, err))
		case info.Size() == 0:
			r.fail(fmt.Sprintf("*** %s FILE IS ZERO-SIZED ***", name))
		}
	}
	return r, nil
}

func checkMembers(r *Report, root, entry string, members []string, tag string, width int) error {
	layout := series.Layout{PrefixLen: len(tag), SuffixWidth: width}
	parsed, err := parseSorted(members, layout)
	if err != nil {
		return err
	}
	present := nameSet(parsed)
	last := parsed[len(parsed)-1]

	// Member numbering always starts at zero.
	expected := last.Number + 1
	if expected != len(present) {
		r.notice(fmt.Sprintf("*** MISSING %s FILES IN %s. EXPECTED %d BUT FOUND %d ***",
			strings.ToUpper(tag), entry, expected, len(present)))
		for _, name := range missing(present, layout, last.Prefix, 0, last.Number) {
			r.fail(fmt.Sprintf("*** MISSING: %s ***", name))
		}
	} else {
		r.info(fmt.Sprintf("%d %s files in %s. OK", len(present), tag, entry))
	}

	for _, m := range members {
		info, err := os.Stat(filepath.Join(root, m))
		if err != nil {
			r.fail(fmt.Sprintf("*** %s UNREADABLE: %v ***", m, err))
			continue
		}
		if info.Size() == 0 {
			r.fail(fmt.Sprintf("*** %s FILE IS ZERO-SIZED ***", m))
		}
	}
	return nil
}
