package verify

import (
	"fmt"

	"snapkeep/internal/logging"
	"snapkeep/internal/series"
)

// SeriesCheck describes one series-level check.
type SeriesCheck struct {
	Label  string        // series tag used in messages, e.g. "DD"
	Kind   string        // "directories" or "tar files"
	Verb   string        // "Checking directories" or "Verifying tar files"
	Layout series.Layout // layout of the names, including any file suffix
	Gap    bool          // separate a non-empty series from the previous one

	// Root holds the entries; Entry enables per-entry content checks.
	Root  string
	Entry *EntryOptions
}

// CheckSeries runs the contiguity check over entries and, when configured,
// the content check of every entry. An empty series is reported but is not
// an error.
func CheckSeries(entries []string, c SeriesCheck) (Report, error) {
	var r Report
	if len(entries) == 0 {
		msg := fmt.Sprintf("No %s files present.", c.Label)
		if c.Kind != "" && c.Kind != "directories" {
			msg = fmt.Sprintf("No %s %s present.", c.Label, c.Kind)
		}
		r.notice(msg)
		return r, nil
	}

	r.Lines = append(r.Lines, Line{
		Text: fmt.Sprintf("%s from %s to %s.", c.Verb, entries[0], entries[len(entries)-1]),
		Echo: true,
		Gap:  c.Gap,
	})

	seq, err := CheckContiguous(entries, c.Layout, c.Kind)
	if err != nil {
		return r, err
	}
	r.Merge(seq)
	logging.Verify("%s %s..%s: %d sequence errors", c.Label, entries[0], entries[len(entries)-1], seq.Errors)

	if c.Entry == nil {
		return r, nil
	}
	for _, e := range entries {
		er, err := CheckEntry(c.Root, e, *c.Entry)
		if err != nil {
			return r, err
		}
		logging.VerifyDebug("%s: %d content errors", e, er.Errors)
		r.Merge(er)
	}
	return r, nil
}
