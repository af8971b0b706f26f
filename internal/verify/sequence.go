package verify

import (
	"fmt"
	"sort"
	"strings"

	"snapkeep/internal/series"
)

// CheckContiguous verifies that entries cover every number from the first
// to the last of each prefix. Entries are grouped by prefix and each group
// is checked on its own, in prefix order. kind names the entries in
// messages ("directories", "tar files").
//
// The gap scan covers [first, last): last is present by construction.
// Duplicated names count once. A name that does not parse fails the whole
// check.
func CheckContiguous(entries []string, layout series.Layout, kind string) (Report, error) {
	var r Report
	if len(entries) == 0 {
		return r, nil
	}

	parsed, err := parseSorted(entries, layout)
	if err != nil {
		return r, err
	}
	for _, group := range byPrefix(parsed) {
		checkGroup(&r, group, layout, kind)
	}
	return r, nil
}

func checkGroup(r *Report, parsed []series.Entry, layout series.Layout, kind string) {
	first, last := parsed[0], parsed[len(parsed)-1]
	present := nameSet(parsed)

	expected := last.Number - first.Number + 1
	if expected != len(present) {
		r.notice(fmt.Sprintf("*** MISSING %s. EXPECTED %d BUT FOUND %d ***", strings.ToUpper(kind), expected, len(present)))
		for _, name := range missing(present, layout, first.Prefix, first.Number, last.Number) {
			r.fail(fmt.Sprintf("*** MISSING: %s ***", name))
		}
		return
	}

	r.info(fmt.Sprintf("%d %s from %s to %s. OK", len(present), kind, first.Name, last.Name))
}

// byPrefix splits number-sorted entries into per-prefix groups, ordered by
// prefix. Each group keeps the number order.
func byPrefix(parsed []series.Entry) [][]series.Entry {
	groups := make(map[string][]series.Entry)
	var prefixes []string
	for _, e := range parsed {
		if _, ok := groups[e.Prefix]; !ok {
			prefixes = append(prefixes, e.Prefix)
		}
		groups[e.Prefix] = append(groups[e.Prefix], e)
	}
	sort.Strings(prefixes)
	out := make([][]series.Entry, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, groups[p])
	}
	return out
}

func parseSorted(names []string, layout series.Layout) ([]series.Entry, error) {
	parsed := make([]series.Entry, 0, len(names))
	for _, name := range names {
		e, err := layout.Parse(name)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, e)
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Number < parsed[j].Number
	})
	return parsed, nil
}

func nameSet(entries []series.Entry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.Name] = struct{}{}
	}
	return set
}

// missing renders every number in [from, to) and returns those not present.
func missing(present map[string]struct{}, layout series.Layout, prefix string, from, to int) []string {
	var out []string
	for i := from; i < to; i++ {
		name := layout.Render(prefix, i)
		if _, ok := present[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
