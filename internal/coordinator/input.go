package coordinator

import (
	"path/filepath"

	"snapkeep/internal/series"
)

// Series is one named, sorted list of entries.
type Series struct {
	Label   string
	Entries []string
}

// Input is the work list of one run. Entries are relative to Root.
type Input struct {
	Root   string
	Layout series.Layout
	Series []Series
}

// Discover lists every configured series in root, in prefix order.
func Discover(root string, layout series.Layout, prefixes []string) (Input, error) {
	in := Input{Root: root, Layout: layout}
	for _, p := range prefixes {
		names, err := layout.Discover(root, p)
		if err != nil {
			return Input{}, err
		}
		in.Series = append(in.Series, Series{Label: p, Entries: names})
	}
	return in, nil
}

// FromManifest reads the work list from a manifest file. The whole list is
// treated as one series reported under label.
func FromManifest(root, path string, layout series.Layout, label string) (Input, error) {
	names, err := series.ReadManifest(path)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Root:   root,
		Layout: layout,
		Series: []Series{{Label: label, Entries: names}},
	}, nil
}

// Items returns every entry of every series as a path under Root.
func (in Input) Items() []string {
	var items []string
	for _, s := range in.Series {
		for _, e := range s.Entries {
			items = append(items, filepath.Join(in.Root, e))
		}
	}
	return items
}
