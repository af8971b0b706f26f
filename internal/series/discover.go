package series

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover lists names in dir matching <prefix> + SuffixWidth characters +
// FileSuffix, sorted. Names are relative to dir. Non-numeric matches are
// kept so the validator can reject them.
func (l Layout) Discover(dir, prefix string) ([]string, error) {
	pattern := filepath.Join(dir, prefix+strings.Repeat("?", l.SuffixWidth)+l.FileSuffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", pattern, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

// ReadManifest reads one item name per line. Blank lines are skipped and the
// result is sorted.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var items []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	sort.Strings(items)
	return items, nil
}
