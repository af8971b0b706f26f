package work

import "sort"

// Status tags an outcome.
type Status int

const (
	// StatusPass means the item was checked and nothing needs reporting.
	StatusPass Status = iota
	// StatusOK means the item produced an artifact.
	StatusOK
	// StatusFailed means the item's action failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of applying an action to one item. Text is the line
// surfaced in the run log; an empty Text is never logged.
type Outcome struct {
	Item   string
	Status Status
	Text   string
}

// Pass returns a silent passing outcome.
func Pass(item string) Outcome {
	return Outcome{Item: item, Status: StatusPass}
}

// OK returns a success outcome carrying msg.
func OK(item, msg string) Outcome {
	return Outcome{Item: item, Status: StatusOK, Text: msg}
}

// Failed returns a failure outcome carrying msg.
func Failed(item, msg string) Outcome {
	return Outcome{Item: item, Status: StatusFailed, Text: msg}
}

// Flatten concatenates per-rank outcome lists in rank order.
func Flatten(perRank [][]Outcome) []Outcome {
	n := 0
	for _, r := range perRank {
		n += len(r)
	}
	out := make([]Outcome, 0, n)
	for _, r := range perRank {
		out = append(out, r...)
	}
	return out
}

// Reportable drops outcomes with empty text and sorts the rest by text so
// the log reads the same regardless of how items were sharded.
func Reportable(outcomes []Outcome) []Outcome {
	out := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Text != "" {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Text < out[j].Text
	})
	return out
}

// Count returns how many outcomes carry status s.
func Count(outcomes []Outcome, s Status) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}
