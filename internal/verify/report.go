// Package verify checks that numbered entries form an unbroken sequence and
// that every entry directory holds its expected, non-empty files.
//
// Checks never write to a log directly. They accumulate a Report which the
// caller emits once into the run log.
package verify

// Sink receives report lines. logging.RunLog implements it.
type Sink interface {
	Print(msg string)
	Echo(msg string)
	Blank(echo bool)
}

// Line is one diagnostic line.
type Line struct {
	Text string
	Echo bool // also shown on the terminal
	Gap  bool // preceded by a blank separator line
}

// Report accumulates an error count and diagnostic lines.
type Report struct {
	Errors int
	Lines  []Line
}

// info records a file-only line.
func (r *Report) info(msg string) {
	r.Lines = append(r.Lines, Line{Text: msg})
}

// notice records an echoed line without counting an error.
func (r *Report) notice(msg string) {
	r.Lines = append(r.Lines, Line{Text: msg, Echo: true})
}

// fail records an echoed line and counts one error.
func (r *Report) fail(msg string) {
	r.notice(msg)
	r.Errors++
}

// Merge appends other's lines and errors.
func (r *Report) Merge(other Report) {
	r.Errors += other.Errors
	r.Lines = append(r.Lines, other.Lines...)
}

// OK reports whether no errors were counted.
func (r Report) OK() bool {
	return r.Errors == 0
}

// Texts returns the line texts in order.
func (r Report) Texts() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Text
	}
	return out
}

// Emit writes every line to sink.
func (r Report) Emit(sink Sink) {
	for _, l := range r.Lines {
		if l.Gap {
			sink.Blank(l.Echo)
		}
		if l.Echo {
			sink.Echo(l.Text)
		} else {
			sink.Print(l.Text)
		}
	}
}
