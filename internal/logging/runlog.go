package logging

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// RunLog is the human-readable report of one run. Every line goes to the log
// file; lines written with Echo are also shown on the operator's terminal.
// The file is appended to if it exists and created otherwise.
type RunLog struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
	out  io.Writer

	alert lipgloss.Style
	plain lipgloss.Style
}

// OpenRunLog opens path for appending. out receives echoed lines; nil means
// nothing is echoed.
func OpenRunLog(path string, out io.Writer) (*RunLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log %s: %w", path, err)
	}
	if out == nil {
		out = io.Discard
	}
	renderer := lipgloss.NewRenderer(out)
	return &RunLog{
		path:  path,
		file:  file,
		buf:   bufio.NewWriter(file),
		out:   out,
		alert: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		plain: renderer.NewStyle(),
	}, nil
}

// Path returns the log file path.
func (l *RunLog) Path() string {
	return l.path
}

// Print writes msg to the log file only.
func (l *RunLog) Print(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.buf, "%s\n", msg)
}

// Echo writes msg to the log file and to the terminal.
func (l *RunLog) Echo(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.buf, "%s\n", msg)
	fmt.Fprintln(l.out, l.style(msg).Render(msg))
}

// Blank writes an empty separator line, echoing it when echo is set.
func (l *RunLog) Blank(echo bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.buf, "\n")
	if echo {
		fmt.Fprintln(l.out)
	}
}

// Flush pushes buffered lines to the file.
func (l *RunLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Flush()
}

// Close flushes and closes the log file.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	ferr := l.buf.Flush()
	cerr := l.file.Close()
	l.file = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}

func (l *RunLog) style(msg string) lipgloss.Style {
	if strings.HasPrefix(msg, "***") {
		return l.alert
	}
	return l.plain
}
