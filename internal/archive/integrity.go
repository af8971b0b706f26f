package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"snapkeep/internal/logging"
	"snapkeep/internal/work"
)

// Checker verifies one archive. A Pass outcome means nothing to report; a
// Failed outcome carries the diagnostic text.
type Checker interface {
	Verify(ctx context.Context, archivePath string) work.Outcome
}

// waitDelay bounds how long a killed check may hold its output pipes open.
const waitDelay = 2 * time.Second

// DefaultCommand is the external integrity test.
var DefaultCommand = []string{"gzip", "-t"}

// ExecChecker runs an external command with the archive path appended and
// treats anything it writes to stderr as the diagnostic.
type ExecChecker struct {
	Command []string
	Timeout time.Duration // per archive; zero waits forever
}

// NewExecChecker returns a checker for command, or DefaultCommand if empty.
func NewExecChecker(command []string, timeout time.Duration) *ExecChecker {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &ExecChecker{Command: command, Timeout: timeout}
}

// Apply implements the coordinator's action contract.
func (c *ExecChecker) Apply(ctx context.Context, item string) work.Outcome {
	return c.Verify(ctx, item)
}

// Verify runs the command against archivePath. Stdout is ignored; the exit
// status matters only when the command wrote nothing to stderr. A check cut
// off by Timeout is reported as such, never as a corrupt archive.
func (c *ExecChecker) Verify(ctx context.Context, archivePath string) work.Outcome {
	checkCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, c.Command[1:]...), archivePath)
	cmd := exec.CommandContext(checkCtx, c.Command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// A killed command whose stderr is still held open by a child must not
	// block the rank.
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err != nil && c.Timeout > 0 && ctx.Err() == nil && errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
		logging.ArchiveError("integrity check of %s timed out after %v", archivePath, c.Timeout)
		return work.Failed(archivePath, fmt.Sprintf("*** INTEGRITY CHECK TIMED OUT AFTER %v: %s ***", c.Timeout, archivePath))
	}
	if text := diagnostic(stderr.String()); text != "" {
		logging.ArchiveDebug("%s: %s", archivePath, text)
		return work.Failed(archivePath, text)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return work.Failed(archivePath, fmt.Sprintf("%s: %s: exit status %d", c.Command[0], archivePath, exitErr.ExitCode()))
		}
		logging.ArchiveError("integrity command failed for %s: %v", archivePath, err)
		return work.Failed(archivePath, fmt.Sprintf("%s: %s: %v", c.Command[0], archivePath, err))
	}
	return work.Pass(archivePath)
}

// diagnostic drops the blank lines gzip puts around each message.
func diagnostic(stderr string) string {
	var lines []string
	for _, line := range strings.Split(stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// StreamChecker decompresses the archive in-process and walks every tar
// entry. Nothing is written to disk.
type StreamChecker struct{}

// Apply implements the coordinator's action contract.
func (StreamChecker) Apply(ctx context.Context, item string) work.Outcome {
	return StreamChecker{}.Verify(ctx, item)
}

// Verify reads archivePath to the end, checking the gzip CRC and size
// trailer and the tar structure.
func (StreamChecker) Verify(ctx context.Context, archivePath string) work.Outcome {
	if err := readThrough(ctx, archivePath); err != nil {
		logging.ArchiveDebug("%s: %v", archivePath, err)
		return work.Failed(archivePath, fmt.Sprintf("gzip: %s: %v", archivePath, err))
	}
	return work.Pass(archivePath)
}

func readThrough(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if _, err := io.Copy(io.Discard, tr); err != nil {
			return err
		}
	}
	// Drain any padding after the tar trailer so the gzip checksum is read.
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return err
	}
	return nil
}
