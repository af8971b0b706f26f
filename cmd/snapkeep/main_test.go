package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapkeep/internal/config"
)

var companions = []string{"", ".boundary", ".boundary.hdf", ".configure", ".hierarchy", ".memorymap"}

func writeSnapshot(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, suffix := range companions {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+suffix), []byte("x"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".member0000"), []byte("grid"), 0644))
}

// execute runs the CLI against dir and returns everything it printed.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVerify_CompleteDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"DD0000", "DD0001", "DD0002"} {
		writeSnapshot(t, dir, name)
	}

	out, err := execute(t, dir, "verify", "--no-ledger")
	require.NoError(t, err)
	assert.Contains(t, out, "Checking directories from DD0000 to DD0002.")
	assert.Contains(t, out, "No RD files present.")
	assert.Contains(t, out, "All expected files present. Ready for tar and storage.")

	data, err := os.ReadFile(filepath.Join(dir, "verify_snapshots.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "3 directories from DD0000 to DD0002. OK")
}

func TestVerify_ReportsErrorsWithFailureStatus(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "DD0000")
	writeSnapshot(t, dir, "DD0002")

	out, err := execute(t, dir, "verify", "--no-ledger")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRunFailed))
	assert.Contains(t, out, "*** MISSING: DD0001 ***")
	assert.Contains(t, out, "1 errors detected.  Please see verify_snapshots.log file for more info.")
}

func TestVerify_Manifest(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "DD0004")
	writeSnapshot(t, dir, "DD0005")
	writeSnapshot(t, dir, "DD0009")
	manifest := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(manifest, []byte("DD0005\nDD0004\n"), 0644))

	out, err := execute(t, dir, "verify", "--no-ledger", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "Checking directories from DD0004 to DD0005.")
	assert.NotContains(t, out, "RD")
}

func TestTooManyArguments(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"tar", "verify", "verify-tar"} {
		out, err := execute(t, dir, sub, "a.txt", "b.txt")
		require.Error(t, err, sub)
		assert.Contains(t, out, "Usage:", sub)
	}
	assert.NoFileExists(t, filepath.Join(dir, "tar_snapshots.log"))
	assert.NoFileExists(t, filepath.Join(dir, "verify_snapshots.log"))
	assert.NoFileExists(t, filepath.Join(dir, "verify_tar.log"))
}

func TestTarVerifyTarAndHistory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"DD0000", "DD0001", "RD0000"} {
		writeSnapshot(t, dir, name)
	}

	out, err := execute(t, dir, "tar", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary of tar files in tar_snapshots.log")
	for _, name := range []string{"DD0000", "DD0001", "RD0000"} {
		assert.FileExists(t, filepath.Join(dir, name+".tar.gz"))
	}
	data, err := os.ReadFile(filepath.Join(dir, "tar_snapshots.log"))
	require.NoError(t, err)
	assert.Equal(t,
		"Created DD0000.tar.gz OK\nCreated DD0001.tar.gz OK\nCreated RD0000.tar.gz OK\nSummary of tar files in tar_snapshots.log\n",
		string(data))

	out, err = execute(t, dir, "verify-tar", "-n", "3", "--integrity", "stream")
	require.NoError(t, err)
	assert.Contains(t, out, "Verifying tar files from DD0000.tar.gz to DD0001.tar.gz.")
	assert.Contains(t, out, "Verifying tar files from RD0000.tar.gz to RD0000.tar.gz.")
	assert.Contains(t, out, "All tar files verified as valid gzip files.")

	out, err = execute(t, dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "verify-tar")
	assert.Contains(t, out, "tar ")
	assert.Contains(t, out, "All tar files verified as valid gzip files.")
	assert.FileExists(t, filepath.Join(dir, ".snapkeep", "runs.db"))
}

func TestVerifyTar_CorruptArchive(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "DD0000")
	_, err := execute(t, dir, "tar", "--no-ledger")
	require.NoError(t, err)

	path := filepath.Join(dir, "DD0000.tar.gz")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-8] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	t.Setenv("SNAPKEEP_INTEGRITY", config.IntegrityStream)
	out, err := execute(t, dir, "verify-tar", "--no-ledger")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRunFailed))
	assert.Contains(t, out, "gzip: "+path)
	assert.Contains(t, out, "*** SOME TAR FILES INCOMPLETE. ***")
}

func TestTar_NothingToDo(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "tar", "--no-ledger")
	require.Error(t, err)
	assert.Contains(t, out, "Tar didn't operate properly.")
}

func TestInvalidConfigStopsBeforeWork(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "DD0000")
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("archive:\n  integrity: crc\n"), 0644))

	_, err := execute(t, dir, "--config", cfgPath, "tar")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))
	assert.NoFileExists(t, filepath.Join(dir, "DD0000.tar.gz"))
	assert.NoFileExists(t, filepath.Join(dir, "tar_snapshots.log"))
}

func TestInvalidWorkerFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "verify", "-n", "-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))
}

func TestHistory_Disabled(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "history", "--no-ledger")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestHistory_RunOutcomes(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "DD0000")
	_, err := execute(t, dir, "tar")
	require.NoError(t, err)

	out, err := execute(t, dir, "history")
	require.NoError(t, err)
	var runID string
	for _, field := range strings.Fields(out) {
		if len(field) == 36 && strings.Count(field, "-") == 4 {
			runID = field
			break
		}
	}
	require.NotEmpty(t, runID, "history output: %s", out)

	out, err = execute(t, dir, "history", runID)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("ok      %s", filepath.Join(dir, "DD0000")))
	assert.Contains(t, out, "Created DD0000.tar.gz OK")
}
