package series

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"DD0002", "DD0000", "DD0001", "RD0000", "DD00001", "notes"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0755))
	}
	for _, f := range []string{"DD0000.tar.gz", "DD0001.tar.gz", "DD0001.tar.gz.partial"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644))
	}

	got, err := DefaultLayout.Discover(dir, "DD")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"DD0000", "DD0001", "DD0002"}, got); diff != "" {
		t.Errorf("DD discovery mismatch (-want +got):\n%s", diff)
	}

	tars, err := DefaultLayout.WithFileSuffix(".tar.gz").Discover(dir, "DD")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"DD0000.tar.gz", "DD0001.tar.gz"}, tars); diff != "" {
		t.Errorf("tar discovery mismatch (-want +got):\n%s", diff)
	}

	none, err := DefaultLayout.Discover(dir, "ZZ")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestReadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dirs.txt")
	require.NoError(t, os.WriteFile(path, []byte("DD0004\n\nDD0001\n  DD0002  \n"), 0644))

	got, err := ReadManifest(path)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"DD0001", "DD0002", "DD0004"}, got); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}

	_, err = ReadManifest(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
