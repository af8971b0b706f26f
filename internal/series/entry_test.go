package series

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		layout     Layout
		input      string
		wantPrefix string
		wantNumber int
	}{
		{"plain", DefaultLayout, "DD0042", "DD", 42},
		{"zero", DefaultLayout, "RD0000", "RD", 0},
		{"max", DefaultLayout, "DD9999", "DD", 9999},
		{"tarball", DefaultLayout.WithFileSuffix(".tar.gz"), "DD0102.tar.gz", "DD", 102},
		{"with directory", DefaultLayout, "run1/DD0005", "run1/DD", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.layout.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, e.Prefix)
			assert.Equal(t, tt.wantNumber, e.Number)
			assert.Equal(t, tt.input, e.Name)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		input  string
	}{
		{"letters in number", DefaultLayout, "DDab12"},
		{"too short", DefaultLayout, "D01"},
		{"missing suffix", DefaultLayout.WithFileSuffix(".tar.gz"), "DD0001"},
		{"digit tag", DefaultLayout, "1D0001"},
		{"empty", DefaultLayout, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.layout.Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedEntry))
		})
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "DD0003", DefaultLayout.Render("DD", 3))
	assert.Equal(t, "RD0120.tar.gz", DefaultLayout.WithFileSuffix(".tar.gz").Render("RD", 120))

	wide := Layout{PrefixLen: 2, SuffixWidth: 6}
	assert.Equal(t, "DD000007", wide.Render("DD", 7))
}
