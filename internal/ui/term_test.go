package ui

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{
		"":       ColorAuto,
		"auto":   ColorAuto,
		"always": ColorAlways,
		"never":  ColorNever,
	} {
		got, err := ParseColorMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestUseColor(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, UseColor(ColorAlways, f.Fd()))
	assert.False(t, UseColor(ColorNever, f.Fd()))
	assert.False(t, UseColor(ColorAuto, f.Fd()), "regular file is not a terminal")
}
