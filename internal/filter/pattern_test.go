package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternStar(t *testing.T) {
	p, err := Compile("*.log", false)
	require.NoError(t, err)

	assert.True(t, p.Match("app.log", false))
	assert.True(t, p.Match("dir/app.log", false))
	assert.False(t, p.Match("app.log.bak", false))
	assert.False(t, p.Match("app.txt", false))
}

func TestPatternDoubleStar(t *testing.T) {
	p, err := Compile("**/*.go", false)
	require.NoError(t, err)

	assert.True(t, p.Match("main.go", false))
	assert.True(t, p.Match("cmd/fwt/main.go", false))
	assert.False(t, p.Match("main.txt", false))
}

func TestPatternQuestion(t *testing.T) {
	p, err := Compile("file?.txt", false)
	require.NoError(t, err)

	assert.True(t, p.Match("file1.txt", false))
	assert.False(t, p.Match("file12.txt", false))
	assert.False(t, p.Match("file/.txt", false))
}

func TestPatternCharClass(t *testing.T) {
	p, err := Compile("IMG_[0-9][!a]*", false)
	require.NoError(t, err)

	assert.True(t, p.Match("IMG_1b.jpg", false))
	assert.False(t, p.Match("IMG_1a.jpg", false))
	assert.False(t, p.Match("IMG_xb.jpg", false))
}

func TestPatternUnterminatedClass(t *testing.T) {
	p, err := Compile("a[b", false)
	require.NoError(t, err)
	assert.True(t, p.Match("a[b", false))
}

func TestPatternLiteralMetacharacters(t *testing.T) {
	p, err := Compile("notes (1).txt", false)
	require.NoError(t, err)

	assert.True(t, p.Match("notes (1).txt", false))
	assert.False(t, p.Match("notes 1.txt", false))
}

func TestPatternContainingSlash(t *testing.T) {
	p, err := Compile("sub/dir/*.txt", false)
	require.NoError(t, err)

	assert.True(t, p.Match("sub/dir/file.txt", false))
	assert.False(t, p.Match("other/sub/dir/file.txt", false))
}

func TestPatternString(t *testing.T) {
	p, err := Compile("build/", false)
	require.NoError(t, err)
	assert.Equal(t, "build/", p.String())
}

func TestPatternNonASCII(t *testing.T) {
	p, err := Compile("*.jpé", false)
	require.NoError(t, err)
	assert.True(t, p.Match("a.jpé", false))
	assert.False(t, p.Match("a.jpe", false))

	p, err = Compile("Fotos/M[äa]rz", false)
	require.NoError(t, err)
	assert.True(t, p.Match("Fotos/März", false))
	assert.True(t, p.Match("Fotos/Marz", false))

	p, err = Compile("caf?", false)
	require.NoError(t, err)
	assert.True(t, p.Match("café", false), "? matches one character, not one byte")
}
