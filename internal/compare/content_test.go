package compare

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/fwt/internal/event"
)

func TestRunContent(t *testing.T) {
	left, right := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(left, "2023", "IMG_0001.jpg"), "sunset", baseTime)
	writeFile(t, filepath.Join(left, "2023", "IMG_0002.jpg"), "beach", baseTime)
	writeFile(t, filepath.Join(right, "sorted", "sunset.jpg"), "sunset", baseTime.Add(10e9))
	writeFile(t, filepath.Join(right, "sorted", "mountain.jpg"), "mountain", baseTime)

	rec := &event.Recorder{}
	res, err := RunContent(context.Background(), Config{Left: left, Right: right, Sink: rec}, openCache(t))
	require.NoError(t, err)
	assert.Equal(t, Result{LeftMissing: 1, RightMissing: 1}, res)

	missing := rec.OfType(event.Missing)
	require.Len(t, missing, 2)
	assert.Equal(t, filepath.Join(left, "2023", "IMG_0002.jpg"), missing[0].Path)
	assert.Equal(t, event.Right, missing[0].MissingIn)
	assert.Equal(t, filepath.Join(right, "sorted", "mountain.jpg"), missing[1].Path)
	assert.Equal(t, event.Left, missing[1].MissingIn)
}

func TestRunContent_NoIndexer(t *testing.T) {
	_, err := RunContent(context.Background(), Config{Left: t.TempDir(), Right: t.TempDir()}, nil)
	require.Error(t, err)
}
