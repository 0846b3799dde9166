package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "Missing", typ: Missing},
		{want: "Different", typ: Different},
		{want: "DuplicateSet", typ: DuplicateSet},
		{want: "DuplicateDir", typ: DuplicateDir},
		{want: "FileCopied", typ: FileCopied},
		{want: "FileIdentical", typ: FileIdentical},
		{want: "FileConflict", typ: FileConflict},
		{want: "FileFailed", typ: FileFailed},
		{want: "DirCreated", typ: DirCreated},
		{want: "Renamed", typ: Renamed},
		{want: "Indexed", typ: Indexed},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
}

func TestSideString(t *testing.T) {
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "right", Right.String())
	assert.Empty(t, Side(0).String())
}

func TestEmitStampsTimestamp(t *testing.T) {
	var r Recorder
	before := time.Now()
	Emit(&r, Event{Type: Missing, Path: "/a"})

	evs := r.Events()
	require.Len(t, evs, 1)
	assert.False(t, evs[0].Timestamp.Before(before))
	assert.Equal(t, "/a", evs[0].Path)
}

func TestEmitNilSink(t *testing.T) {
	assert.NotPanics(t, func() { Emit(nil, Event{Type: Missing}) })
}

func TestRecorderOfType(t *testing.T) {
	var r Recorder
	Emit(&r, Event{Type: Missing, Path: "a"})
	Emit(&r, Event{Type: Different, Path: "b"})
	Emit(&r, Event{Type: Missing, Path: "c"})

	got := r.OfType(Missing)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Path)
	assert.Equal(t, "c", got[1].Path)
}

func TestSinkFunc(t *testing.T) {
	var seen []Type
	s := SinkFunc(func(e Event) { seen = append(seen, e.Type) })
	Emit(s, Event{Type: Renamed})
	assert.Equal(t, []Type{Renamed}, seen)
}
