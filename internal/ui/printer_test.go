package ui_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/ui"
)

func TestPrinter_CompareLines(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(ui.Config{Writer: &buf})

	p.Emit(event.Event{Type: event.Missing, Path: "/l/a.txt", MissingIn: event.Right})
	p.Emit(event.Event{Type: event.Different, Path: "/l/b.txt", Other: "/r/b.txt", Reason: "left newer"})
	p.Summary("missing left: 0, missing right: 1, different: 1")

	assert.Equal(t, "missing: /l/a.txt\n"+
		"different: /l/b.txt <> /r/b.txt (left newer)\n"+
		"missing left: 0, missing right: 1, different: 1\n", buf.String())
}

func TestPrinter_DuplicateLines(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(ui.Config{Writer: &buf})

	p.Emit(event.Event{Type: event.DuplicateSet, Paths: []string{"/a/x", "/b/x"}})
	p.Emit(event.Event{Type: event.DuplicateDir, Path: "/a"})
	p.Emit(event.Event{Type: event.DuplicateDir, Path: "/c"})

	assert.Equal(t, "Duplicates:\n  /a/x\n  /b/x\n"+
		"Fully duplicated directories:\n/a\n/c\n", buf.String())
}

func TestPrinter_MergeLines(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(ui.Config{Writer: &buf})

	p.Emit(event.Event{Type: event.DirCreated, Path: "/dst/sub"})
	p.Emit(event.Event{Type: event.FileCopied, Path: "/src/a", Other: "/dst/a"})
	p.Emit(event.Event{Type: event.FileIdentical, Path: "/src/b", Other: "/dst/b"})
	p.Emit(event.Event{Type: event.FileConflict, Path: "/src/c", Other: "/dst/c (Conflict 1)"})
	p.Emit(event.Event{Type: event.FileFailed, Path: "/src/d", Error: errors.New("boom")})

	assert.Equal(t, "/src/a => /dst/a\n/src/b == /dst/b\n/src/c => /dst/c (Conflict 1)\n", buf.String())
}

func TestPrinter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(ui.Config{Writer: &buf, Verbose: true})

	p.Emit(event.Event{Type: event.DirCreated, Path: "/dst/sub"})
	p.Emit(event.Event{Type: event.Indexed, Path: "/d/f", Hash: "0123456789abcdef", Size: 10})

	assert.Equal(t, "mkdir: /dst/sub\n0123456789ab /d/f 10 B\n", buf.String())
}

func TestPrinter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(ui.Config{Writer: &buf, Quiet: true})

	p.Emit(event.Event{Type: event.Missing, Path: "/l/a.txt"})
	p.Emit(event.Event{Type: event.Renamed, Path: "a", Other: "b"})
	p.Summary("copied: 1 skipped: 0 conflicts: 0")
	assert.Empty(t, buf.String())

	p.Line("%s", "img002.jpg")
	assert.Equal(t, "img002.jpg\n", buf.String())
}

func TestPrinter_Color(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(ui.Config{Writer: &buf, Color: true})

	p.Emit(event.Event{Type: event.Missing, Path: "/l/a.txt"})
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "/l/a.txt")
}

func TestPrinter_Renamed(t *testing.T) {
	var buf bytes.Buffer
	p := ui.NewPrinter(ui.Config{Writer: &buf})

	p.Emit(event.Event{Type: event.Renamed, Path: "/d/a.jpg", Other: "/d/img001.jpg"})
	assert.Equal(t, "/d/a.jpg => /d/img001.jpg\n", buf.String())
}
