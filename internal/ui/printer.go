package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bamsammich/fwt/internal/event"
)

// Config configures a Printer.
type Config struct {
	Writer  io.Writer
	Color   bool
	Quiet   bool // suppress report lines and summaries
	Verbose bool // also print directory creation and indexed files
}

// Printer renders report events as lines of text. It implements
// event.Sink and is safe for concurrent use.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	quiet   bool
	verbose bool
	st      styles

	dirsHeader bool
}

// NewPrinter creates a Printer writing to cfg.Writer.
func NewPrinter(cfg Config) *Printer {
	r := lipgloss.NewRenderer(cfg.Writer)
	if cfg.Color {
		r.SetColorProfile(termenv.TrueColor)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:       cfg.Writer,
		quiet:   cfg.Quiet,
		verbose: cfg.Verbose,
		st:      newStyles(r),
	}
}

// Emit writes the line for e.
//
//nolint:gocritic // event.Sink takes Event by value
func (p *Printer) Emit(e event.Event) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case event.Missing:
		p.printf("%s %s\n", p.st.missing.Render("missing:"), e.Path)
	case event.Different:
		p.printf("%s %s <> %s %s\n", p.st.different.Render("different:"), e.Path, e.Other,
			p.st.reason.Render("("+e.Reason+")"))
	case event.DuplicateSet:
		p.printf("%s\n", p.st.header.Render("Duplicates:"))
		for _, path := range e.Paths {
			p.printf("  %s\n", path)
		}
	case event.DuplicateDir:
		if !p.dirsHeader {
			p.dirsHeader = true
			p.printf("%s\n", p.st.header.Render("Fully duplicated directories:"))
		}
		p.printf("%s\n", e.Path)
	case event.FileCopied:
		p.printf("%s %s %s\n", e.Path, p.st.copied.Render("=>"), e.Other)
	case event.FileConflict:
		p.printf("%s %s %s\n", e.Path, p.st.conflict.Render("=>"), e.Other)
	case event.FileIdentical:
		p.printf("%s %s %s\n", e.Path, p.st.identical.Render("=="), e.Other)
	case event.Renamed:
		p.printf("%s %s %s\n", e.Path, p.st.renamed.Render("=>"), e.Other)
	case event.DirCreated:
		if p.verbose {
			p.printf("%s %s\n", p.st.muted.Render("mkdir:"), e.Path)
		}
	case event.Indexed:
		if p.verbose {
			p.printf("%s %s %s\n", p.st.muted.Render(shortHash(e.Hash)), e.Path, p.st.muted.Render(FormatBytes(e.Size)))
		}
	case event.FileFailed:
		// logged by the producer
	}
}

// Summary prints a final summary line.
func (p *Printer) Summary(line string) {
	if p.quiet || line == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("%s\n", line)
}

// Line prints a plain line regardless of Quiet. Used for command results
// that are the whole point of the invocation, such as `fwt next`.
func (p *Printer) Line(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf(format+"\n", args...)
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
