package event

import (
	"sync"
	"time"
)

// Type identifies the kind of event.
type Type int

const (
	Missing Type = iota + 1
	Different
	DuplicateSet
	DuplicateDir
	FileCopied
	FileIdentical
	FileConflict
	FileFailed
	DirCreated
	Renamed
	Indexed
)

var typeNames = [...]string{
	Missing:       "Missing",
	Different:     "Different",
	DuplicateSet:  "DuplicateSet",
	DuplicateDir:  "DuplicateDir",
	FileCopied:    "FileCopied",
	FileIdentical: "FileIdentical",
	FileConflict:  "FileConflict",
	FileFailed:    "FileFailed",
	DirCreated:    "DirCreated",
	Renamed:       "Renamed",
	Indexed:       "Indexed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Side names one of the two trees in a comparison.
type Side int

const (
	Left Side = iota + 1
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return ""
	}
}

// Event is a single report item produced by a tree algorithm.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string   // primary path (source, existing entry, directory)
	Other     string   // counterpart path (target, renamed-to)
	Reason    string   // classification for Different
	MissingIn Side     // side lacking the entry for Missing
	Paths     []string // members of a DuplicateSet
	Hash      string
	Size      int64
	Error     error
}

// Sink receives events synchronously, in the order they are produced.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Emit stamps e and sends it to s. A nil sink drops the event.
func Emit(s Sink, e Event) {
	if s == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.Emit(e)
}

// Recorder is a Sink that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
