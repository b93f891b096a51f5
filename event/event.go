// Package event defines the typed events a search worker emits and the queue that carries them to a consumer.
package event

import "fmt"

// Kind identifies the variant of an Event.
type Kind int

const (
	KindArchiveFound Kind = iota + 1
	KindEntryFound
	KindNameMatch
	KindLineMatch
	KindSessionError
	KindSessionDone
)

func (k Kind) String() string {
	switch k {
	case KindArchiveFound:
		return "archive"
	case KindEntryFound:
		return "entry"
	case KindNameMatch:
		return "name"
	case KindLineMatch:
		return "line"
	case KindSessionError:
		return "error"
	case KindSessionDone:
		return "done"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one of ArchiveFound, EntryFound, NameMatch, LineMatch, SessionError, or SessionDone.
type Event interface {
	Kind() Kind
}

// ArchiveFound is emitted once per archive, right before the first match inside it.
type ArchiveFound struct {
	// Path is the absolute path or S3 URI of the archive.
	Path string
	// Display is the path of the archive relative to the search root.
	Display string
}

func (ArchiveFound) Kind() Kind { return KindArchiveFound }

// EntryFound is emitted once per member in content mode, right before its first LineMatch.
type EntryFound struct {
	Name string
}

func (EntryFound) Kind() Kind { return KindEntryFound }

// Span is a half-open [Start, End) range of rune offsets.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NameMatch is the filename-mode report for one member.
//
// Spans index into Base, the last path component of Name. The directory prefix of Name is never matched.
type NameMatch struct {
	Name  string
	Base  string
	Spans []Span
}

func (NameMatch) Kind() Kind { return KindNameMatch }

// LineMatch is one content-mode match.
//
// Line is 0-based. Start and End are rune offsets into Text, which has its line terminator stripped.
type LineMatch struct {
	Line  int
	Text  string
	Start int
	End   int
}

func (LineMatch) Kind() Kind { return KindLineMatch }

// SessionError reports the condition that terminated the session.
type SessionError struct {
	Path string
	Err  error
}

func (SessionError) Kind() Kind { return KindSessionError }

func (e SessionError) Error() string {
	return fmt.Sprintf(`search "%s" error: %v`, e.Path, e.Err)
}

func (e SessionError) Unwrap() error {
	return e.Err
}

// SessionDone is always the last event of a session.
type SessionDone struct {
	// Total is the number of matches reported by the session.
	Total int
	// State is the terminal state name: "completed", "cancelled", or "failed".
	State string
}

func (SessionDone) Kind() Kind { return KindSessionDone }
