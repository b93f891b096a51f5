// Package results folds the event stream of a search into a tree of archives, members, and matches.
package results

import (
	"github.com/nguyengg/walgrep/event"
)

// Line is one content-mode match.
type Line struct {
	Line  int    `json:"line"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Member is a member with at least one match.
type Member struct {
	Name string `json:"name"`
	// Spans is only set in filename mode.
	Spans []event.Span `json:"spans,omitempty"`
	// Lines is only set in content mode.
	Lines []Line `json:"lines,omitempty"`
}

// Archive is an archive with at least one match.
type Archive struct {
	Path    string    `json:"path"`
	Display string    `json:"display"`
	Members []*Member `json:"members"`
}

// Tree accumulates events as they are polled.
//
// The zero value is ready to use. A Tree is not safe for concurrent use; it belongs to the consumer.
type Tree struct {
	Archives []*Archive `json:"archives"`
	Total    int        `json:"total"`
	// State is the terminal state from event.SessionDone, empty while the search is running.
	State string `json:"state,omitempty"`
	// Error is the message from event.SessionError, if any.
	Error string `json:"error,omitempty"`
	// ErrorPath is the path from event.SessionError, if any.
	ErrorPath string `json:"errorPath,omitempty"`

	matches int
}

// Apply folds events into the tree in order.
//
// Matches that arrive before any ArchiveFound or EntryFound are attached to placeholder nodes rather than dropped.
func (t *Tree) Apply(events ...event.Event) {
	for _, e := range events {
		switch v := e.(type) {
		case event.ArchiveFound:
			t.Archives = append(t.Archives, &Archive{Path: v.Path, Display: v.Display})
		case event.EntryFound:
			a := t.lastArchive()
			a.Members = append(a.Members, &Member{Name: v.Name})
		case event.NameMatch:
			a := t.lastArchive()
			a.Members = append(a.Members, &Member{Name: v.Name, Spans: v.Spans})
			t.matches++
		case event.LineMatch:
			m := t.lastMember()
			m.Lines = append(m.Lines, Line{Line: v.Line, Text: v.Text, Start: v.Start, End: v.End})
			t.matches++
		case event.SessionError:
			t.Error = v.Err.Error()
			t.ErrorPath = v.Path
		case event.SessionDone:
			t.Total = v.Total
			t.State = v.State
		}
	}
}

// Matches returns the number of matches folded so far.
//
// Once the search is done this equals Total.
func (t *Tree) Matches() int {
	return t.matches
}

// Done returns true once event.SessionDone has been applied.
func (t *Tree) Done() bool {
	return t.State != ""
}

// Reset empties the tree for a new search.
func (t *Tree) Reset() {
	*t = Tree{}
}

func (t *Tree) lastArchive() *Archive {
	if len(t.Archives) == 0 {
		t.Archives = append(t.Archives, &Archive{})
	}

	return t.Archives[len(t.Archives)-1]
}

func (t *Tree) lastMember() *Member {
	a := t.lastArchive()
	if len(a.Members) == 0 {
		a.Members = append(a.Members, &Member{})
	}

	return a.Members[len(a.Members)-1]
}
