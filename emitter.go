package walgrep

import (
	"github.com/nguyengg/walgrep/event"
)

// emitter pushes match events to the sink, preceding them with the archive and member headers they belong to.
//
// Headers are emitted lazily: an archive or member without any match produces no event at all.
type emitter struct {
	sink *event.Sink

	archive     event.ArchiveFound
	archiveSent bool
	member      string
	memberSent  bool
}

// beginArchive must be called before the members of an archive are visited.
func (e *emitter) beginArchive(path, display string) {
	e.archive = event.ArchiveFound{Path: path, Display: display}
	e.archiveSent = false
	e.member = ""
	e.memberSent = false
}

// beginMember must be called before the lines of a member are visited.
func (e *emitter) beginMember(name string) {
	e.member = name
	e.memberSent = false
}

// matched returns true if at least one match was emitted for the current archive.
func (e *emitter) matched() bool {
	return e.archiveSent
}

func (e *emitter) ensureArchive() {
	if !e.archiveSent {
		e.sink.Push(e.archive)
		e.archiveSent = true
	}
}

// name emits a filename-mode match. The NameMatch itself stands in for the member header.
func (e *emitter) name(m event.NameMatch) {
	e.ensureArchive()
	e.sink.Push(m)
}

// line emits a content-mode match.
func (e *emitter) line(m event.LineMatch) {
	e.ensureArchive()
	if !e.memberSent {
		e.sink.Push(event.EntryFound{Name: e.member})
		e.memberSent = true
	}
	e.sink.Push(m)
}

func (e *emitter) fail(path string, err error) {
	e.sink.Push(event.SessionError{Path: path, Err: err})
}

func (e *emitter) done(total int, state State) {
	e.sink.Push(event.SessionDone{Total: total, State: state.String()})
}
