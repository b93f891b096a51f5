// Package walgrep searches ZIP archives for regular expression matches in member names or member content.
//
// A Session runs one search at a time on a background goroutine and streams results as events that a consumer drains
// by polling:
//
//	s := walgrep.New()
//	if err := s.Start(walgrep.Request{Root: "logs", Pattern: "ERROR", Recurse: true}); err != nil {
//		return err
//	}
//
//	for {
//		events, running := s.Poll()
//		render(events)
//		if !running {
//			break
//		}
//		time.Sleep(50 * time.Millisecond)
//	}
package walgrep

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/nguyengg/walgrep/event"
	"github.com/nguyengg/walgrep/internal"
	"github.com/nguyengg/walgrep/match"
	"github.com/nguyengg/walgrep/walk"
)

// State is the lifecycle state of a Session.
type State int

const (
	// Idle means no search has been started, or the last one was stopped.
	Idle State = iota
	// Running means a worker is searching.
	Running
	// Completed means the last search visited every candidate archive.
	Completed
	// Cancelled means the last search was stopped before it could finish.
	Cancelled
	// Failed means the last search was aborted by an error; see the SessionError event.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal returns true for Completed, Cancelled, and Failed.
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// Options customises New.
type Options struct {
	// Logger receives diagnostic logs such as skipped members and throttled progress.
	//
	// By default, logs are discarded.
	Logger *log.Logger

	// S3 returns the client to use for a bucket. Required to search `s3://` roots.
	S3 func(ctx context.Context, bucket string) (walk.S3API, error)
}

// Stats are counters about the most recent search.
type Stats struct {
	// Archives is the number of archives opened.
	Archives int
	// Matched is the number of archives with at least one match.
	Matched int
	// Members is the number of non-directory members visited.
	Members int
	// Bytes is the total size of the archives opened.
	Bytes int64
}

// Session owns one search at a time.
//
// Start, Stop, Poll, and the getters are safe to call from any goroutine. Only one goroutine should Poll.
type Session struct {
	logger *log.Logger
	s3     func(ctx context.Context, bucket string) (walk.S3API, error)
	sink   *event.Sink

	// running is true from Start until the worker has pushed event.SessionDone.
	running atomic.Bool
	// cancelled is set by Stop and checked by the worker.
	cancelled atomic.Bool

	// ctrl serialises Start and Stop.
	ctrl sync.Mutex

	// mu guards all fields below.
	mu         sync.Mutex
	state      State
	status     string
	matchCount int
	stats      Stats
	id         string
	cancel     context.CancelFunc
	done       chan struct{}
}

// New returns an Idle Session.
func New(optFns ...func(*Options)) *Session {
	opts := &Options{}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	return &Session{
		logger: opts.Logger,
		s3:     opts.S3,
		sink:   event.NewSink(),
	}
}

// Start begins a new search.
//
// Returns ErrSessionRunning if a search is in progress. Otherwise, the pattern is compiled and the request is
// validated before any worker is started; a *match.PatternError or an error wrapping ErrInvalidRequest leaves the
// Session unchanged. On success, events left over from the previous search are discarded, the match count is reset, and
// the Session becomes Running.
func (s *Session) Start(req Request) error {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	if s.running.Load() {
		return ErrSessionRunning
	}

	if err := req.validate(s.s3 != nil); err != nil {
		return err
	}

	m, err := match.New(req.Pattern, req.NameOnly)
	if err != nil {
		return err
	}

	// the previous worker has pushed its last event but may not have returned yet.
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}

	s.sink.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	ctx = internal.WithPrefixLogger(internal.WithLogger(ctx, s.logger), s.logger.Prefix()+internal.Prefix(id, req.Root))
	done = make(chan struct{})

	s.mu.Lock()
	s.state = Running
	s.status = fmt.Sprintf("Searching %s", req.Root)
	s.matchCount = 0
	s.stats = Stats{}
	s.id = id
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.cancelled.Store(false)
	s.running.Store(true)

	w := &worker{
		s:       s,
		req:     req,
		matcher: m,
		logger:  internal.MustLogger(ctx),
		emitter: &emitter{sink: s.sink},
	}

	go func() {
		defer close(done)
		w.run(ctx)
	}()

	return nil
}

// Stop cancels the running search and waits for its worker to exit, then returns the Session to Idle.
//
// Stop can block for as long as the current unit of work (one line, one member header, one S3 request) takes. If the
// search has already finished, Stop only returns the Session to Idle. Stop on an Idle Session is a no-op.
func (s *Session) Stop() {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	s.mu.Lock()
	state, cancel, done := s.state, s.cancel, s.done
	s.mu.Unlock()

	if state == Idle {
		return
	}

	if state == Running {
		s.cancelled.Store(true)
		cancel()
	}

	if done != nil {
		<-done
	}

	s.mu.Lock()
	s.state = Idle
	s.mu.Unlock()
}

// Wait blocks until the worker of the current search has exited.
//
// Returns immediately if no search was ever started.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Poll returns every event emitted since the last Poll, in emission order, and whether the search is still running.
//
// Poll never blocks on the worker. Once Poll reports false, the returned batch ends with the event.SessionDone of the
// search, unless an earlier Poll already returned it.
func (s *Session) Poll() ([]event.Event, bool) {
	// sampling before draining guarantees SessionDone is already queued when false is returned.
	running := s.running.Load()
	return s.sink.Drain(), running
}

// Status returns the human-readable status line.
//
// While Running it reads `Searching <path>`; afterwards `Found N matches.`.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// MatchCount returns the number of matches reported so far by the current or most recent search.
func (s *Session) MatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchCount
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns counters about the current or most recent search.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ID returns the unique id of the current or most recent search, empty if none was started.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Session) addMatch() {
	s.mu.Lock()
	s.matchCount++
	s.mu.Unlock()
}

func (s *Session) updateStats(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

// finish records the terminal state of the worker's search. SessionDone must already be in the sink.
func (s *Session) finish(state State) {
	s.mu.Lock()
	s.state = state
	s.status = fmt.Sprintf("Found %d matches.", s.matchCount)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.running.Store(false)
}
