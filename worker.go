package walgrep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/walgrep/match"
	"github.com/nguyengg/walgrep/walk"
	"github.com/nguyengg/walgrep/zip/scan"
	"golang.org/x/time/rate"
)

// worker performs all I/O and matching of one search.
type worker struct {
	s       *Session
	req     Request
	matcher *match.Matcher
	logger  *log.Logger
	emitter *emitter
}

// searchError carries the path that a fatal error is reported against.
type searchError struct {
	path string
	err  error
}

func (w *worker) run(ctx context.Context) {
	start := time.Now()
	w.logger.Printf(`searching "%s" for "%s" (recurse=%t, name-only=%t)`, w.req.Root, w.req.Pattern, w.req.Recurse, w.req.NameOnly)

	serr := w.search(ctx)

	var state State
	switch {
	case serr != nil && !w.stopped(ctx):
		state = Failed
		w.emitter.fail(serr.path, serr.err)
		w.logger.Printf(`search "%s" error: %v`, serr.path, serr.err)
	case w.stopped(ctx):
		state = Cancelled
	default:
		state = Completed
	}

	total := w.s.MatchCount()
	w.emitter.done(total, state)
	w.s.finish(state)

	stats := w.s.Stats()
	w.logger.Printf("search %s after %s: %d matches in %d/%d archives (%s)",
		state, time.Since(start).Round(time.Millisecond), total, stats.Matched, stats.Archives, humanize.Bytes(uint64(stats.Bytes)))
}

// stopped is the cancellation checkpoint.
func (w *worker) stopped(ctx context.Context) bool {
	return w.s.cancelled.Load() || ctx.Err() != nil
}

func (w *worker) search(ctx context.Context) *searchError {
	sometimes := rate.Sometimes{Interval: 5 * time.Second}

	for c, err := range walk.Walk(ctx, w.req.Root, w.req.Recurse, func(opts *walk.Options) {
		opts.S3 = w.s.s3
		opts.Logger = w.logger
	}) {
		if err != nil {
			return &searchError{path: w.req.Root, err: err}
		}

		if w.stopped(ctx) {
			return nil
		}

		w.s.setStatus(fmt.Sprintf("Searching %s", c.Path))
		if err = w.scanArchive(ctx, c); err != nil {
			return &searchError{path: c.Path, err: err}
		}

		sometimes.Do(func() {
			stats := w.s.Stats()
			w.logger.Printf("searched %d archives (%s) so far, %d matches", stats.Archives, humanize.Bytes(uint64(stats.Bytes)), w.s.MatchCount())
		})
	}

	return nil
}

func (w *worker) scanArchive(ctx context.Context, c walk.Candidate) error {
	f, err := c.Open(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := scan.Open(c.Path, f, c.Size)
	if err != nil {
		return err
	}

	w.s.updateStats(func(stats *Stats) {
		stats.Archives++
		stats.Bytes += c.Size
	})

	w.emitter.beginArchive(c.Path, c.Display)
	defer func() {
		if w.emitter.matched() {
			w.s.updateStats(func(stats *Stats) {
				stats.Matched++
			})
		}
	}()

	for m, err := range a.Members(ctx) {
		if err != nil {
			return err
		}

		if w.stopped(ctx) {
			return nil
		}

		w.s.updateStats(func(stats *Stats) {
			stats.Members++
		})

		if w.matcher.NameOnly() {
			if nm, ok := w.matcher.Name(m.Name); ok {
				w.emitter.name(nm)
				w.s.addMatch()
			}
			continue
		}

		if err = w.scanMember(ctx, m); err != nil {
			if match.IsDecodeError(err) {
				w.logger.Printf(`skipping rest of "%s" in "%s": %v`, m.Name, c.Display, err)
				continue
			}

			return err
		}
	}

	return nil
}

func (w *worker) scanMember(ctx context.Context, m scan.Member) error {
	rc, err := m.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	w.emitter.beginMember(m.Name)

	for lm, err := range w.matcher.Lines(ctx, rc) {
		if err != nil {
			if match.IsDecodeError(err) || errors.Is(err, context.Canceled) {
				return err
			}

			return &scan.OpenError{Path: w.emitter.archive.Path, Member: m.Name, Err: fmt.Errorf("read error: %w", err)}
		}

		w.emitter.line(lm)
		w.s.addMatch()
	}

	return nil
}
