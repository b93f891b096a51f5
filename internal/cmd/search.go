package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/walgrep/event"
	"github.com/nguyengg/walgrep/internal"
	"github.com/nguyengg/walgrep/internal/results"
	"github.com/nguyengg/walgrep/internal/tui"
	"github.com/schollz/progressbar/v3"
)

type Search struct {
	ModeOptions

	JSON       bool `long:"json" description:"print all results as one JSON document once the search ends"`
	NoProgress bool `long:"no-progress" description:"do not show the progress spinner on stderr"`

	Args searchArgs `positional-args:"yes"`

	globals *Walgrep
	logger  *log.Logger
}

func (c *Search) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	return c.run(ctx)
}

func (c *Search) run(ctx context.Context) error {
	stdout, stderr := c.globals.writers()

	s, req, cfg, err := c.globals.setup(ctx, c.Args, c.ModeOptions, c.logger)
	if err != nil {
		return err
	}

	if err = s.Start(req); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !c.NoProgress && !c.JSON {
		bar = internal.DefaultSpinner(stderr, s.Status())
	}

	var (
		styles  = tui.DefaultStyles()
		tree    results.Tree
		failure error
		ticker  = time.NewTicker(cfg.Poll())
	)
	defer ticker.Stop()

	for interrupted := false; ; {
		events, running := s.Poll()
		tree.Apply(events...)

		for _, e := range events {
			if se, ok := e.(event.SessionError); ok {
				failure = se
			}

			if c.JSON {
				continue
			}

			lines := styles.RenderEvent(e)
			if len(lines) == 0 {
				continue
			}

			if bar != nil {
				_ = bar.Clear()
			}

			w := stdout
			if _, ok := e.(event.SessionError); ok {
				w = stderr
			}
			for _, line := range lines {
				_, _ = fmt.Fprintln(w, line)
			}
		}

		if !running {
			break
		}

		if bar != nil {
			bar.Describe(internal.TruncateLeftWithPrefix(s.Status(), 60, "..."))
			_ = bar.Set(s.MatchCount())
		}

		select {
		case <-ctx.Done():
			if !interrupted {
				interrupted = true
				s.Stop()
			}
		case <-ticker.C:
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err = enc.Encode(&tree); err != nil {
			return fmt.Errorf("write JSON error: %w", err)
		}
	}

	stats := s.Stats()
	_, _ = fmt.Fprintf(stderr, "%s Searched %d archives (%s), %d with matches.\n",
		s.Status(), stats.Archives, humanize.Bytes(uint64(stats.Bytes)), stats.Matched)

	if failure != nil {
		return fmt.Errorf("search error: %w", failure)
	}

	return nil
}
