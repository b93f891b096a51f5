package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nguyengg/walgrep/internal/tui"
	"github.com/nguyengg/walgrep/walk"
)

type Tui struct {
	ModeOptions

	Watch bool `short:"w" long:"watch" description:"search again whenever files under a local PATH change"`

	Args searchArgs `positional-args:"yes"`

	globals *Walgrep
}

func (c *Tui) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	// stderr belongs to the terminal UI so verbose logs go to a file instead.
	logger := log.New(io.Discard, "", 0)
	if c.globals.Verbose {
		f, err := tea.LogToFile(filepath.Join(os.TempDir(), "walgrep.log"), "")
		if err != nil {
			return fmt.Errorf("create log file error: %w", err)
		}
		defer f.Close()

		logger = log.New(f, "", log.LstdFlags)
	}

	s, req, cfg, err := c.globals.setup(ctx, c.Args, c.ModeOptions, logger)
	if err != nil {
		return err
	}
	defer s.Stop()

	p := tea.NewProgram(tui.New(s, req, cfg.Poll()), tea.WithAltScreen(), tea.WithContext(ctx))

	if c.Watch && !walk.IsS3(req.Root) {
		go func() {
			if err := tui.Watch(ctx, req.Root, req.Recurse, tui.DefaultDebounce, logger, func() {
				p.Send(tui.RestartMsg{})
			}); err != nil {
				logger.Printf("watch error: %v", err)
			}
		}()
	}

	if _, err = p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run TUI error: %w", err)
	}

	return nil
}
