package cmd

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/walgrep"
	"github.com/nguyengg/walgrep/internal"
	"github.com/nguyengg/walgrep/internal/config"
)

// Globals are options that apply to every command.
type Globals struct {
	Verbose bool           `short:"v" long:"verbose" description:"log progress and skipped members to stderr"`
	Config  flags.Filename `short:"c" long:"config" description:"configuration file; by default .walgrep.toml is searched for upwards from the working directory"`
	Profile string         `short:"p" long:"profile" description:"AWS profile to use, overriding any profile in the configuration file"`
}

type Walgrep struct {
	Globals

	Search Search `command:"search" alias:"s" description:"search archives and print matches"`
	Tui    Tui    `command:"tui" alias:"t" description:"search archives interactively"`

	stdout io.Writer
	stderr io.Writer
}

func NewParser() (*flags.Parser, error) {
	opts := &Walgrep{stdout: os.Stdout, stderr: os.Stderr}
	opts.Search.globals = opts
	opts.Tui.globals = opts

	p := flags.NewParser(opts, flags.Default)
	p.Name = "walgrep"
	return p, nil
}

// searchArgs are the positional arguments shared by every command.
type searchArgs struct {
	Pattern string `positional-arg-name:"PATTERN" description:"regular expression in RE2 syntax" required:"yes"`
	Root    string `positional-arg-name:"PATH" description:"local file or directory, or s3://bucket/prefix" required:"yes"`
}

// ModeOptions are the search mode flags shared by every command.
//
// Each setting defaults to the configuration file; the --no- flags switch off a setting that the file turns on.
type ModeOptions struct {
	Recurse    bool `short:"r" long:"recurse" description:"also search subdirectories, or nested prefixes of an S3 root"`
	NoRecurse  bool `long:"no-recurse" description:"search only the top level even if the configuration file sets recurse"`
	NameOnly   bool `short:"n" long:"name-only" description:"match the base names of members instead of their content"`
	NoNameOnly bool `long:"no-name-only" description:"match member content even if the configuration file sets name-only"`
}

func (o ModeOptions) resolve(cfg config.Config) (recurse, nameOnly bool) {
	recurse = (o.Recurse || cfg.Recurse) && !o.NoRecurse
	nameOnly = (o.NameOnly || cfg.NameOnly) && !o.NoNameOnly
	return
}

// setup loads configuration and creates the session for the given command-line settings.
func (w *Walgrep) setup(ctx context.Context, args searchArgs, mode ModeOptions, logger *log.Logger) (*walgrep.Session, walgrep.Request, config.Config, error) {
	loader := &config.Loader{Profile: w.Profile}

	var err error
	if w.Config != "" {
		err = loader.LoadFile(string(w.Config))
	} else {
		_, err = loader.Load(ctx)
	}
	if err != nil {
		return nil, walgrep.Request{}, config.Config{}, err
	}

	cfg := loader.Config()
	if logger == nil {
		logger = internal.NewLogger(w.Verbose || cfg.Verbose)
	}

	req := walgrep.Request{Root: args.Root, Pattern: args.Pattern}
	req.Recurse, req.NameOnly = mode.resolve(cfg)

	s := walgrep.New(func(opts *walgrep.Options) {
		opts.Logger = logger
		opts.S3 = loader.S3()
	})

	return s, req, cfg, nil
}

func (w *Walgrep) writers() (stdout io.Writer, stderr io.Writer) {
	stdout, stderr = w.stdout, w.stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return
}
