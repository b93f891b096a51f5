package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the name of the configuration file that Load looks for.
const FileName = ".walgrep.toml"

// Loader can be used for loading .walgrep.toml configuration as well as overridden with default settings.
type Loader struct {
	// Profile is the AWS profile to use, taking precedence over any profile in the configuration file.
	Profile string

	cfg           Config
	s3clientCache sync.Map
}

// Load will traverse the directory hierarchy upwards from the working directory to find the first .walgrep.toml file
// available and load its contents into the Loader.
//
// The name of the file is returned, empty if none was found.
func (l *Loader) Load(ctx context.Context) (string, error) {
	cur, err := os.Getwd()
	if err != nil {
		return "", err
	}

	name, err := Find(ctx, cur)
	if err != nil || name == "" {
		return "", err
	}

	return name, l.LoadFile(name)
}

// LoadFile loads the given file into the Loader, replacing any previously loaded configuration.
func (l *Loader) LoadFile(name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf(`read config "%s" error: %w`, name, err)
	}

	var cfg Config
	if err = toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf(`parse config "%s" error: %w`, name, err)
	}

	l.cfg = cfg
	return nil
}

// Config returns the loaded configuration.
func (l *Loader) Config() Config {
	return l.cfg
}

// Find returns the first .walgrep.toml file in dir or any of its ancestors.
//
// Returns an empty string if there is none.
func Find(ctx context.Context, dir string) (string, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		if err = ctx.Err(); err != nil {
			return "", err
		}

		path := filepath.Join(cur, FileName)
		switch fi, err := os.Stat(path); {
		case err == nil && !fi.IsDir():
			return path, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", nil
		}

		cur = parent
	}
}

// DefaultLoader is the default Loader instance for package-level methods.
var DefaultLoader = &Loader{}

// Load calls Loader.Load on the DefaultLoader instance.
func Load(ctx context.Context) (string, error) {
	return DefaultLoader.Load(ctx)
}
