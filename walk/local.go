package walk

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/nguyengg/walgrep/zip/scan"
)

func walkLocal(ctx context.Context, root string, recurse bool, opts *Options) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		abs, err := filepath.Abs(root)
		if err != nil {
			yield(Candidate{}, fmt.Errorf(`resolve "%s" error: %w`, root, err))
			return
		}

		fi, err := os.Stat(abs)
		if err != nil {
			yield(Candidate{}, fmt.Errorf(`stat "%s" error: %w`, root, err))
			return
		}

		if !fi.IsDir() {
			if ctx.Err() == nil {
				yield(localCandidate(abs, fi.Name(), fi.Size()), nil)
			}
			return
		}

		entries, err := os.ReadDir(abs)
		if err != nil {
			yield(Candidate{}, fmt.Errorf(`read directory "%s" error: %w`, root, err))
			return
		}

		w := &localWalker{root: abs, recurse: recurse, opts: opts, yield: yield}
		w.walkEntries(ctx, abs, entries)
	}
}

type localWalker struct {
	root    string
	recurse bool
	opts    *Options
	yield   func(Candidate, error) bool
}

// walkDir returns false if iteration must stop.
func (w *localWalker) walkDir(ctx context.Context, dir string) bool {
	if ctx.Err() != nil {
		return false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.opts.Logger.Printf(`skipping directory "%s": %v`, dir, err)
		return true
	}

	return w.walkEntries(ctx, dir, entries)
}

func (w *localWalker) walkEntries(ctx context.Context, dir string, entries []fs.DirEntry) bool {
	var subdirs []string

	for _, e := range entries {
		name := filepath.Join(dir, e.Name())

		if e.IsDir() {
			subdirs = append(subdirs, name)
			continue
		}

		if ctx.Err() != nil {
			return false
		}

		// symlinks are followed for files only.
		fi, err := os.Stat(name)
		if err != nil {
			w.opts.Logger.Printf(`skipping "%s": %v`, name, err)
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		if !w.looksLikeZip(name, fi.Size()) {
			continue
		}

		rel, err := filepath.Rel(w.root, name)
		if err != nil {
			rel = e.Name()
		}

		if !w.yield(localCandidate(name, filepath.ToSlash(rel), fi.Size()), nil) {
			return false
		}
	}

	if !w.recurse {
		return true
	}

	for _, sub := range subdirs {
		if !w.walkDir(ctx, sub) {
			return false
		}
	}

	return true
}

func (w *localWalker) looksLikeZip(name string, size int64) bool {
	f, err := os.Open(name)
	if err != nil {
		w.opts.Logger.Printf(`skipping "%s": %v`, name, err)
		return false
	}
	defer f.Close()

	return scan.IsZip(f, size)
}

func localCandidate(name, display string, size int64) Candidate {
	return Candidate{
		Path:    name,
		Display: display,
		Size:    size,
		open: func(context.Context) (File, error) {
			f, err := os.Open(name)
			if err != nil {
				return nil, err
			}

			return f, nil
		},
	}
}
