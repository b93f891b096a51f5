// Package walk enumerates candidate ZIP archives under a local path or an S3 URI.
package walk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"strings"
)

// File is the random-access handle returned by Candidate.Open.
type File interface {
	io.ReaderAt
	io.ReadSeeker
	io.Closer
}

// Candidate is one archive the walk visits.
type Candidate struct {
	// Path is the absolute local path or the S3 URI of the archive.
	Path string
	// Display is the path relative to the search root using `/` as separator.
	//
	// If the root named the archive directly, Display is its base name.
	Display string
	// Size is the size of the archive in bytes.
	Size int64

	open func(ctx context.Context) (File, error)
}

// Open opens the archive for random-access reading.
//
// For S3 archives, ctx is used for every ranged GetObject made through the returned File.
func (c Candidate) Open(ctx context.Context) (File, error) {
	f, err := c.open(ctx)
	if err != nil {
		return nil, fmt.Errorf(`open "%s" error: %w`, c.Path, err)
	}

	return f, nil
}

// Options customises Walk.
type Options struct {
	// S3 returns the client to use for a bucket.
	//
	// Required only if the root is an S3 URI.
	S3 func(ctx context.Context, bucket string) (S3API, error)

	// Logger receives one line per candidate that is skipped for a reason other than not being a ZIP file.
	//
	// By default, logs are discarded.
	Logger *log.Logger
}

// ErrNoS3Client is returned when walking an S3 root without Options.S3.
var ErrNoS3Client = errors.New("no S3 client configured")

// Walk returns an iterator over the candidate archives under root.
//
// If root names a single file (or S3 object), exactly that file is produced without checking whether it is a ZIP file.
// If root names a directory (or S3 prefix), its files are produced in name order, files of a directory before its
// subdirectories, and only if they look like a ZIP file. Subdirectories are descended only if recurse is true.
//
// If root does not exist or cannot be listed, a single error is produced. Iteration stops without error as soon as ctx
// is cancelled.
func Walk(ctx context.Context, root string, recurse bool, optFns ...func(*Options)) iter.Seq2[Candidate, error] {
	opts := &Options{}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	if IsS3(root) {
		return walkS3(ctx, root, recurse, opts)
	}

	return walkLocal(ctx, root, recurse, opts)
}

// IsS3 returns true if root uses the `s3://` scheme.
func IsS3(root string) bool {
	return strings.HasPrefix(root, "s3://")
}

// ParseS3URI splits an `s3://bucket/key` URI into bucket and key.
//
// The key may be empty.
func ParseS3URI(root string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(root, "s3://")
	if !ok {
		return "", "", fmt.Errorf(`"%s" is not an S3 URI`, root)
	}

	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf(`"%s" has no bucket`, root)
	}

	return bucket, key, nil
}
