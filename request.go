package walgrep

import (
	"fmt"

	"github.com/nguyengg/walgrep/walk"
)

// Request describes one search.
type Request struct {
	// Root is a local file or directory, or an `s3://bucket/key` URI naming an object or a prefix.
	Root string
	// Pattern is the regular expression in RE2 syntax.
	Pattern string
	// Recurse controls whether subdirectories (or nested S3 prefixes) of Root are searched.
	Recurse bool
	// NameOnly switches from matching member content to matching member base names.
	NameOnly bool
}

func (r Request) validate(hasS3 bool) error {
	if r.Root == "" {
		return fmt.Errorf("%w: root is required", ErrInvalidRequest)
	}

	if walk.IsS3(r.Root) {
		if _, _, err := walk.ParseS3URI(r.Root); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		if !hasS3 {
			return fmt.Errorf(`%w: root "%s" requires an S3 client`, ErrInvalidRequest, r.Root)
		}
	}

	return nil
}
