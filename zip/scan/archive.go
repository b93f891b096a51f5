package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/mholt/archives"
)

// Source is the random-access handle an Archive is read from.
//
// *os.File satisfies it, and so does the S3 object reader in package walk.
type Source interface {
	io.ReaderAt
	io.ReadSeeker
}

// OpenError is returned when an archive or one of its members cannot be opened or read as a ZIP container.
//
// It is fatal to a search session, unlike a member whose content merely fails to decode as text.
type OpenError struct {
	// Path is the path or URI of the archive.
	Path string
	// Member is the name of the member being opened, empty if the container itself failed.
	Member string
	Err    error
}

func (e *OpenError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf(`open zip file "%s" error: %v`, e.Path, e.Err)
	}

	return fmt.Sprintf(`open entry "%s" in zip file "%s" error: %v`, e.Member, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Archive is one opened ZIP container.
type Archive struct {
	// Path is the path or URI the archive was opened from.
	Path string
	// EOCD is the end of central directory record found while opening.
	EOCD EOCDRecord

	src  Source
	size int64
}

// Open opens src as a ZIP container.
//
// Only the EOCD record is validated here; a truncated or corrupt central directory is reported as an *OpenError by the
// first iteration of Members.
func Open(name string, src Source, size int64) (*Archive, error) {
	r, err := FindEOCD(src, size)
	if err != nil {
		return nil, &OpenError{Path: name, Err: err}
	}

	return &Archive{Path: name, EOCD: r, src: src, size: size}, nil
}

// Member is one non-directory file in an Archive.
type Member struct {
	// Name is the full name of the member in the archive, always using `/` as separator.
	Name string
	// Size is the uncompressed size.
	Size int64

	archive string
	open    func() (io.ReadCloser, error)
}

// Open opens the member for reading its uncompressed content.
//
// Open must be called before the Members iterator advances past this member. Failures such as an unsupported
// compression method are returned as *OpenError.
func (m Member) Open() (io.ReadCloser, error) {
	rc, err := m.open()
	if err != nil {
		return nil, &OpenError{Path: m.archive, Member: m.Name, Err: err}
	}

	return rc, nil
}

var errStop = errors.New("stop iteration")

// Members returns an iterator over the archive's members in central directory order.
//
// Directory members are skipped. The iterator stops without error as soon as ctx is cancelled, checking before each
// member. If the central directory cannot be read, a single *OpenError is produced and the iterator stops.
func (a *Archive) Members(ctx context.Context) iter.Seq2[Member, error] {
	return func(yield func(Member, error) bool) {
		if _, err := a.src.Seek(0, io.SeekStart); err != nil {
			yield(Member{}, &OpenError{Path: a.Path, Err: fmt.Errorf("rewind error: %w", err)})
			return
		}

		err := archives.Zip{}.Extract(ctx, a.src, func(ctx context.Context, f archives.FileInfo) error {
			if ctx.Err() != nil {
				return errStop
			}

			if f.IsDir() {
				return nil
			}

			m := Member{
				Name:    f.NameInArchive,
				Size:    f.Size(),
				archive: a.Path,
				open: func() (io.ReadCloser, error) {
					return f.Open()
				},
			}

			if !yield(m, nil) {
				return errStop
			}

			return nil
		})

		switch {
		case err == nil, errors.Is(err, errStop), ctx.Err() != nil:
			return
		default:
			yield(Member{}, &OpenError{Path: a.Path, Err: err})
		}
	}
}
