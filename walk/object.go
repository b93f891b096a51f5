package walk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API abstracts the S3 APIs needed to walk a bucket and read archives from it.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// DefaultBufferSize is the read-ahead size of sequential Read calls on an S3 object.
const DefaultBufferSize = 64 * 1024

// ErrSeekBeforeFirstByte is returned when a Seek would end up at a negative offset.
var ErrSeekBeforeFirstByte = errors.New("seek ends up before first byte")

// objectReader uses ranged GetObject to implement File for an S3 object of known size.
//
// Sequential Reads are served from a read-ahead buffer so that many small reads do not each become a GetObject.
// ReadAt bypasses the buffer.
type objectReader struct {
	ctx         context.Context
	client      S3API
	bucket, key string
	off, size   int64
	// buf holds the bytes starting at off.
	buf        bytes.Buffer
	bufferSize int
}

func newObjectReader(ctx context.Context, client S3API, bucket, key string, size int64) *objectReader {
	return &objectReader{
		ctx:        ctx,
		client:     client,
		bucket:     bucket,
		key:        key,
		size:       size,
		bufferSize: DefaultBufferSize,
	}
}

// getRange returns the body of the object from off to end exclusive.
func (r *objectReader) getRange(off, end int64) (io.ReadCloser, error) {
	out, err := r.client.GetObject(r.ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end-1)),
	})
	if err != nil {
		return nil, fmt.Errorf(`get "s3://%s/%s" bytes %d-%d error: %w`, r.bucket, r.key, off, end-1, err)
	}

	return out.Body, nil
}

func (r *objectReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if r.buf.Len() == 0 {
		if r.off >= r.size {
			return 0, io.EOF
		}

		end := min(r.size, r.off+int64(max(len(p), r.bufferSize)))
		body, err := r.getRange(r.off, end)
		if err != nil {
			return 0, err
		}

		_, err = r.buf.ReadFrom(body)
		if _ = body.Close(); err != nil {
			r.buf.Reset()
			return 0, err
		}
	}

	n, _ := r.buf.Read(p)
	r.off += int64(n)
	return n, nil
}

func (r *objectReader) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, ErrSeekBeforeFirstByte
	}
	if off >= r.size {
		return 0, io.EOF
	}

	end := min(r.size, off+int64(len(p)))
	body, err := r.getRange(off, end)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.ReadFull(body, p[:end-off])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (r *objectReader) Seek(offset int64, whence int) (int64, error) {
	var off int64
	switch whence {
	case io.SeekStart:
		off = offset
	case io.SeekCurrent:
		off = r.off + offset
	case io.SeekEnd:
		off = r.size + offset
	default:
		return r.off, fmt.Errorf("invalid whence %d", whence)
	}

	if off < 0 {
		return r.off, ErrSeekBeforeFirstByte
	}

	// keep the read-ahead if the new offset still falls inside it.
	if delta := off - r.off; delta >= 0 && delta <= int64(r.buf.Len()) {
		r.buf.Next(int(delta))
	} else {
		r.buf.Reset()
	}

	r.off = off
	return off, nil
}

func (r *objectReader) Close() error {
	r.buf.Reset()
	return nil
}
