package scan

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	eocdSig = 0x06054b50

	// eocdLen is the size of the fixed-size part of the EOCD record.
	eocdLen = 22

	// DefaultMaxBytes is the default value of [Options.MaxBytes].
	//
	// It is the largest possible EOCD record: the fixed-size part plus a comment of maximum length.
	DefaultMaxBytes int64 = eocdLen + 0xffff
)

var eocdSigBytes = binary.LittleEndian.AppendUint32(nil, eocdSig)

// ErrNoEOCDFound is returned if no EOCD signature was found.
var ErrNoEOCDFound = errors.New("end of central directory not found; most likely not a ZIP file")

// EOCDRecord models the end of central directory record of a ZIP file.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type EOCDRecord struct {
	// DiskNumber is number of this disk (or 0xffff for ZIP64).
	DiskNumber uint16
	// CDDiskOffset is disk where central directory starts (or 0xffff for ZIP64).
	CDDiskOffset uint16
	// CDCountOnDisk is the number of central directory records on this disk (or 0xffff for ZIP64).
	CDCountOnDisk uint16
	// CDCount is the total number of central directory records (or 0xffff for ZIP64).
	CDCount uint16
	// CDSize is size of central directory (bytes) (or 0xffffffff for ZIP64).
	CDSize uint32
	// CDOffset is offset of start of central directory, relative to start of archive (or 0xffffffff for ZIP64).
	CDOffset uint32
	// Comment is the comment section of the EOCD.
	Comment string
}

// Options customises FindEOCD.
type Options struct {
	// MaxBytes limits the number of trailing bytes that are searched for the EOCD record.
	//
	// By default, DefaultMaxBytes is used. Set this to 0 to force scanning the entire file.
	MaxBytes int64
}

// FindEOCD searches the trailing bytes of src backwards for the EOCD record.
//
// A signature only counts if the comment length recorded right after it fits in the remaining bytes, so stray
// signature bytes inside a comment or inside compressed data near the end are passed over.
func FindEOCD(src io.ReaderAt, size int64, optFns ...func(*Options)) (r EOCDRecord, err error) {
	opts := &Options{MaxBytes: DefaultMaxBytes}
	for _, fn := range optFns {
		fn(opts)
	}

	if size < eocdLen {
		return r, ErrNoEOCDFound
	}

	n := size
	if opts.MaxBytes > 0 && n > opts.MaxBytes {
		n = opts.MaxBytes
	}

	b := make([]byte, n)
	switch readN, err := src.ReadAt(b, size-n); {
	case err != nil && !errors.Is(err, io.EOF):
		return r, fmt.Errorf("find EOCD: read error: %w", err)
	case int64(readN) < n:
		return r, fmt.Errorf("find EOCD: insufficient read: expected %d bytes, got %d", n, readN)
	}

	for end := len(b); ; {
		i := bytes.LastIndex(b[:end], eocdSigBytes)
		if i == -1 || len(b)-i < eocdLen {
			if i == -1 {
				return r, ErrNoEOCDFound
			}

			// too close to the end to hold a record; keep looking further back.
			end = i + len(eocdSigBytes) - 1
			continue
		}

		if r, err = unmarshalEOCDRecord(([eocdLen]byte)(b[i:i+eocdLen]), b[i+eocdLen:]); err == nil {
			return r, nil
		}

		end = i + len(eocdSigBytes) - 1
	}
}

// IsZip returns true if an EOCD record can be found in the trailing bytes of src.
//
// This is the cheap container check; a true result does not guarantee the central directory itself is intact.
func IsZip(src io.ReaderAt, size int64) bool {
	_, err := FindEOCD(src, size)
	return err == nil
}

// unmarshalEOCDRecord decodes the 22-byte slice as a EOCDRecord.
// rest is everything after the fixed-size part and must be able to hold the comment.
func unmarshalEOCDRecord(b [eocdLen]byte, rest []byte) (r EOCDRecord, err error) {
	data := &struct {
		Signature     uint32
		DiskNumber    uint16
		CDDiskOffset  uint16
		CDCountOnDisk uint16
		CDCount       uint16
		CDSize        uint32
		CDOffset      uint32
		CommentLength uint16
	}{}

	if !bytes.Equal(eocdSigBytes, b[:4]) {
		return r, fmt.Errorf("mismatched signature, got 0x%x, expected 0x%x", b[:4], eocdSigBytes)
	}

	if err = binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return r, fmt.Errorf("unmarshal error: %w", err)
	}

	if int(data.CommentLength) > len(rest) {
		return r, fmt.Errorf("insufficient comment data: needs %d bytes, got %d", data.CommentLength, len(rest))
	}

	return EOCDRecord{
		DiskNumber:    data.DiskNumber,
		CDDiskOffset:  data.CDDiskOffset,
		CDCountOnDisk: data.CDCountOnDisk,
		CDCount:       data.CDCount,
		CDSize:        data.CDSize,
		CDOffset:      data.CDOffset,
		Comment:       string(rest[:data.CommentLength]),
	}, nil
}
