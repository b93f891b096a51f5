package scan

import (
	"archive/zip"
	"bytes"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildZip writes a ZIP with the given members (name to content) in order and returns its bytes.
func buildZip(t *testing.T, comment string, members ...string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for i := 0; i+1 < len(members); i += 2 {
		w, err := zw.Create(members[i])
		require.NoErrorf(t, err, "Create(%s) error = %v", members[i], err)
		_, err = w.Write([]byte(members[i+1]))
		require.NoErrorf(t, err, "Write(%s) error = %v", members[i], err)
	}

	if comment != "" {
		require.NoError(t, zw.SetComment(comment))
	}

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFindEOCD(t *testing.T) {
	data := buildZip(t, "", "test/a.txt", "hello", "test/path/b.txt", "world")

	r, err := FindEOCD(bytes.NewReader(data), int64(len(data)))
	require.NoErrorf(t, err, "FindEOCD() error = %v", err)
	assert.Equal(t, uint16(2), r.CDCount)
	assert.Equal(t, uint16(2), r.CDCountOnDisk)
	assert.Equal(t, "", r.Comment)
	assert.Equal(t, int64(len(data)), int64(r.CDOffset)+int64(r.CDSize)+eocdLen)
}

func TestFindEOCD_EmptyArchive(t *testing.T) {
	data := buildZip(t, "")
	require.Len(t, data, eocdLen)

	r, err := FindEOCD(bytes.NewReader(data), int64(len(data)))
	require.NoErrorf(t, err, "FindEOCD() error = %v", err)
	assert.Equal(t, uint16(0), r.CDCount)
}

func TestFindEOCD_WithComment(t *testing.T) {
	alphabet := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	tests := []struct {
		commentLength int
	}{
		{commentLength: 8 * 1024},
		{commentLength: 32 * 1024},
		{commentLength: 0xffff - 4},
	}

	for _, tt := range tests {
		for _, delta := range []int{-4, -1, 0, 1, 4} {
			t.Run(fmt.Sprintf("%d with delta=%d", tt.commentLength, delta), func(t *testing.T) {
				n := tt.commentLength + delta
				comment := make([]byte, n)
				for i := range n {
					comment[i] = alphabet[rand.IntN(len(alphabet))]
				}

				data := buildZip(t, string(comment))
				assert.Equalf(t, n+eocdLen, len(data), "Mismatched buffer size; got = %d, want = %d", len(data), n+eocdLen)

				r, err := FindEOCD(bytes.NewReader(data), int64(len(data)))
				assert.NoErrorf(t, err, "FindEOCD() error = %v", err)
				assert.Equal(t, string(comment), r.Comment)
			})
		}
	}
}

func TestFindEOCD_SignatureInsideComment(t *testing.T) {
	// a signature near the end whose comment length cannot fit must be passed over in favour of the real record.
	comment := "PK\x05\x06" + string(make([]byte, 16)) + "\xff\xff"
	data := buildZip(t, comment, "a.txt", "a")

	r, err := FindEOCD(bytes.NewReader(data), int64(len(data)))
	require.NoErrorf(t, err, "FindEOCD() error = %v", err)
	assert.Equal(t, comment, r.Comment)
	assert.Equal(t, uint16(1), r.CDCount)
}

func TestFindEOCD_NotZip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short", data: []byte("PK\x05\x06")},
		{name: "text", data: bytes.Repeat([]byte("not a zip file\n"), 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindEOCD(bytes.NewReader(tt.data), int64(len(tt.data)))
			assert.ErrorIs(t, err, ErrNoEOCDFound)
			assert.False(t, IsZip(bytes.NewReader(tt.data), int64(len(tt.data))))
		})
	}
}

func TestFindEOCD_MaxBytes(t *testing.T) {
	// put enough junk after the record that the default window no longer reaches it.
	data := buildZip(t, "", "a.txt", "a")
	data = append(data, bytes.Repeat([]byte{'x'}, int(DefaultMaxBytes))...)

	_, err := FindEOCD(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrNoEOCDFound)

	r, err := FindEOCD(bytes.NewReader(data), int64(len(data)), func(opts *Options) {
		opts.MaxBytes = 0
	})
	require.NoErrorf(t, err, "FindEOCD() error = %v", err)
	assert.Equal(t, uint16(1), r.CDCount)
}
