package match

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/nguyengg/walgrep/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectLines(t *testing.T, m *Matcher, ctx context.Context, r io.Reader) (got []event.LineMatch, err error) {
	t.Helper()

	for lm, err := range m.Lines(ctx, r) {
		if err != nil {
			return got, err
		}
		got = append(got, lm)
	}

	return got, nil
}

func TestNew_InvalidPattern(t *testing.T) {
	tests := []string{"(", "a[", `(?=lookahead)`}

	for _, pattern := range tests {
		t.Run(pattern, func(t *testing.T) {
			_, err := New(pattern, false)

			var pe *PatternError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, pattern, pe.Pattern)
		})
	}
}

func TestMatcher_Lines(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		content string
		want    []event.LineMatch
	}{
		{
			name:    "one match per line",
			pattern: "ba",
			content: "foo bar\nbaz",
			want: []event.LineMatch{
				{Line: 0, Text: "foo bar", Start: 4, End: 6},
				{Line: 1, Text: "baz", Start: 0, End: 2},
			},
		},
		{
			name:    "non-overlapping matches on the same line",
			pattern: "an",
			content: "banana\n",
			want: []event.LineMatch{
				{Line: 0, Text: "banana", Start: 1, End: 3},
				{Line: 0, Text: "banana", Start: 3, End: 5},
			},
		},
		{
			name:    "offsets count runes not bytes",
			pattern: "wö",
			content: "héllo wörld",
			want: []event.LineMatch{
				{Line: 0, Text: "héllo wörld", Start: 6, End: 8},
			},
		},
		{
			name:    "crlf is stripped",
			pattern: "d$",
			content: "end\r\nand\r\n",
			want: []event.LineMatch{
				{Line: 0, Text: "end", Start: 2, End: 3},
				{Line: 1, Text: "and", Start: 2, End: 3},
			},
		},
		{
			name:    "lone cr ends a line",
			pattern: "ba",
			content: "foo\rbar\rbaz",
			want: []event.LineMatch{
				{Line: 1, Text: "bar", Start: 0, End: 2},
				{Line: 2, Text: "baz", Start: 0, End: 2},
			},
		},
		{
			name:    "mixed terminators",
			pattern: "x",
			content: "a\r\r\nx\nb\rx\r",
			want: []event.LineMatch{
				{Line: 2, Text: "x", Start: 0, End: 1},
				{Line: 4, Text: "x", Start: 0, End: 1},
			},
		},
		{
			name:    "empty lines keep their index",
			pattern: "x",
			content: "\n\nx\n",
			want: []event.LineMatch{
				{Line: 2, Text: "x", Start: 0, End: 1},
			},
		},
		{
			name:    "no match",
			pattern: "zzz",
			content: "foo\nbar\n",
		},
		{
			name:    "empty content",
			pattern: ".*",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.pattern, false)
			require.NoError(t, err)

			got, err := collectLines(t, m, context.Background(), strings.NewReader(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_Lines_DecodeError(t *testing.T) {
	m, err := New("ba", false)
	require.NoError(t, err)

	got, err := collectLines(t, m, context.Background(), strings.NewReader("ba1\n\xff\xfe ba\nba3\n"))

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Line)
	assert.True(t, IsDecodeError(err))
	assert.Equal(t, []event.LineMatch{{Line: 0, Text: "ba1", Start: 0, End: 2}}, got)
}

func TestMatcher_Lines_ReadError(t *testing.T) {
	m, err := New("ba", false)
	require.NoError(t, err)

	boom := errors.New("boom")
	got, err := collectLines(t, m, context.Background(), io.MultiReader(strings.NewReader("ba\n"), iotest.ErrReader(boom)))

	assert.ErrorIs(t, err, boom)
	assert.False(t, IsDecodeError(err))
	assert.Equal(t, []event.LineMatch{{Line: 0, Text: "ba", Start: 0, End: 2}}, got)
}

func TestMatcher_Lines_Cancelled(t *testing.T) {
	m, err := New("a", false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := collectLines(t, m, ctx, strings.NewReader("a\na\na\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatcher_Lines_Break(t *testing.T) {
	m, err := New("a", false)
	require.NoError(t, err)

	n := 0
	for _, err := range m.Lines(context.Background(), strings.NewReader("aaa\na\n")) {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestMatcher_Name(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		member  string
		want    event.NameMatch
		ok      bool
	}{
		{
			name:    "basename match",
			pattern: "ba",
			member:  "dir/sub/bar.txt",
			want:    event.NameMatch{Name: "dir/sub/bar.txt", Base: "bar.txt", Spans: []event.Span{{Start: 0, End: 2}}},
			ok:      true,
		},
		{
			name:    "directory prefix is not searched",
			pattern: "ba",
			member:  "ba/x.txt",
		},
		{
			name:    "multiple spans",
			pattern: "o",
			member:  "foo.log",
			want:    event.NameMatch{Name: "foo.log", Base: "foo.log", Spans: []event.Span{{Start: 1, End: 2}, {Start: 2, End: 3}, {Start: 5, End: 6}}},
			ok:      true,
		},
		{
			name:    "anchored to basename",
			pattern: `^report`,
			member:  "2024/report.csv",
			want:    event.NameMatch{Name: "2024/report.csv", Base: "report.csv", Spans: []event.Span{{Start: 0, End: 6}}},
			ok:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.pattern, true)
			require.NoError(t, err)
			assert.True(t, m.NameOnly())

			got, ok := m.Name(tt.member)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []event.Span
		want  []Segment
	}{
		{
			name:  "middle",
			text:  "foo bar",
			spans: []event.Span{{Start: 4, End: 6}},
			want:  []Segment{{Text: "foo "}, {Text: "ba", Match: true}, {Text: "r"}},
		},
		{
			name:  "adjacent",
			text:  "banana",
			spans: []event.Span{{Start: 1, End: 3}, {Start: 3, End: 5}},
			want:  []Segment{{Text: "b"}, {Text: "an", Match: true}, {Text: "an", Match: true}, {Text: "a"}},
		},
		{
			name:  "multibyte",
			text:  "héllo wörld",
			spans: []event.Span{{Start: 6, End: 8}},
			want:  []Segment{{Text: "héllo "}, {Text: "wö", Match: true}, {Text: "rld"}},
		},
		{
			name:  "clamped",
			text:  "abc",
			spans: []event.Span{{Start: 2, End: 10}},
			want:  []Segment{{Text: "ab"}, {Text: "c", Match: true}},
		},
		{
			name: "no spans",
			text: "abc",
			want: []Segment{{Text: "abc"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segments(tt.text, tt.spans))
		})
	}

	assert.Equal(t, []Segment{{Text: "x"}, {Text: "y", Match: true}}, LineSegments(event.LineMatch{Text: "xy", Start: 1, End: 2}))
}

func TestMatcher_Lines_OneByteReads(t *testing.T) {
	m, err := New("x", false)
	require.NoError(t, err)

	// every `\r` arrives without the byte after it.
	got, err := collectLines(t, m, context.Background(), iotest.OneByteReader(strings.NewReader("x\r\nx\rx")))
	require.NoError(t, err)
	assert.Equal(t, []event.LineMatch{
		{Line: 0, Text: "x", Start: 0, End: 1},
		{Line: 1, Text: "x", Start: 0, End: 1},
		{Line: 2, Text: "x", Start: 0, End: 1},
	}, got)
}

func TestMatcher_Lines_LongLine(t *testing.T) {
	m, err := New("end", false)
	require.NoError(t, err)

	line := strings.Repeat("a", 1<<20) + "end"
	got, err := collectLines(t, m, context.Background(), strings.NewReader(line+"\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1<<20, got[0].Start)
}
