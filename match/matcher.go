// Package match applies a compiled regular expression to member names or to member content.
package match

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nguyengg/walgrep/event"
)

// PatternError is returned by New if the pattern does not compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf(`compile pattern "%s" error: %v`, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// DecodeError is produced by Lines when a line is not valid UTF-8.
//
// Lines stops at the first such line; matches from earlier lines have already been produced.
type DecodeError struct {
	// Line is the 0-based index of the offending line.
	Line int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d is not valid UTF-8", e.Line)
}

// IsDecodeError returns true if err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Matcher matches one compiled pattern in either filename or content mode.
//
// A Matcher is safe for concurrent use.
type Matcher struct {
	re       *regexp.Regexp
	nameOnly bool
}

// New compiles pattern.
//
// If nameOnly is true, the Matcher is meant for Name; otherwise for Lines. Both methods work regardless, the flag only
// records which mode the caller asked for.
func New(pattern string, nameOnly bool) (*Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}

	return &Matcher{re: re, nameOnly: nameOnly}, nil
}

// NameOnly returns true if the Matcher was created for filename mode.
func (m *Matcher) NameOnly() bool {
	return m.nameOnly
}

// String returns the source text of the pattern.
func (m *Matcher) String() string {
	return m.re.String()
}

// Base returns the last `/`-separated component of a member name.
func Base(name string) string {
	return name[strings.LastIndexByte(name, '/')+1:]
}

// Name matches the pattern against the basename of a member.
//
// Returns false if nothing matched. The directory prefix of name is never searched.
func (m *Matcher) Name(name string) (event.NameMatch, bool) {
	base := Base(name)
	spans := m.Spans(base)
	if len(spans) == 0 {
		return event.NameMatch{}, false
	}

	return event.NameMatch{Name: name, Base: base, Spans: spans}, true
}

// Spans returns every non-overlapping match in s as rune offsets.
func (m *Matcher) Spans(s string) []event.Span {
	locs := m.re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}

	spans := make([]event.Span, 0, len(locs))
	runes, last := 0, 0
	for _, loc := range locs {
		runes += utf8.RuneCountInString(s[last:loc[0]])
		start := runes
		runes += utf8.RuneCountInString(s[loc[0]:loc[1]])
		spans = append(spans, event.Span{Start: start, End: runes})
		last = loc[1]
	}

	return spans
}

// Lines returns an iterator over every match in every line of r.
//
// Lines are delimited by `\n`, `\r\n`, or a lone `\r`, and the terminator is stripped from LineMatch.Text. There is
// no limit on line length. Iteration stops silently when ctx is cancelled, checking before each line.
//
// If a line is not valid UTF-8, a *DecodeError is produced and iteration stops. Any other read error is produced as-is
// and also stops iteration.
func (m *Matcher) Lines(ctx context.Context, r io.Reader) iter.Seq2[event.LineMatch, error] {
	return func(yield func(event.LineMatch, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
		sc.Split(scanLines)

		for i := 0; ; i++ {
			if ctx.Err() != nil {
				return
			}

			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					yield(event.LineMatch{}, err)
				}
				return
			}

			b := sc.Bytes()
			if !utf8.Valid(b) {
				yield(event.LineMatch{}, &DecodeError{Line: i})
				return
			}

			text := string(b)
			for _, span := range m.Spans(text) {
				if !yield(event.LineMatch{Line: i, Text: text, Start: span.Start, End: span.End}, nil) {
					return
				}
			}
		}
	}
}

// scanLines is a bufio.SplitFunc like bufio.ScanLines that also ends a line at a `\r` not followed by `\n`.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}

		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		default:
			// need one more byte to tell `\r` from `\r\n`.
			return 0, nil, nil
		}
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}
