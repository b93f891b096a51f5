package match

import "github.com/nguyengg/walgrep/event"

// Segment is a piece of text that is either inside or outside a match.
type Segment struct {
	Text  string
	Match bool
}

// Segments splits text at the given rune spans so that a renderer can mark up the matched parts.
//
// Spans must be sorted and non-overlapping, which is what Spans produces. Spans beyond the end of text are clamped.
// Empty segments are omitted.
func Segments(text string, spans []event.Span) []Segment {
	runes := []rune(text)
	segments := make([]Segment, 0, 2*len(spans)+1)

	pos := 0
	for _, span := range spans {
		start, end := clamp(span.Start, pos, len(runes)), clamp(span.End, pos, len(runes))
		if start > pos {
			segments = append(segments, Segment{Text: string(runes[pos:start])})
		}
		if end > start {
			segments = append(segments, Segment{Text: string(runes[start:end]), Match: true})
		}
		pos = end
	}

	if pos < len(runes) {
		segments = append(segments, Segment{Text: string(runes[pos:])})
	}

	return segments
}

// LineSegments is Segments for a single LineMatch.
func LineSegments(m event.LineMatch) []Segment {
	return Segments(m.Text, []event.Span{{Start: m.Start, End: m.End}})
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
