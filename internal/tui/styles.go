package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nguyengg/walgrep/event"
	"github.com/nguyengg/walgrep/match"
)

// Styles renders events as lines of text.
//
// Whether colours actually show depends on the terminal lipgloss detects; output that is not a terminal gets plain
// text.
type Styles struct {
	Archive lipgloss.Style
	Member  lipgloss.Style
	LineNo  lipgloss.Style
	Match   lipgloss.Style
	Error   lipgloss.Style
	Status  lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the styles used by both the TUI and the search command.
func DefaultStyles() Styles {
	return Styles{
		Archive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Member:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		LineNo:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Match:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Status:  lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// RenderEvent returns the lines that e adds to a grep-style listing.
//
// Archives are flush left, members are indented by two spaces, and content matches by four with a 1-based line
// number. event.SessionDone renders nothing.
func (s Styles) RenderEvent(e event.Event) []string {
	switch v := e.(type) {
	case event.ArchiveFound:
		return []string{s.Archive.Render(v.Display)}
	case event.EntryFound:
		return []string{"  " + s.Member.Render(v.Name)}
	case event.NameMatch:
		dir := strings.TrimSuffix(v.Name, v.Base)
		return []string{"  " + s.Member.Render(dir) + s.highlight(match.Segments(v.Base, v.Spans), s.Member)}
	case event.LineMatch:
		return []string{"    " + s.LineNo.Render(fmt.Sprintf("%d:", v.Line+1)) + " " + s.highlight(match.LineSegments(v), lipgloss.NewStyle())}
	case event.SessionError:
		return []string{s.Error.Render(v.Error())}
	default:
		return nil
	}
}

func (s Styles) highlight(segments []match.Segment, normal lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Match {
			b.WriteString(s.Match.Render(seg.Text))
			continue
		}

		b.WriteString(normal.Render(seg.Text))
	}

	return b.String()
}
