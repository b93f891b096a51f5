package results

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nguyengg/walgrep/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_ApplyContent(t *testing.T) {
	tree := &Tree{}

	// polled in two batches.
	tree.Apply(
		event.ArchiveFound{Path: "/data/a.zip", Display: "a.zip"},
		event.EntryFound{Name: "x.txt"},
		event.LineMatch{Line: 0, Text: "foo bar", Start: 4, End: 6},
	)
	assert.False(t, tree.Done())
	assert.Equal(t, 1, tree.Matches())

	tree.Apply(
		event.LineMatch{Line: 1, Text: "baz", Start: 0, End: 2},
		event.EntryFound{Name: "y.txt"},
		event.LineMatch{Line: 5, Text: "ba", Start: 0, End: 2},
		event.ArchiveFound{Path: "/data/b.zip", Display: "b.zip"},
		event.EntryFound{Name: "z.txt"},
		event.LineMatch{Line: 2, Text: "abba", Start: 2, End: 4},
		event.SessionDone{Total: 4, State: "completed"},
	)

	assert.True(t, tree.Done())
	assert.Equal(t, 4, tree.Total)
	assert.Equal(t, 4, tree.Matches())
	assert.Equal(t, []*Archive{
		{
			Path:    "/data/a.zip",
			Display: "a.zip",
			Members: []*Member{
				{Name: "x.txt", Lines: []Line{{Line: 0, Text: "foo bar", Start: 4, End: 6}, {Line: 1, Text: "baz", Start: 0, End: 2}}},
				{Name: "y.txt", Lines: []Line{{Line: 5, Text: "ba", Start: 0, End: 2}}},
			},
		},
		{
			Path:    "/data/b.zip",
			Display: "b.zip",
			Members: []*Member{
				{Name: "z.txt", Lines: []Line{{Line: 2, Text: "abba", Start: 2, End: 4}}},
			},
		},
	}, tree.Archives)
}

func TestTree_ApplyNames(t *testing.T) {
	tree := &Tree{}
	tree.Apply(
		event.ArchiveFound{Path: "/data/a.zip", Display: "a.zip"},
		event.NameMatch{Name: "dir/bar.txt", Base: "bar.txt", Spans: []event.Span{{Start: 0, End: 2}}},
		event.NameMatch{Name: "baz.txt", Base: "baz.txt", Spans: []event.Span{{Start: 0, End: 2}}},
		event.SessionDone{Total: 2, State: "completed"},
	)

	require.Len(t, tree.Archives, 1)
	assert.Equal(t, []*Member{
		{Name: "dir/bar.txt", Spans: []event.Span{{Start: 0, End: 2}}},
		{Name: "baz.txt", Spans: []event.Span{{Start: 0, End: 2}}},
	}, tree.Archives[0].Members)
	assert.Equal(t, 2, tree.Matches())
}

func TestTree_ApplyError(t *testing.T) {
	tree := &Tree{}
	tree.Apply(
		event.SessionError{Path: "/data/bad.zip", Err: errors.New("not a valid zip file")},
		event.SessionDone{Total: 0, State: "failed"},
	)

	assert.Equal(t, "/data/bad.zip", tree.ErrorPath)
	assert.Equal(t, "not a valid zip file", tree.Error)
	assert.Equal(t, "failed", tree.State)
	assert.Empty(t, tree.Archives)

	tree.Reset()
	assert.Equal(t, &Tree{}, tree)
}

func TestTree_OrphanLineMatch(t *testing.T) {
	tree := &Tree{}
	tree.Apply(event.LineMatch{Line: 0, Text: "x", Start: 0, End: 1})

	require.Len(t, tree.Archives, 1)
	require.Len(t, tree.Archives[0].Members, 1)
	assert.Len(t, tree.Archives[0].Members[0].Lines, 1)
}

func TestTree_JSON(t *testing.T) {
	tree := &Tree{}
	tree.Apply(
		event.ArchiveFound{Path: "/data/a.zip", Display: "a.zip"},
		event.EntryFound{Name: "x.txt"},
		event.LineMatch{Line: 0, Text: "foo bar", Start: 4, End: 6},
		event.SessionDone{Total: 1, State: "completed"},
	)

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"archives": [{
			"path": "/data/a.zip",
			"display": "a.zip",
			"members": [{"name": "x.txt", "lines": [{"line": 0, "text": "foo bar", "start": 4, "end": 6}]}]
		}],
		"total": 1,
		"state": "completed"
	}`, string(data))
}
