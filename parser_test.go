package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCallTree(t *testing.T) {
	root := BuildCallTree(testPprof(), 1)

	assert.Equal(t, "root", root.Name)
	assert.Equal(t, int64(40), root.Value)
	assert.Equal(t, int64(0), root.Self)
	require.Len(t, root.Children, 1)

	mainNode := root.Children[0]
	assert.Equal(t, "main.main", mainNode.Name)
	assert.Equal(t, int64(40), mainNode.Value)
	assert.Equal(t, int64(10), mainNode.Self)
	assert.Equal(t, "/src/github.com/acme/app/main.go", mainNode.FileName)
	assert.Equal(t, 12, mainNode.Line)
	assert.Same(t, root, mainNode.Parent)
	require.Len(t, mainNode.Children, 1)

	work := mainNode.Children[0]
	assert.Equal(t, "main.work", work.Name)
	assert.Equal(t, int64(30), work.Value)
	assert.Equal(t, int64(30), work.Self)
	assert.Empty(t, work.Children)
}

func TestBuildCallTreeSampleIndex(t *testing.T) {
	root := BuildCallTree(testPprof(), 0)
	assert.Equal(t, int64(4), root.Value)
	assert.Equal(t, int64(3), root.Children[0].Children[0].Self)

	// Out of range indexes contribute nothing.
	assert.Equal(t, int64(0), BuildCallTree(testPprof(), 5).Value)
}

func TestBuildCallTreeInlinedFrames(t *testing.T) {
	p := testPprof()
	inner := &profile.Function{ID: 3, Name: "main.inlined", Filename: "/src/github.com/acme/app/work.go"}
	p.Function = append(p.Function, inner)

	// Line[0] is the innermost frame of an inlined location.
	loc := p.Location[1]
	loc.Line = append([]profile.Line{{Function: inner, Line: 40}}, loc.Line...)

	root := BuildCallTree(p, 1)
	work := root.Children[0].Children[0]
	assert.Equal(t, "main.work", work.Name)
	assert.Equal(t, int64(0), work.Self)
	require.Len(t, work.Children, 1)
	assert.Equal(t, "main.inlined", work.Children[0].Name)
	assert.Equal(t, int64(30), work.Children[0].Self)
}

func TestParseProfile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testPprof().Write(&buf))

	snap, err := ParseProfile(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	assert.Equal(t, "cpu", snap.SampleType)
	assert.Equal(t, "nanoseconds", snap.Unit)
	assert.Equal(t, int64(1e9), snap.DurationNanos)
	assert.Equal(t, int64(40), snap.Root.Value)

	snap, err = ParseProfile(bytes.NewReader(buf.Bytes()), "samples")
	require.NoError(t, err)
	assert.Equal(t, "samples", snap.SampleType)
	assert.Equal(t, int64(4), snap.Root.Value)
}

func TestParseProfileRejectsGarbage(t *testing.T) {
	_, err := ParseProfile(strings.NewReader("not a profile"), "")
	require.ErrorContains(t, err, "could not parse pprof data")
}

func TestPickSampleIndex(t *testing.T) {
	heap := &profile.Profile{SampleType: []*profile.ValueType{
		{Type: "alloc_objects", Unit: "count"},
		{Type: "alloc_space", Unit: "bytes"},
		{Type: "inuse_objects", Unit: "count"},
		{Type: "inuse_space", Unit: "bytes"},
	}}

	tests := []struct {
		name      string
		p         *profile.Profile
		preferred string
		want      int
	}{
		{"preferred wins", testPprof(), "samples", 0},
		{"falls back to nanoseconds", testPprof(), "", 1},
		{"unknown preferred", testPprof(), "wall", 1},
		{"heap default is last", heap, "", 3},
		{"heap preferred", heap, "alloc_space", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickSampleIndex(tt.p, tt.preferred))
		})
	}
}

func TestAnnotateProjectCode(t *testing.T) {
	root := BuildCallTree(testPprof(), 1)
	vendor := &CallNode{Name: "other.fn", FileName: "/src/github.com/acme/app-extra/x.go", Parent: root}
	root.Children = append(root.Children, vendor)

	annotateProjectCode(root, "github.com/acme/app")

	assert.False(t, root.IsProjectCode)
	assert.True(t, root.Children[0].IsProjectCode)
	assert.True(t, root.Children[0].Children[0].IsProjectCode)
	assert.False(t, vendor.IsProjectCode)

	// No module path leaves the tree alone.
	fresh := BuildCallTree(testPprof(), 1)
	annotateProjectCode(fresh, "")
	assert.False(t, fresh.Children[0].IsProjectCode)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value int64
		unit  string
		want  string
	}{
		{0, "nanoseconds", "0s"},
		{1500000000, "nanoseconds", "1.5s"},
		{2500, "nanoseconds", "2.5µs"},
		{0, "bytes", "0 B"},
		{512, "bytes", "512 B"},
		{1536, "bytes", "1.5 KiB"},
		{3 << 20, "bytes", "3.0 MiB"},
		{42, "count", "42"},
		{7, "objects", "7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.value, tt.unit), "%d %s", tt.value, tt.unit)
	}
}
