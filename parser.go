// parser.go
package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/pprof/profile"
)

// CallNode is one call path of a parsed profile, ordered caller -> callee.
// Value is inclusive (this function and everything it called), Self is the
// part attributed to the function itself.
type CallNode struct {
	Name     string
	FileName string
	Line     int
	Value    int64
	Self     int64
	Children []*CallNode
	Parent   *CallNode

	IsProjectCode bool
}

// Snapshot is one parsed pprof file reduced to a single sample type.
type Snapshot struct {
	SampleType    string
	Unit          string
	DurationNanos int64
	Root          *CallNode
}

// IsWindow reports whether the snapshot's values cover one collection
// window, as CPU profiles and delta heap profiles (?seconds=N) do. Other
// profiles report totals since the program started or current levels.
func (s *Snapshot) IsWindow() bool { return s != nil && s.DurationNanos > 0 }

// ParseProfile reads a pprof file and builds the call tree for the sample
// type closest to preferred.
func ParseProfile(reader io.Reader, preferred string) (*Snapshot, error) {
	p, err := profile.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("could not parse pprof data: %w", err)
	}
	if len(p.SampleType) == 0 {
		return nil, fmt.Errorf("no sample types found in profile")
	}

	idx := pickSampleIndex(p, preferred)
	st := p.SampleType[idx]
	return &Snapshot{
		SampleType:    st.Type,
		Unit:          st.Unit,
		DurationNanos: p.DurationNanos,
		Root:          BuildCallTree(p, idx),
	}, nil
}

// pickSampleIndex prefers the named sample type, then anything measured in
// nanoseconds, then the profile's default (last) sample type.
func pickSampleIndex(p *profile.Profile, preferred string) int {
	if preferred != "" {
		for i, st := range p.SampleType {
			if st.Type == preferred {
				return i
			}
		}
	}
	for i, st := range p.SampleType {
		if st.Unit == "nanoseconds" {
			return i
		}
	}
	return len(p.SampleType) - 1
}

// BuildCallTree merges all samples into a caller -> callee tree. Inlined
// frames are expanded, outermost first.
func BuildCallTree(p *profile.Profile, sampleIndex int) *CallNode {
	root := &CallNode{Name: "root"}

	for _, s := range p.Sample {
		if sampleIndex >= len(s.Value) {
			continue
		}
		val := s.Value[sampleIndex]
		if val == 0 {
			continue
		}

		// The call stack is ordered from callee to caller.
		currentNode := root
		root.Value += val

		for i := len(s.Location) - 1; i >= 0; i-- {
			loc := s.Location[i]
			for j := len(loc.Line) - 1; j >= 0; j-- {
				line := loc.Line[j]
				if line.Function == nil {
					continue
				}
				currentNode = currentNode.child(line.Function.Name, line.Function.Filename, int(line.Line))
				currentNode.Value += val
			}
		}
		currentNode.Self += val
	}
	return root
}

func (n *CallNode) child(name, fileName string, line int) *CallNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	c := &CallNode{Name: name, FileName: fileName, Line: line, Parent: n}
	n.Children = append(n.Children, c)
	return c
}

// annotateProjectCode marks nodes that belong to the user's project module.
// pprof file names usually carry the full module path, e.g.
// "github.com/your/project/package/file.go".
func annotateProjectCode(root *CallNode, modulePath string) {
	if root == nil || modulePath == "" {
		return
	}

	// A trailing slash keeps "github.com/user/project" from matching
	// "github.com/user/project-extra".
	normalizedPath := modulePath
	if !strings.HasSuffix(normalizedPath, "/") {
		normalizedPath += "/"
	}

	stack := []*CallNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if strings.Contains(n.FileName, normalizedPath) {
			n.IsProjectCode = true
		}
		stack = append(stack, n.Children...)
	}
}

// formatValue formats a value based on its unit.
func formatValue(value int64, unit string) string {
	switch unit {
	case "nanoseconds":
		return formatNanos(value)
	case "bytes":
		return formatBytes(value)
	default: // "count", "objects", etc.
		return fmt.Sprintf("%d", value)
	}
}

// formatBytes converts bytes to a human-readable string (KiB, MiB, GiB).
func formatBytes(b int64) string {
	if b == 0 {
		return "0 B"
	}
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatNanos(n int64) string {
	if n == 0 {
		return "0s"
	}
	return time.Duration(n).String()
}
