// layout.go
package main

import (
	"math"

	"github.com/charmbracelet/log"
)

const (
	// How far left of the selected column the view starts, in columns.
	columnMargin = 0.2
	// Vertical breathing room around the selected band, as a share of its
	// own size.
	spanMargin = 0.05
)

// LayoutItem is one band of a column. Spans are fractions of the root's
// inclusive time.
type LayoutItem struct {
	NodeKey int
	// Exclusive marks the carry-over block for a node's own time, as
	// opposed to the inclusive block of its whole subtree.
	Exclusive bool
	SpanStart float64
	SpanEnd   float64
}

func (i LayoutItem) Size() float64 { return i.SpanEnd - i.SpanStart }

// Layout holds one column per tree depth below the root.
type Layout [][]LayoutItem

// Width is the number of columns, the horizontal extent of the layout in
// data coordinates.
func (l Layout) Width() float64 { return float64(len(l)) }

// Bounds is the whole layout in data coordinates.
func (l Layout) Bounds() RectF {
	return RectF{Left: 0, Top: 0, Right: l.Width(), Bottom: 1}
}

// ProfileTree is the read side of a profile that the layout needs.
type ProfileTree interface {
	RootNode() *ProfileNode
	Node(key int) *ProfileNode
}

// latestTotals returns a node's most recent inclusive and exclusive totals,
// or zeros for nodes without samples.
func latestTotals(n *ProfileNode) (inclusive, exclusive float64) {
	s, ok := n.Latest()
	if !ok {
		return 0, 0
	}
	return float64(s.CumulativeInclusive), float64(s.CumulativeExclusive)
}

// layoutProfile lays the tree out as an icicle. Column 0 holds the root
// spanning [0,1]. Every following column is built from the previous one:
// each parent first carries its own exclusive time over as an exclusive
// item, then (unless the parent is itself a carry-over) its children follow
// in order with their inclusive time. Columns stop once no item of the
// newest column has children left to expand.
//
// An empty layout means there is nothing to draw.
func layoutProfile(tree ProfileTree, logger *log.Logger) Layout {
	root := tree.RootNode()
	if !root.IsValid() {
		logger.Warn("profile returned invalid root node")
		return nil
	}
	if len(root.Data()) == 0 {
		logger.Warn("root node has no samples", "node", root.Name())
		return nil
	}

	timeScale, _ := latestTotals(root)
	if !(timeScale > 0) || math.IsInf(timeScale, 0) {
		logger.Warn("root node has no inclusive time yet", "node", root.Name())
		return nil
	}

	layout := Layout{{{NodeKey: root.NodeKey(), SpanStart: 0, SpanEnd: 1}}}

	for expand := root.HasChildren(); expand; {
		// Stop unless some child in this column has children of its own.
		expand = false

		parents := layout[len(layout)-1]
		column := make([]LayoutItem, 0, len(parents))

		cursor := 0.0
		for _, parent := range parents {
			parentNode := tree.Node(parent.NodeKey)
			_, exclusive := latestTotals(parentNode)

			carry := LayoutItem{
				NodeKey:   parent.NodeKey,
				Exclusive: true,
				SpanStart: cursor,
				SpanEnd:   cursor + exclusive/timeScale,
			}
			column = append(column, carry)
			cursor = carry.SpanEnd

			// A carry-over's children were laid out when its node was.
			if parent.Exclusive {
				continue
			}

			for _, childKey := range parentNode.ChildKeys() {
				childNode := tree.Node(childKey)
				if !childNode.IsValid() {
					logger.Warn("profile returned invalid child node", "parent", parent.NodeKey, "child", childKey)
					continue
				}
				inclusive, _ := latestTotals(childNode)

				item := LayoutItem{
					NodeKey:   childKey,
					SpanStart: cursor,
					SpanEnd:   cursor + inclusive/timeScale,
				}
				column = append(column, item)
				cursor = item.SpanEnd

				expand = expand || childNode.HasChildren()
			}
		}

		layout = append(layout, column)
	}

	return layout
}

// dataRect frames the first band of nodeKey, scanning column by column.
// The frame keeps a sliver of the previous column in view, runs to the
// right edge of the layout and pads the band vertically. Bands with no
// size are skipped, since they cannot be framed. When nothing matches the
// whole layout is framed.
func dataRect(layout Layout, nodeKey int, logger *log.Logger) RectF {
	empty := false
	for col, items := range layout {
		for _, item := range items {
			if item.NodeKey != nodeKey {
				continue
			}
			if !(item.Size() > 0) {
				empty = true
				continue
			}
			margin := spanMargin * item.Size()
			return RectF{
				Left:   math.Max(0, float64(col)-columnMargin),
				Top:    math.Max(item.SpanStart-margin, 0),
				Right:  layout.Width(),
				Bottom: math.Min(item.SpanEnd+margin, 1),
			}
		}
	}

	if empty {
		logger.Warn("active node has no time", "node", nodeKey)
	} else {
		logger.Warn("active node key was not found in layout", "node", nodeKey)
	}
	return layout.Bounds()
}
