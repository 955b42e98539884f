// partition.go
package main

import (
	"image/color"
	"time"

	"github.com/charmbracelet/log"
)

const defaultTransitionDuration = 500 * time.Millisecond

// Band is one filled rectangle of a painted frame, in pixels.
type Band struct {
	Rect    Rect
	Fill    color.RGBA
	NodeKey int
	Name    string
}

// Frame is everything a surface needs to draw one paint of the view.
type Frame struct {
	Width, Height int
	Background    color.RGBA
	Bands         []Band
}

// PartitionView shows the active profile as an icicle diagram framed around
// the active node. Selecting another node animates the frame over to it.
type PartitionView struct {
	db     *Database
	logger *log.Logger

	activeKey DatabaseKey
	layout    Layout

	animator   *RectAnimator
	transition time.Duration
	dirty      bool
}

func NewPartitionView(logger *log.Logger, transition time.Duration) *PartitionView {
	if logger == nil {
		logger = log.Default()
	}
	if transition < 0 {
		transition = defaultTransitionDuration
	}
	v := &PartitionView{
		logger:     logger,
		activeKey:  invalidKey,
		transition: transition,
	}
	v.animator = NewRectAnimator(transition, func(RectF) { v.update() })
	return v
}

func (v *PartitionView) update() { v.dirty = true }

// NeedsRedraw reports whether anything changed since the last Paint.
func (v *PartitionView) NeedsRedraw() bool { return v.dirty }

func (v *PartitionView) ActiveKey() DatabaseKey  { return v.activeKey }
func (v *PartitionView) Layout() Layout          { return v.layout }
func (v *PartitionView) Animator() *RectAnimator { return v.animator }

// Animating reports whether a frame transition is in flight.
func (v *PartitionView) Animating() bool { return v.animator.Running() }

// Advance feeds elapsed time to the frame transition.
func (v *PartitionView) Advance(dt time.Duration) bool { return v.animator.Advance(dt) }

// SetDatabase binds the view to its data source. A view is bound once;
// later calls are ignored.
func (v *PartitionView) SetDatabase(db *Database) {
	if v.db != nil {
		v.logger.Warn("partition view: cannot change the profile database")
		return
	}
	v.db = db
	v.update()

	db.Subscribe(func(Event) { v.UpdateData() })
}

func (v *PartitionView) profile() *Profile {
	if v.db == nil {
		return nil
	}
	return v.db.Profile(v.activeKey.ProfileKey)
}

// UpdateData rebuilds the layout after the database changed and retargets
// the frame. A running transition keeps running towards the new target.
func (v *PartitionView) UpdateData() {
	if !v.activeKey.IsValid() || v.db == nil {
		return
	}

	layout := layoutProfile(v.profile(), v.logger)
	target := dataRect(layout, v.activeKey.NodeKey, v.logger)
	if !v.animator.Running() {
		v.animator.SetStartValue(target)
	}
	v.animator.SetEndValue(target)
	v.layout = layout

	v.update()
}

// SetActiveNode makes the given node the focus of the view. The first
// selection is framed immediately; every later one animates from the
// previous target to the new one.
func (v *PartitionView) SetActiveNode(profileKey, nodeKey int) {
	newKey := DatabaseKey{ProfileKey: profileKey, NodeKey: nodeKey}
	if newKey == v.activeKey {
		return
	}

	first := !v.activeKey.IsValid()
	v.activeKey = newKey

	if v.db == nil {
		v.logger.Warn("partition view: no profile database bound", "profile", profileKey, "node", nodeKey)
		return
	}

	layout := layoutProfile(v.profile(), v.logger)
	target := dataRect(layout, nodeKey, v.logger)
	v.layout = layout

	if first {
		v.animator.SetStartValue(target)
		v.animator.SetEndValue(target)
	} else {
		v.animator.Stop()
		v.animator.SetStartValue(v.animator.EndValue())
		v.animator.SetEndValue(target)
		v.animator.SetDuration(v.transition)
		v.animator.Start()
	}
	v.update()
}

// Paint renders the view for a width x height pixel window through the
// current, possibly mid-transition, frame.
func (v *PartitionView) Paint(width, height int) Frame {
	v.dirty = false

	frame := Frame{Width: width, Height: height, Background: backgroundColor}
	if len(v.layout) == 0 || width <= 0 || height <= 0 {
		return frame
	}

	profile := v.profile()

	win := RectF{Left: 0, Top: 0, Right: float64(width), Bottom: float64(height)}
	data := v.animator.CurrentValue()
	winFromData, err := getTransform(win, data)
	if err != nil {
		v.logger.Warn("cannot map layout onto window", "err", err, "data", data, "width", width, "height", height)
		return frame
	}

	frame.Bands = renderLayout(winFromData, v.layout, profile)
	return frame
}

// renderLayout maps every inclusive item to pixels. Exclusive items are not
// drawn: a node's own time shows as the part of its band that no child
// covers. Each band reaches to the right edge of the layout and deeper
// columns are painted over it, so bands keep their parent's alignment.
func renderLayout(winFromData Transform, layout Layout, tree ProfileTree) []Band {
	var bands []Band
	for col, items := range layout {
		for _, item := range items {
			if item.Exclusive {
				continue
			}

			node := tree.Node(item.NodeKey)
			extent := RectF{
				Left:   float64(col),
				Top:    item.SpanStart,
				Right:  layout.Width(),
				Bottom: item.SpanEnd,
			}

			// Leave the last row and column of pixels to the neighbour so
			// adjacent bands don't paint over each other.
			px := roundRectF(winFromData.MapRect(extent)).Adjusted(0, 0, -1, -1)
			if px.Empty() {
				continue
			}

			bands = append(bands, Band{
				Rect:    px,
				Fill:    colorFromString(node.Name()),
				NodeKey: item.NodeKey,
				Name:    node.Name(),
			})
		}
	}
	return bands
}
