// animation.go
package main

import "time"

// EasingFunc remaps linear progress in [0,1] onto an eased progress with
// f(0) == 0 and f(1) == 1.
type EasingFunc func(t float64) float64

// easeInOutCubic accelerates through the first half and decelerates
// through the second.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

type AnimatorState int

const (
	AnimatorIdle AnimatorState = iota
	AnimatorRunning
)

func (s AnimatorState) String() string {
	if s == AnimatorRunning {
		return "running"
	}
	return "idle"
}

// RectAnimator interpolates a RectF between a start and an end value. It has
// no clock of its own: the owner feeds it elapsed time through Advance.
//
// The current value is always the eased interpolation at the animator's
// progress. A fresh animator sits at progress 1, so setting key values on it
// moves the current value straight to the end value. Every change of the
// current value is reported through the onChange callback.
type RectAnimator struct {
	start, end, current RectF

	duration time.Duration
	elapsed  time.Duration
	progress float64
	state    AnimatorState

	easing   EasingFunc
	onChange func(RectF)
}

func NewRectAnimator(duration time.Duration, onChange func(RectF)) *RectAnimator {
	return &RectAnimator{
		duration: duration,
		progress: 1,
		easing:   easeInOutCubic,
		onChange: onChange,
	}
}

func (a *RectAnimator) SetEasingCurve(f EasingFunc) {
	a.easing = f
	a.refresh()
}

func (a *RectAnimator) SetStartValue(r RectF) {
	a.start = r
	a.refresh()
}

func (a *RectAnimator) SetEndValue(r RectF) {
	a.end = r
	a.refresh()
}

func (a *RectAnimator) SetDuration(d time.Duration) { a.duration = d }

func (a *RectAnimator) StartValue() RectF       { return a.start }
func (a *RectAnimator) EndValue() RectF         { return a.end }
func (a *RectAnimator) CurrentValue() RectF     { return a.current }
func (a *RectAnimator) Duration() time.Duration { return a.duration }
func (a *RectAnimator) State() AnimatorState    { return a.state }
func (a *RectAnimator) Running() bool           { return a.state == AnimatorRunning }

// Start rewinds to the start value and begins running. A non-positive
// duration completes immediately.
func (a *RectAnimator) Start() {
	a.elapsed = 0
	a.progress = 0
	a.state = AnimatorRunning
	if a.duration <= 0 {
		a.progress = 1
		a.state = AnimatorIdle
	}
	a.refresh()
}

// Stop halts the animation where it is. The current value is not snapped
// to the end value.
func (a *RectAnimator) Stop() {
	a.state = AnimatorIdle
}

// Advance moves a running animation forward by dt and reports whether it is
// still running afterwards.
func (a *RectAnimator) Advance(dt time.Duration) bool {
	if a.state != AnimatorRunning {
		return false
	}
	a.elapsed += dt
	if a.elapsed >= a.duration {
		a.elapsed = a.duration
		a.progress = 1
		a.state = AnimatorIdle
	} else {
		a.progress = float64(a.elapsed) / float64(a.duration)
	}
	a.refresh()
	return a.state == AnimatorRunning
}

func (a *RectAnimator) refresh() {
	t := a.progress
	if a.easing != nil {
		t = a.easing(t)
	}
	next := lerpRect(a.start, a.end, t)
	if next == a.current {
		return
	}
	a.current = next
	if a.onChange != nil {
		a.onChange(next)
	}
}
