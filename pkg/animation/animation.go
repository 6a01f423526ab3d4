// Package animation holds the transition building blocks of a screen:
// animation units, the show processors that combine their runs, and the
// turntables that own a fixed set of units for one transition phase.
package animation

import (
	"context"
	"errors"
)

// ErrDuplicateAnimationID is returned when a turntable is built with two
// units sharing an id.
var ErrDuplicateAnimationID = errors.New("duplicate animation id")

// Visual is the engine-side object a screen's animations act on.
type Visual interface {
	Name() string
	SetActive(active bool)
	SetSiblingIndex(index int)
}

// ProgressSink is implemented by visuals that want per-animation progress.
type ProgressSink interface {
	SetProgress(animationID string, progress float64)
}

// Animation is a single named transition clip.
//
// Run reports failure by returning false, including when ctx is cancelled
// mid-run. Rewinds are idempotent and may be called at any time.
type Animation interface {
	ID() string
	Bind(v Visual)
	Run(ctx context.Context) bool
	RewindToFirstFrame()
	RewindToLastFrame()
}

// Builder creates a fresh animation. Templates hold builders so that every
// screen instance owns its own units.
type Builder func() Animation

// Run is a pending animation run. Nothing happens until a processor calls it.
type Run func(ctx context.Context) bool

// RunOf returns the pending run of a.
func RunOf(a Animation) Run {
	return a.Run
}

// ShowProcessor combines a batch of pending runs into one result.
type ShowProcessor interface {
	Process(ctx context.Context, runs []Run) bool
}

// Block overrides what a turntable plays for a single invocation.
type Block struct {
	// Processor replaces the turntable's default processor when set.
	Processor ShowProcessor
	// IDs restricts the owned units to these ids; nil plays all of them.
	IDs []string
	// Extra animations are appended after the selected units.
	Extra []Animation
}
