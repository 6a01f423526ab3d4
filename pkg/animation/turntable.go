package animation

import (
	"context"
	"fmt"
	"sync"
)

// Turntable owns the animations of one transition phase of one screen.
type Turntable struct {
	animations   []Animation
	processor    ShowProcessor
	allowOverlap bool

	mu     sync.RWMutex
	visual Visual
}

// NewTurntable builds a turntable. A nil processor defaults to Parallel.
// Animation ids must be unique within the turntable.
func NewTurntable(processor ShowProcessor, allowOverlap bool, animations ...Animation) (*Turntable, error) {
	seen := make(map[string]bool, len(animations))
	for _, a := range animations {
		if seen[a.ID()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAnimationID, a.ID())
		}
		seen[a.ID()] = true
	}

	if processor == nil {
		processor = Parallel{}
	}

	owned := make([]Animation, len(animations))
	copy(owned, animations)

	return &Turntable{
		animations:   owned,
		processor:    processor,
		allowOverlap: allowOverlap,
	}, nil
}

// AllowOverlap reports whether this transition may run concurrently with
// the opposing transition of the next screen.
func (t *Turntable) AllowOverlap() bool {
	return t.allowOverlap
}

// Animations returns the owned units in declared order.
func (t *Turntable) Animations() []Animation {
	out := make([]Animation, len(t.animations))
	copy(out, t.animations)
	return out
}

// Bind attaches every owned unit to v.
func (t *Turntable) Bind(v Visual) {
	t.mu.Lock()
	t.visual = v
	t.mu.Unlock()

	for _, a := range t.animations {
		a.Bind(v)
	}
}

// Play runs the turntable. A nil block plays every owned unit with the
// default processor.
func (t *Turntable) Play(ctx context.Context, block *Block) bool {
	processor := t.processor
	selection := t.animations
	var extra []Animation

	if block != nil {
		if block.Processor != nil {
			processor = block.Processor
		}
		if block.IDs != nil {
			selection = t.filter(block.IDs)
		}
		extra = block.Extra
	}

	runs := make([]Run, 0, len(selection)+len(extra))
	for _, a := range selection {
		runs = append(runs, RunOf(a))
	}

	if len(extra) > 0 {
		t.mu.RLock()
		v := t.visual
		t.mu.RUnlock()

		for _, a := range extra {
			if v != nil {
				a.Bind(v)
			}
			runs = append(runs, RunOf(a))
		}
	}

	return processor.Process(ctx, runs)
}

// RewindToFirstFrame resets every owned unit to its first frame.
func (t *Turntable) RewindToFirstFrame() {
	for _, a := range t.animations {
		a.RewindToFirstFrame()
	}
}

// RewindToLastFrame moves every owned unit to its last frame.
func (t *Turntable) RewindToLastFrame() {
	for _, a := range t.animations {
		a.RewindToLastFrame()
	}
}

func (t *Turntable) filter(ids []string) []Animation {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	out := make([]Animation, 0, len(ids))
	for _, a := range t.animations {
		if wanted[a.ID()] {
			out = append(out, a)
		}
	}
	return out
}
